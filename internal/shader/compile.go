package shader

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"slices"

	"github.com/gogpu/naga"
	"github.com/gogpu/naga/ir"
	"github.com/gogpu/naga/spirv"

	"framekit/internal/gpu"
	"framekit/internal/logging"
)

// DefaultErrorLog is where compiler diagnostics are written.
const DefaultErrorLog = "shader-error.txt"

// CompileError reports a shader that could not be built.
type CompileError struct {
	File  string
	Entry string
	// Missing is set when the source file does not exist. Otherwise the
	// source failed to compile and Diagnostic holds the compiler output.
	Missing    bool
	Diagnostic string
	LogPath    string
	Err        error
}

func (e *CompileError) Error() string {
	if e.Missing {
		return "shader: missing shader file " + e.File
	}
	if e.LogPath == "" {
		return fmt.Sprintf("shader: error compiling %s: %s", e.File, e.Diagnostic)
	}
	return fmt.Sprintf("shader: error compiling %s, check %s for message", e.File, e.LogPath)
}

func (e *CompileError) Unwrap() error { return e.Err }

var stages = map[gpu.ShaderStage]ir.ShaderStage{
	gpu.StageVertex: ir.StageVertex,
	gpu.StagePixel:  ir.StageFragment,
}

// Compile reads file from src and compiles the entry point for stage.
// Diagnostics are written to errorLog unless it is empty.
func Compile(src fs.FS, file, entry string, stage gpu.ShaderStage, errorLog string) (*gpu.ShaderCode, error) {
	source, err := fs.ReadFile(src, file)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &CompileError{File: file, Entry: entry, Missing: true, Err: err}
		}
		return nil, fmt.Errorf("shader: read %s: %w", file, err)
	}

	fail := func(diag string, cause error) error {
		ce := &CompileError{File: file, Entry: entry, Diagnostic: diag, Err: cause}
		if errorLog != "" {
			if werr := os.WriteFile(errorLog, []byte(diag+"\n"), 0644); werr != nil {
				logging.Logger().Warn("shader: cannot write error log", "path", errorLog, "err", werr)
			} else {
				ce.LogPath = errorLog
			}
		}
		return ce
	}

	module, err := lower(string(source))
	if err != nil {
		return nil, fail(fmt.Sprintf("%s(%s): %v", file, entry, err), err)
	}
	ep := findEntry(module, stages[stage], entry)
	if ep == nil {
		return nil, fail(fmt.Sprintf("%s: entry point %s not found for %s stage", file, entry, stage), nil)
	}

	code := &gpu.ShaderCode{
		Name:     file,
		Stage:    stage,
		Entry:    entry,
		Profile:  stage.Profile(),
		Source:   string(source),
		Bindings: reflectBindings(module),
	}
	if stage == gpu.StageVertex {
		code.Inputs, err = reflectInputs(module, ep)
		if err != nil {
			return nil, fail(fmt.Sprintf("%s(%s): %v", file, entry, err), err)
		}
	}
	code.SPIRV, err = naga.GenerateSPIRV(module, spirv.Options{Version: spirv.Version1_3})
	if err != nil {
		return nil, fail(fmt.Sprintf("%s(%s): %v", file, entry, err), err)
	}
	logging.Logger().Debug("shader compiled", "file", file, "entry", entry, "profile", code.Profile, "spirv_bytes", len(code.SPIRV))
	return code, nil
}

// lower parses, lowers and validates source.
func lower(source string) (*ir.Module, error) {
	ast, err := naga.Parse(source)
	if err != nil {
		return nil, err
	}
	module, err := naga.LowerWithSource(ast, source)
	if err != nil {
		return nil, err
	}
	problems, err := naga.Validate(module)
	if err != nil {
		return nil, err
	}
	if len(problems) > 0 {
		return nil, fmt.Errorf("validation failed: %w", problems[0])
	}
	return module, nil
}

func findEntry(module *ir.Module, stage ir.ShaderStage, name string) *ir.EntryPoint {
	for i := range module.EntryPoints {
		if ep := &module.EntryPoints[i]; ep.Stage == stage && ep.Name == name {
			return ep
		}
	}
	return nil
}

// reflectInputs returns the formats of the entry point's location inputs
// ordered by location. Inputs may be plain parameters or members of a
// struct parameter; builtins are skipped. Locations must run from 0 without
// gaps.
func reflectInputs(module *ir.Module, ep *ir.EntryPoint) ([]gpu.Format, error) {
	byLocation := map[uint32]gpu.Format{}
	add := func(b *ir.Binding, ty ir.TypeHandle) error {
		if b == nil {
			return nil
		}
		loc, ok := (*b).(ir.LocationBinding)
		if !ok {
			return nil
		}
		f, err := inputFormat(module.Types[ty].Inner)
		if err != nil {
			return fmt.Errorf("location %d: %w", loc.Location, err)
		}
		byLocation[loc.Location] = f
		return nil
	}

	for _, arg := range ep.Function.Arguments {
		if arg.Binding != nil {
			if err := add(arg.Binding, arg.Type); err != nil {
				return nil, err
			}
			continue
		}
		st, ok := module.Types[arg.Type].Inner.(ir.StructType)
		if !ok {
			continue
		}
		for _, m := range st.Members {
			if err := add(m.Binding, m.Type); err != nil {
				return nil, err
			}
		}
	}

	inputs := make([]gpu.Format, len(byLocation))
	for loc, f := range byLocation {
		if int(loc) >= len(inputs) {
			return nil, errors.New("vertex input locations are not contiguous")
		}
		inputs[loc] = f
	}
	return inputs, nil
}

func inputFormat(t ir.TypeInner) (gpu.Format, error) {
	switch t := t.(type) {
	case ir.ScalarType:
		if t.Kind == ir.ScalarUint && t.Width == 4 {
			return gpu.FormatR32Uint, nil
		}
	case ir.VectorType:
		if t.Scalar.Kind == ir.ScalarFloat && t.Scalar.Width == 4 {
			switch t.Size {
			case ir.Vec2:
				return gpu.FormatRG32Float, nil
			case ir.Vec3:
				return gpu.FormatRGB32Float, nil
			case ir.Vec4:
				return gpu.FormatRGBA32Float, nil
			}
		}
	}
	return gpu.FormatUnknown, fmt.Errorf("unsupported vertex input type %T", t)
}

// reflectBindings lists the group 0 bindings the module declares, sorted.
func reflectBindings(module *ir.Module) []uint32 {
	var out []uint32
	for _, g := range module.GlobalVariables {
		if g.Binding == nil || g.Binding.Group != 0 {
			continue
		}
		out = append(out, g.Binding.Binding)
	}
	slices.Sort(out)
	return slices.Compact(out)
}
