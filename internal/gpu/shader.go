package gpu

import "fmt"

// ShaderStage identifies a programmable stage.
type ShaderStage int

const (
	StageVertex ShaderStage = iota
	StagePixel
)

func (s ShaderStage) String() string {
	switch s {
	case StageVertex:
		return "vertex"
	case StagePixel:
		return "pixel"
	}
	return fmt.Sprintf("ShaderStage(%d)", int(s))
}

// Profile returns the shader model 5.0 profile name for the stage.
func (s ShaderStage) Profile() string {
	if s == StagePixel {
		return "ps_5_0"
	}
	return "vs_5_0"
}

// ShaderCode is a compiled shader stage ready for device creation.
type ShaderCode struct {
	Name    string
	Stage   ShaderStage
	Entry   string
	Profile string
	Source  string
	SPIRV   []byte

	// Inputs lists the vertex stage input formats ordered by location.
	// Empty for pixel stages.
	Inputs []Format

	// Bindings lists the group 0 binding numbers the stage declares.
	Bindings []uint32
}

// AppendAligned places an input element directly after the previous one.
const AppendAligned = ^uint32(0)

// InputElement describes one vertex attribute. Elements are matched to
// shader inputs by position: element i feeds @location(i).
type InputElement struct {
	Semantic      string
	SemanticIndex uint32
	Format        Format
	Slot          uint32
	Offset        uint32
}

// ResolveLayout replaces AppendAligned offsets with concrete byte offsets and
// returns the resolved elements and the vertex stride.
func ResolveLayout(elements []InputElement) ([]InputElement, uint32, error) {
	if len(elements) == 0 {
		return nil, 0, fmt.Errorf("%w: empty input layout", ErrInvalidDescriptor)
	}
	out := make([]InputElement, len(elements))
	var next uint32
	for i, e := range elements {
		size := e.Format.Size()
		if size == 0 {
			return nil, 0, fmt.Errorf("%w: element %s has format %v", ErrInvalidDescriptor, e.Semantic, e.Format)
		}
		if e.Offset == AppendAligned {
			e.Offset = next
		}
		if e.Offset < next {
			return nil, 0, fmt.Errorf("%w: element %s at offset %d overlaps previous element", ErrInvalidDescriptor, e.Semantic, e.Offset)
		}
		next = e.Offset + size
		out[i] = e
	}
	return out, next, nil
}

// CheckLayout verifies that elements feed exactly the inputs the vertex stage
// declares, location by location.
func CheckLayout(elements []InputElement, vs *ShaderCode) error {
	if vs == nil || vs.Stage != StageVertex {
		return fmt.Errorf("%w: input layout needs a vertex stage", ErrInputLayoutMismatch)
	}
	if len(elements) != len(vs.Inputs) {
		return fmt.Errorf("%w: %d elements for %d inputs of %s", ErrInputLayoutMismatch, len(elements), len(vs.Inputs), vs.Entry)
	}
	for i, e := range elements {
		if e.Format != vs.Inputs[i] {
			return fmt.Errorf("%w: %s is %v, location %d expects %v", ErrInputLayoutMismatch, e.Semantic, e.Format, i, vs.Inputs[i])
		}
	}
	return nil
}
