package gpu

// Shader parameters live in WGSL bind group 0. Each register class of the
// immediate context gets its own range of binding numbers so that a vertex
// stage constant buffer in slot 0 and a pixel stage constant buffer in slot 0
// do not collide.
const (
	SlotsPerClass = 4

	VSConstantBase uint32 = 0
	PSConstantBase uint32 = VSConstantBase + SlotsPerClass
	PSResourceBase uint32 = PSConstantBase + SlotsPerClass
	PSSamplerBase  uint32 = PSResourceBase + SlotsPerClass
)

// BindingClass is a register class of the immediate context.
type BindingClass int

const (
	ClassVSConstant BindingClass = iota
	ClassPSConstant
	ClassPSResource
	ClassPSSampler
)

// Binding returns the WGSL binding number for a slot of a class.
func Binding(class BindingClass, slot uint32) uint32 {
	switch class {
	case ClassPSConstant:
		return PSConstantBase + slot
	case ClassPSResource:
		return PSResourceBase + slot
	case ClassPSSampler:
		return PSSamplerBase + slot
	}
	return VSConstantBase + slot
}

// ClassOf is the inverse of Binding.
func ClassOf(binding uint32) (BindingClass, uint32) {
	return BindingClass(binding / SlotsPerClass), binding % SlotsPerClass
}
