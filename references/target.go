package references

import "slices"

// TargetType names the kind of spec object a reference is expected to resolve to.
// The zero value means no expectation.
type TargetType string

const (
	TargetNone           TargetType = ""
	TargetSchema         TargetType = "Schema"
	TargetResponse       TargetType = "Response"
	TargetParameter      TargetType = "Parameter"
	TargetExample        TargetType = "Example"
	TargetRequestBody    TargetType = "RequestBody"
	TargetHeader         TargetType = "Header"
	TargetSecurityScheme TargetType = "SecurityScheme"
	TargetLink           TargetType = "Link"
	TargetCallback       TargetType = "Callback"
	TargetPathItem       TargetType = "PathItem"
)

var targetTypes = []TargetType{
	TargetSchema,
	TargetResponse,
	TargetParameter,
	TargetExample,
	TargetRequestBody,
	TargetHeader,
	TargetSecurityScheme,
	TargetLink,
	TargetCallback,
	TargetPathItem,
}

// TargetTypes returns the closed set of resolvable object kinds.
func TargetTypes() []TargetType {
	return slices.Clone(targetTypes)
}

// IsValid reports whether t is TargetNone or one of the resolvable object kinds.
func (t TargetType) IsValid() bool {
	return t == TargetNone || slices.Contains(targetTypes, t)
}

func (t TargetType) String() string {
	return string(t)
}
