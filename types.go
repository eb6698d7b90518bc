package params

import (
	"fmt"
	"strings"
)

// Kind identifies the container shape of a parameter value.
type Kind int

const (
	// KindScalar holds a single element value.
	KindScalar Kind = iota
	// KindVector holds an ordered list of element values.
	KindVector
	// KindMap holds key/value pairs. Keys are String or Int.
	KindMap
)

func (k Kind) String() string {
	switch k {
	case KindScalar:
		return "scalar"
	case KindVector:
		return "vector"
	case KindMap:
		return "map"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// ParseKind converts a textual kind into a Kind.
func ParseKind(value string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "scalar":
		return KindScalar, nil
	case "vector", "list", "array":
		return KindVector, nil
	case "map", "dict":
		return KindMap, nil
	default:
		return KindScalar, fmt.Errorf("params: unsupported kind %q", value)
	}
}

// ElementType is the closed set of element types a parameter can carry.
type ElementType int

const (
	TypeString ElementType = iota + 1
	TypeInt
	TypeBool
	TypeFloat
)

func (t ElementType) String() string {
	switch t {
	case TypeString:
		return "string"
	case TypeInt:
		return "int"
	case TypeBool:
		return "bool"
	case TypeFloat:
		return "float"
	default:
		return fmt.Sprintf("type(%d)", int(t))
	}
}

// Numeric reports whether bounds apply to t.
func (t ElementType) Numeric() bool {
	return t == TypeInt || t == TypeFloat
}

func (t ElementType) valid() bool {
	switch t {
	case TypeString, TypeInt, TypeBool, TypeFloat:
		return true
	default:
		return false
	}
}

// ParseElementType maps a type name to an ElementType. Both "double" and
// "float" resolve to TypeFloat.
func ParseElementType(value string) (ElementType, error) {
	switch strings.TrimSpace(value) {
	case "std::string", "string", "str":
		return TypeString, nil
	case "int", "integer":
		return TypeInt, nil
	case "bool", "boolean":
		return TypeBool, nil
	case "float", "double":
		return TypeFloat, nil
	default:
		return 0, fmt.Errorf("params: unsupported element type %q", value)
	}
}

// TypeSpec is the parsed form of a declared parameter type.
type TypeSpec struct {
	Kind    Kind
	KeyType ElementType
	Type    ElementType
}

// ParseType accepts plain element names ("int", "double") as well as the
// container spellings "std::vector<T>" and "std::map<K,V>".
func ParseType(value string) (TypeSpec, error) {
	raw := strings.TrimSpace(value)
	open := strings.Index(raw, "<")
	if open < 0 {
		elem, err := ParseElementType(raw)
		if err != nil {
			return TypeSpec{}, err
		}
		return TypeSpec{Kind: KindScalar, Type: elem}, nil
	}
	if !strings.HasSuffix(raw, ">") {
		return TypeSpec{}, fmt.Errorf("params: malformed type %q", value)
	}
	container := strings.TrimSpace(raw[:open])
	inner := raw[open+1 : len(raw)-1]

	switch container {
	case "std::vector", "vector":
		elem, err := ParseElementType(inner)
		if err != nil {
			return TypeSpec{}, err
		}
		return TypeSpec{Kind: KindVector, Type: elem}, nil
	case "std::map", "map":
		parts := strings.SplitN(inner, ",", 2)
		if len(parts) != 2 {
			return TypeSpec{}, fmt.Errorf("params: map type %q needs key and value types", value)
		}
		key, err := ParseElementType(parts[0])
		if err != nil {
			return TypeSpec{}, err
		}
		elem, err := ParseElementType(parts[1])
		if err != nil {
			return TypeSpec{}, err
		}
		return TypeSpec{Kind: KindMap, KeyType: key, Type: elem}, nil
	default:
		return TypeSpec{}, fmt.Errorf("params: unsupported container %q", container)
	}
}

// Descriptor is the immutable schema of one parameter.
type Descriptor struct {
	Name string
	Kind Kind
	// Type is the element type; for maps it is the value type.
	Type ElementType
	// KeyType is only meaningful for KindMap.
	KeyType ElementType
	// Default is nil when the parameter must be set externally.
	Default any
	Min     *float64
	Max     *float64
	// Constant parameters are never read from, clamped against or written to
	// the store.
	Constant bool
	// GlobalScope roots the key at "/" instead of the private "~" namespace.
	GlobalScope bool
	Description string
	// Rule is an optional boolean expression checked after clamping.
	Rule string
}

// Required reports whether the descriptor has no default.
func (d Descriptor) Required() bool {
	return d.Default == nil
}

// TypeString renders the declared type in container notation.
func (d Descriptor) TypeString() string {
	switch d.Kind {
	case KindVector:
		return "vector<" + d.Type.String() + ">"
	case KindMap:
		return "map<" + d.KeyType.String() + "," + d.Type.String() + ">"
	default:
		return d.Type.String()
	}
}

// Float returns a pointer to v, handy for declaring bounds inline.
func Float(v float64) *float64 {
	return &v
}
