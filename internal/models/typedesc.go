package models

// TypeKind is the coarse category of a parameter type
type TypeKind int

const (
	KindPrimitive TypeKind = iota
	KindCollection
	KindComplex
)

// SpecialType marks types the runtime binds without looking at names
type SpecialType int

const (
	SpecialNone SpecialType = iota
	SpecialExecutionContext
	SpecialCancellation
	SpecialByteStream
	SpecialFormCollection
	SpecialFormFile
	SpecialFormFiles
)

// String returns the special type name
func (s SpecialType) String() string {
	switch s {
	case SpecialExecutionContext:
		return "ExecutionContext"
	case SpecialCancellation:
		return "Cancellation"
	case SpecialByteStream:
		return "ByteStream"
	case SpecialFormCollection:
		return "FormCollection"
	case SpecialFormFile:
		return "FormFile"
	case SpecialFormFiles:
		return "FormFiles"
	default:
		return "None"
	}
}

// TypeShape tells whether a complex type is a struct, an interface or something else
type TypeShape int

const (
	ShapeOther TypeShape = iota
	ShapeStruct
	ShapeInterface
)

// TypeDescriptor is the resolved description of a parameter type.
// All predicates are filled in by extraction; classification never looks at source.
type TypeDescriptor struct {
	Name          string          // source spelling, e.g. "int", "[]string", "Filter", "uuid.UUID"
	Kind          TypeKind        // primitive, collection or complex
	Elem          *TypeDescriptor // element type for collections
	Special       SpecialType     // framework special case, if any
	WellKnown     bool            // parseable value type such as time.Time or uuid.UUID
	ParseContract string          // name of the TryParse function, empty when absent
	Shape         TypeShape       // struct/interface for complex types
	Constructor   *Constructor    // public constructor, nil when absent
	ExpandMarked  bool            // type is itself marked for expansion
}

// Primitive builds a descriptor for a primitive type
func Primitive(name string) TypeDescriptor {
	return TypeDescriptor{Name: name, Kind: KindPrimitive}
}

// CollectionOf builds a descriptor for a slice of elem
func CollectionOf(elem TypeDescriptor) TypeDescriptor {
	e := elem
	return TypeDescriptor{Name: "[]" + elem.Name, Kind: KindCollection, Elem: &e}
}

// Complex builds a descriptor for a named complex type
func Complex(name string, shape TypeShape) TypeDescriptor {
	return TypeDescriptor{Name: name, Kind: KindComplex, Shape: shape}
}

// IsPrimitive reports whether the type is a primitive
func (t TypeDescriptor) IsPrimitive() bool {
	return t.Kind == KindPrimitive
}

// IsString reports whether the type is the string primitive
func (t TypeDescriptor) IsString() bool {
	return t.Kind == KindPrimitive && t.Name == "string"
}

// IsPrimitiveCollection reports whether the type is a collection of primitives
func (t TypeDescriptor) IsPrimitiveCollection() bool {
	return t.Kind == KindCollection && t.Elem != nil && t.Elem.Kind == KindPrimitive
}

// HasParseContract reports whether a TryParse function exists for the type
func (t TypeDescriptor) HasParseContract() bool {
	return t.ParseContract != ""
}

// IsStruct reports whether the type is a struct
func (t TypeDescriptor) IsStruct() bool {
	return t.Kind == KindComplex && t.Shape == ShapeStruct
}
