package types

// Type descriptors for the Sara language. There are five kinds; descriptors
// compare structurally, so two Int descriptors are equal regardless of where
// they came from.

type Kind int

const (
	Invalid Kind = iota
	Char
	Int
	Float
	String
	Void
)

const (
	CharSize  = 1
	IntSize   = 4
	FloatSize = 8
	// Strings are opaque pointers to bytes.
	StringSize = 8
)

// Type is a descriptor for one of the five Sara types.
type Type struct {
	Kind Kind
}

var (
	CharType   = Type{Kind: Char}
	IntType    = Type{Kind: Int}
	FloatType  = Type{Kind: Float}
	StringType = Type{Kind: String}
	VoidType   = Type{Kind: Void}
)

func (t Type) String() string {
	switch t.Kind {
	case Char:
		return "char"
	case Int:
		return "int"
	case Float:
		return "float"
	case String:
		return "string"
	case Void:
		return "void"
	}
	return "invalid"
}

// Size returns the storage size in bytes.
func (t Type) Size() int {
	switch t.Kind {
	case Char:
		return CharSize
	case Int:
		return IntSize
	case Float:
		return FloatSize
	case String:
		return StringSize
	}
	return 0
}

func (t Type) IsValid() bool { return t.Kind != Invalid }

// IsNumeric reports whether the type participates in arithmetic.
// Strings and void do not.
func (t Type) IsNumeric() bool {
	return t.Kind == Char || t.Kind == Int || t.Kind == Float
}

// Generalize widens two numeric types following float > int > char.
// It returns the invalid type when either operand is not numeric; string
// and void never unify with anything.
func Generalize(a, b Type) Type {
	if !a.IsNumeric() || !b.IsNumeric() {
		return Type{}
	}
	if a.Kind == Float || b.Kind == Float {
		return FloatType
	}
	if a.Kind == Int || b.Kind == Int {
		return IntType
	}
	return CharType
}
