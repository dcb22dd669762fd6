package blob

import "fmt"

// DType identifies the element type of a blob buffer.
type DType int

const (
	Float32 DType = iota
	Int32
)

// String returns the lowercase name of the element type.
func (d DType) String() string {
	switch d {
	case Float32:
		return "float32"
	case Int32:
		return "int32"
	default:
		return fmt.Sprintf("dtype(%d)", int(d))
	}
}

// Blob is one typed, shaped buffer. Exactly one of Float32s or Int32s is
// populated, matching DType. The first shape dimension is the batch axis.
type Blob struct {
	DType    DType
	Shape    []int
	Float32s []float32
	Int32s   []int32
}

// Len returns the number of elements implied by the shape.
func (b Blob) Len() int {
	if len(b.Shape) == 0 {
		return 0
	}
	n := 1
	for _, d := range b.Shape {
		n *= d
	}
	return n
}

// Field describes one named buffer in a schema.
type Field struct {
	Name  string
	DType DType
	Rank  int
}

// Schema is the ordered, fixed set of blob names a pipeline emits.
type Schema []Field

// Names returns the blob names in schema order.
func (s Schema) Names() []string {
	names := make([]string, len(s))
	for i, f := range s {
		names[i] = f.Name
	}
	return names
}

// Field looks up a field by name.
func (s Schema) Field(name string) (Field, bool) {
	for _, f := range s {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// Minibatch is one unit of training data: a fixed-schema collection of
// named buffers. Treat as immutable after construction.
type Minibatch map[string]Blob

// Conforms reports whether the minibatch matches the schema exactly:
// same name set, and per name the declared element type and rank.
func (m Minibatch) Conforms(s Schema) error {
	if len(m) != len(s) {
		return fmt.Errorf("blob count %d, schema expects %d", len(m), len(s))
	}
	for _, f := range s {
		b, ok := m[f.Name]
		if !ok {
			return fmt.Errorf("missing blob %q", f.Name)
		}
		if b.DType != f.DType {
			return fmt.Errorf("blob %q: dtype %s, schema expects %s", f.Name, b.DType, f.DType)
		}
		if len(b.Shape) != f.Rank {
			return fmt.Errorf("blob %q: rank %d, schema expects %d", f.Name, len(b.Shape), f.Rank)
		}
	}
	return nil
}
