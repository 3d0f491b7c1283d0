package cldnn

import "fmt"

// DataType is the element type of a tensor.
type DataType int

const (
	DataTypeF32 DataType = iota
	DataTypeF16
	DataTypeI8
	DataTypeU8
	DataTypeI32
	DataTypeI64
	// DataTypeBinary packs 32 single-bit elements per word; it is the input
	// element type of binary convolutions.
	DataTypeBinary
)

var dataTypeNames = map[DataType]string{
	DataTypeF32:    "f32",
	DataTypeF16:    "f16",
	DataTypeI8:     "i8",
	DataTypeU8:     "u8",
	DataTypeI32:    "i32",
	DataTypeI64:    "i64",
	DataTypeBinary: "bin",
}

func (dt DataType) String() string {
	if name, ok := dataTypeNames[dt]; ok {
		return name
	}
	return "data_type(?)"
}

// Shape holds the logical dimensions of a tensor: batch, feature and up to
// three spatial dimensions (x, y, z). Unused spatial dimensions are 1.
// Shape is comparable, so layouts can be used directly as map keys.
type Shape struct {
	Batch   int
	Feature int
	Spatial [3]int
}

// NewShape builds a shape from batch, feature and the given spatial sizes
// in x, y, z order. Missing spatial sizes default to 1.
func NewShape(batch, feature int, spatial ...int) Shape {
	s := Shape{Batch: batch, Feature: feature, Spatial: [3]int{1, 1, 1}}
	for i, dim := range spatial {
		if i >= len(s.Spatial) {
			break
		}
		s.Spatial[i] = dim
	}
	return s
}

// SpatialX returns the innermost spatial size.
func (s Shape) SpatialX() int { return s.Spatial[0] }

// SpatialY returns the second spatial size.
func (s Shape) SpatialY() int { return s.Spatial[1] }

// SpatialZ returns the third spatial size.
func (s Shape) SpatialZ() int { return s.Spatial[2] }

// Count returns the number of elements described by the shape.
func (s Shape) Count() int {
	return s.Batch * s.Feature * s.Spatial[0] * s.Spatial[1] * s.Spatial[2]
}

func (s Shape) String() string {
	return fmt.Sprintf("[b=%d,f=%d,x=%d,y=%d,z=%d]",
		s.Batch, s.Feature, s.Spatial[0], s.Spatial[1], s.Spatial[2])
}

// Layout is the full description of a node's output memory: element type,
// format and logical shape.
type Layout struct {
	DataType DataType
	Format   Format
	Shape    Shape
}

// Count returns the number of elements in the layout.
func (l Layout) Count() int {
	return l.Shape.Count()
}

func (l Layout) String() string {
	return fmt.Sprintf("%s:%s:%s", l.DataType, l.Format, l.Shape)
}
