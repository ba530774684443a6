package mdtiff

import (
	"fmt"
	"sort"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/hupe1980/mdtiff/codec"
	"github.com/hupe1980/mdtiff/internal/tiff"
)

type tileKey struct {
	dir  int
	tile int
}

// Array is an N-dimensional typed array stored as a sequence of tiled 2D
// planes. The two trailing dimensions span the plane; every combination of
// leading (slow) dimension indices maps to one directory.
type Array struct {
	ds        *Dataset
	name      string
	dims      []*Dimension
	dt        DataType
	blockSize []uint64
	cod       codec.Codec
	predictor uint16

	attrs  map[string]*Attribute
	scale  *float64
	offset *float64
	unit   string
	nodata *float64
	srs    *SpatialRef

	structural map[string]string
	degraded   bool

	// plane geometry, derived once
	dirCount    int
	tilesAcross int
	tilesDown   int
	tilesPerDir int

	// container state
	layouts     []tiff.DirLayout
	tileOffsets [][]uint32
	tileCounts  [][]uint32
	readDirs    []*tiff.Dir
	validated   []bool
	cache       *lru.Cache[tileKey, []byte]
}

func (a *Array) initPlane() {
	n := len(a.dims)
	blockY := int(a.blockSize[n-2])
	blockX := int(a.blockSize[n-1])
	a.tilesDown = (int(a.dims[n-2].size) + blockY - 1) / blockY
	a.tilesAcross = (int(a.dims[n-1].size) + blockX - 1) / blockX
	a.tilesPerDir = a.tilesDown * a.tilesAcross
	a.dirCount, _ = directoryCount(a.dims)
}

// Name returns the array name.
func (a *Array) Name() string { return a.name }

// DataType returns the sample type.
func (a *Array) DataType() DataType { return a.dt }

// Dimensions returns the dimensions in order.
func (a *Array) Dimensions() []*Dimension {
	return append([]*Dimension(nil), a.dims...)
}

// Shape returns the size of each dimension.
func (a *Array) Shape() []uint64 {
	out := make([]uint64, len(a.dims))
	for i, d := range a.dims {
		out[i] = d.size
	}
	return out
}

// BlockSize returns the block extent of each dimension. Slow dimensions
// default to an extent of 1.
func (a *Array) BlockSize() []uint64 {
	return append([]uint64(nil), a.blockSize...)
}

// StructuralInfo reports the storage traits of a reopened array, such as
// COMPRESSION and PREDICTOR. Empty for arrays created in this session.
func (a *Array) StructuralInfo() map[string]string {
	out := make(map[string]string, len(a.structural))
	for k, v := range a.structural {
		out[k] = v
	}
	return out
}

// SetScale sets the value scaling factor. Must be called before the schema
// is crystalized.
func (a *Array) SetScale(v float64) error {
	if err := a.ds.mutable(); err != nil {
		return err
	}
	a.scale = &v
	return nil
}

// Scale returns the scaling factor, if set.
func (a *Array) Scale() (float64, bool) {
	if a.scale == nil {
		return 1, false
	}
	return *a.scale, true
}

// SetOffset sets the value offset. Must be called before the schema is
// crystalized.
func (a *Array) SetOffset(v float64) error {
	if err := a.ds.mutable(); err != nil {
		return err
	}
	a.offset = &v
	return nil
}

// Offset returns the value offset, if set.
func (a *Array) Offset() (float64, bool) {
	if a.offset == nil {
		return 0, false
	}
	return *a.offset, true
}

// SetUnit sets the value unit. Must be called before the schema is
// crystalized.
func (a *Array) SetUnit(unit string) error {
	if err := a.ds.mutable(); err != nil {
		return err
	}
	a.unit = unit
	return nil
}

// Unit returns the value unit, or the empty string.
func (a *Array) Unit() string { return a.unit }

// SetNoDataValue sets the fill value. NaN is allowed. Must be called before
// the schema is crystalized.
func (a *Array) SetNoDataValue(v float64) error {
	if err := a.ds.mutable(); err != nil {
		return err
	}
	a.nodata = &v
	return nil
}

// NoDataValue returns the fill value, if set.
func (a *Array) NoDataValue() (float64, bool) {
	if a.nodata == nil {
		return 0, false
	}
	return *a.nodata, true
}

// SetSpatialRef attaches a coordinate reference system. Must be called
// before the schema is crystalized.
func (a *Array) SetSpatialRef(srs *SpatialRef) error {
	if err := a.ds.mutable(); err != nil {
		return err
	}
	a.srs = srs
	return nil
}

// SpatialRef returns the coordinate reference system, or nil.
func (a *Array) SpatialRef() *SpatialRef { return a.srs }

// CreateAttribute creates a numeric attribute with count slots. count 0
// declares a scalar.
func (a *Array) CreateAttribute(name string, dt DataType, count int) (*Attribute, error) {
	if err := a.checkAttribute(name, count); err != nil {
		return nil, err
	}
	if dt.Size() == 0 {
		return nil, fmt.Errorf("attribute %q: unsupported data type", name)
	}
	attr := newNumericAttribute(name, dt, count)
	a.attrs[name] = attr
	return attr, nil
}

// CreateStringAttribute creates a string attribute with count slots. count 0
// declares a scalar. Slots never written serialize as the literal "null".
func (a *Array) CreateStringAttribute(name string, count int) (*Attribute, error) {
	if err := a.checkAttribute(name, count); err != nil {
		return nil, err
	}
	attr := newStringAttribute(name, count)
	a.attrs[name] = attr
	return attr, nil
}

func (a *Array) checkAttribute(name string, count int) error {
	if err := a.ds.mutable(); err != nil {
		return err
	}
	if name == "" {
		return fmt.Errorf("empty attribute name not supported")
	}
	if count < 0 {
		return fmt.Errorf("attribute %q: negative slot count", name)
	}
	if _, ok := a.attrs[name]; ok {
		return ErrAttributeExists
	}
	return nil
}

// Attribute returns a named attribute.
func (a *Array) Attribute(name string) (*Attribute, bool) {
	attr, ok := a.attrs[name]
	return attr, ok
}

// Attributes returns all attributes sorted by name.
func (a *Array) Attributes() []*Attribute {
	names := make([]string, 0, len(a.attrs))
	for name := range a.attrs {
		names = append(names, name)
	}
	sort.Strings(names)
	out := make([]*Attribute, len(names))
	for i, name := range names {
		out[i] = a.attrs[name]
	}
	return out
}
