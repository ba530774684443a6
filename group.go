package mdtiff

import (
	"fmt"
	"math"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/hupe1980/mdtiff/codec"
)

// Group is the root container of dimensions, indexing variables and the data
// array. A container file holds exactly one data array; 1D arrays exist only
// as indexing variables.
type Group struct {
	ds       *Dataset
	dims     []*Dimension
	dimNames map[string]*Dimension
	ivars    map[string]*IndexingVariable
	array    *Array
}

func newGroup(ds *Dataset) *Group {
	return &Group{
		ds:       ds,
		dimNames: make(map[string]*Dimension),
		ivars:    make(map[string]*IndexingVariable),
	}
}

// Dimensions returns the dimensions in creation order.
func (g *Group) Dimensions() []*Dimension {
	return append([]*Dimension(nil), g.dims...)
}

// ArrayNames lists the data array followed by the indexing variables.
func (g *Group) ArrayNames() []string {
	var names []string
	if g.array != nil {
		names = append(names, g.array.name)
	}
	for _, d := range g.dims {
		if d.indexing != nil {
			names = append(names, d.indexing.name)
		}
	}
	return names
}

// OpenArray returns the data array by name.
func (g *Group) OpenArray(name string) (*Array, error) {
	if g.array == nil || g.array.name != name {
		return nil, fmt.Errorf("array %q: %w", name, ErrNotFound)
	}
	return g.array, nil
}

// CreateDimension registers a new dimension. typ and direction may be empty.
func (g *Group) CreateDimension(name, typ, direction string, size uint64) (*Dimension, error) {
	if err := g.ds.mutable(); err != nil {
		return nil, err
	}
	if name == "" {
		return nil, fmt.Errorf("empty dimension name not supported")
	}
	if size == 0 {
		return nil, fmt.Errorf("dimension %q must have a non-zero size", name)
	}
	if _, ok := g.dimNames[name]; ok {
		return nil, fmt.Errorf("a dimension named %q already exists", name)
	}
	d := &Dimension{name: name, typ: typ, direction: direction, size: size}
	g.dims = append(g.dims, d)
	g.dimNames[name] = d
	return d, nil
}

// CreateIndexingVariable creates a numeric 1D coordinate array over dim.
// Complex data types are not supported for coordinates.
func (g *Group) CreateIndexingVariable(name string, dim *Dimension, dt DataType) (*IndexingVariable, error) {
	if err := g.checkIndexingVariable(name, dim); err != nil {
		return nil, err
	}
	if dt.Size() == 0 || dt.IsComplex() {
		return nil, fmt.Errorf("indexing variable %q: unsupported data type %s", name, dt)
	}
	iv := &IndexingVariable{name: name, dim: dim, dt: dt, nums: make([]float64, dim.size)}
	g.ivars[name] = iv
	return iv, nil
}

// CreateStringIndexingVariable creates a string-valued 1D coordinate array
// over dim.
func (g *Group) CreateStringIndexingVariable(name string, dim *Dimension) (*IndexingVariable, error) {
	if err := g.checkIndexingVariable(name, dim); err != nil {
		return nil, err
	}
	iv := &IndexingVariable{name: name, dim: dim, isString: true, strs: make([]string, dim.size)}
	g.ivars[name] = iv
	return iv, nil
}

func (g *Group) checkIndexingVariable(name string, dim *Dimension) error {
	if err := g.ds.mutable(); err != nil {
		return err
	}
	if name == "" {
		return fmt.Errorf("empty array name not supported")
	}
	if dim == nil {
		return fmt.Errorf("indexing variable %q needs a dimension", name)
	}
	if _, ok := g.ivars[name]; ok {
		return ErrArrayExists
	}
	if g.array != nil && g.array.name == name {
		return ErrArrayExists
	}
	return nil
}

// CreateArray creates the data array over at least two dimensions. The two
// trailing dimensions form the tiled 2D planes; all leading dimensions map
// to successive directories.
func (g *Group) CreateArray(name string, dims []*Dimension, dt DataType, optFns ...ArrayOption) (*Array, error) {
	if err := g.ds.mutable(); err != nil {
		return nil, err
	}
	if name == "" {
		return nil, fmt.Errorf("empty array name not supported")
	}
	if g.array != nil {
		return nil, ErrArrayExists
	}
	if _, ok := g.ivars[name]; ok {
		return nil, ErrArrayExists
	}
	if len(dims) < 2 {
		return nil, fmt.Errorf("array %q needs at least 2 dimensions, got %d", name, len(dims))
	}
	for _, d := range dims {
		if d == nil {
			return nil, fmt.Errorf("array %q has a nil dimension", name)
		}
	}
	if dt.Size() == 0 {
		return nil, fmt.Errorf("array %q: unsupported data type", name)
	}

	n := len(dims)
	if dims[n-2].size > math.MaxUint32 || dims[n-1].size > math.MaxUint32 {
		return nil, fmt.Errorf("array %q: plane dimensions exceed the per-axis sample limit", name)
	}

	o := applyArrayOptions(optFns)

	blockSize := make([]uint64, n)
	for i := range blockSize[:n-2] {
		blockSize[i] = 1
	}
	blockSize[n-2] = 256
	blockSize[n-1] = 256
	switch len(o.blockSize) {
	case 0:
	case 2:
		blockSize[n-2] = o.blockSize[0]
		blockSize[n-1] = o.blockSize[1]
	case n:
		copy(blockSize, o.blockSize)
	default:
		return nil, fmt.Errorf("array %q: block size needs 2 or %d entries, got %d", name, n, len(o.blockSize))
	}
	for i, bs := range blockSize {
		if bs == 0 || bs > math.MaxUint32 {
			return nil, fmt.Errorf("array %q: invalid block extent %d for dimension %q", name, bs, dims[i].name)
		}
	}

	cod, err := codec.ByName(o.compress, codec.Options{
		ZLevel:     o.zLevel,
		ZSTDLevel:  o.zstdLevel,
		LZMAPreset: o.lzmaPreset,
	})
	if err != nil {
		return nil, err
	}

	switch o.predictor {
	case 1:
	case 2:
		if !dt.IsInteger() {
			return nil, fmt.Errorf("array %q: predictor 2 requires an integer data type", name)
		}
		switch cod.Code() {
		case codec.CodeLZW, codec.CodeDeflate, codec.CodeZSTD:
		default:
			return nil, fmt.Errorf("array %q: predictor 2 requires LZW, DEFLATE or ZSTD", name)
		}
	default:
		return nil, fmt.Errorf("array %q: unsupported predictor %d", name, o.predictor)
	}

	a := &Array{
		ds:        g.ds,
		name:      name,
		dims:      append([]*Dimension(nil), dims...),
		dt:        dt,
		blockSize: blockSize,
		cod:       cod,
		predictor: o.predictor,
		attrs:     make(map[string]*Attribute),
	}
	if _, err := directoryCount(a.dims); err != nil {
		return nil, fmt.Errorf("array %q: %w", name, err)
	}
	a.initPlane()
	a.cache, err = lru.New[tileKey, []byte](g.ds.opts.cacheTiles)
	if err != nil {
		return nil, err
	}

	g.array = a
	return a, nil
}
