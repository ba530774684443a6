package mdtiff

import "fmt"

// Dimension describes one axis of an array.
type Dimension struct {
	name      string
	typ       string
	direction string
	size      uint64
	indexing  *IndexingVariable
}

// Name returns the dimension name.
func (d *Dimension) Name() string { return d.name }

// Type returns the axis type, e.g. "HORIZONTAL_X". Empty when unknown.
func (d *Dimension) Type() string { return d.typ }

// Direction returns the axis direction, e.g. "EAST". Empty when unknown.
func (d *Dimension) Direction() string { return d.direction }

// Size returns the number of samples along the dimension.
func (d *Dimension) Size() uint64 { return d.size }

// IndexingVariable returns the attached coordinate variable, or nil.
func (d *Dimension) IndexingVariable() *IndexingVariable { return d.indexing }

// SetIndexingVariable attaches a coordinate variable. It can be set once and
// must have been created over this dimension.
func (d *Dimension) SetIndexingVariable(iv *IndexingVariable) error {
	if iv == nil {
		return fmt.Errorf("nil indexing variable")
	}
	if iv.dim != d {
		return fmt.Errorf("indexing variable %q is not defined over dimension %q", iv.name, d.name)
	}
	if d.indexing != nil && d.indexing != iv {
		return fmt.Errorf("dimension %q already has an indexing variable", d.name)
	}
	d.indexing = iv
	return nil
}

// IndexingVariable is a 1D coordinate array attached to a dimension. Values
// are held in memory and serialized into the dimension metadata record.
type IndexingVariable struct {
	name     string
	dim      *Dimension
	dt       DataType
	isString bool
	nums     []float64
	strs     []string
}

// Name returns the variable name.
func (iv *IndexingVariable) Name() string { return iv.name }

// DataType returns the declared value type. Meaningless for string-typed
// variables.
func (iv *IndexingVariable) DataType() DataType { return iv.dt }

// IsString reports whether the variable holds string values.
func (iv *IndexingVariable) IsString() bool { return iv.isString }

// SetValues sets the coordinate values. len(vals) must equal the dimension
// size.
func (iv *IndexingVariable) SetValues(vals []float64) error {
	if iv.isString {
		return fmt.Errorf("indexing variable %q is string-typed", iv.name)
	}
	if uint64(len(vals)) != iv.dim.size {
		return &ErrShapeMismatch{Expected: int(iv.dim.size), Actual: len(vals)}
	}
	iv.nums = append([]float64(nil), vals...)
	return nil
}

// SetStringValues sets the coordinate values of a string-typed variable.
func (iv *IndexingVariable) SetStringValues(vals []string) error {
	if !iv.isString {
		return fmt.Errorf("indexing variable %q is numeric", iv.name)
	}
	if uint64(len(vals)) != iv.dim.size {
		return &ErrShapeMismatch{Expected: int(iv.dim.size), Actual: len(vals)}
	}
	iv.strs = append([]string(nil), vals...)
	return nil
}

// Values returns a copy of the numeric coordinate values.
func (iv *IndexingVariable) Values() []float64 {
	return append([]float64(nil), iv.nums...)
}

// StringValues returns a copy of the string coordinate values.
func (iv *IndexingVariable) StringValues() []string {
	return append([]string(nil), iv.strs...)
}
