package mdtiff

import (
	"fmt"
	"strings"
)

// Attribute is a named 0- or 1-dimensional value attached to an array.
// Attributes reopened from a file are always string-typed and hold the
// serialized literal.
type Attribute struct {
	name     string
	dt       DataType
	isString bool
	count    int
	nums     []float64
	strs     []string
	strSet   []bool
}

// Name returns the attribute name.
func (a *Attribute) Name() string { return a.name }

// DataType returns the declared value type of a numeric attribute.
func (a *Attribute) DataType() DataType { return a.dt }

// IsString reports whether the attribute holds string values.
func (a *Attribute) IsString() bool { return a.isString }

// Len returns the number of value slots. A scalar attribute has one.
func (a *Attribute) Len() int {
	if a.count == 0 {
		return 1
	}
	return a.count
}

// SetValues sets all slots of a numeric attribute.
func (a *Attribute) SetValues(vals ...float64) error {
	if a.isString {
		return fmt.Errorf("attribute %q is string-typed", a.name)
	}
	if len(vals) != a.Len() {
		return &ErrShapeMismatch{Expected: a.Len(), Actual: len(vals)}
	}
	copy(a.nums, vals)
	return nil
}

// SetStrings sets all slots of a string attribute.
func (a *Attribute) SetStrings(vals ...string) error {
	if !a.isString {
		return fmt.Errorf("attribute %q is numeric", a.name)
	}
	if len(vals) != a.Len() {
		return &ErrShapeMismatch{Expected: a.Len(), Actual: len(vals)}
	}
	copy(a.strs, vals)
	for i := range a.strSet {
		a.strSet[i] = true
	}
	return nil
}

// Values returns a copy of the numeric values.
func (a *Attribute) Values() []float64 {
	return append([]float64(nil), a.nums...)
}

// Strings returns a copy of the string values. Slots never written are empty.
func (a *Attribute) Strings() []string {
	return append([]string(nil), a.strs...)
}

// literal renders the attribute for the metadata record: comma-joined,
// numeric slots with 18 significant digits, unset string slots as "null".
func (a *Attribute) literal() string {
	parts := make([]string, a.Len())
	for i := range parts {
		if a.isString {
			if a.strSet[i] {
				parts[i] = a.strs[i]
			} else {
				parts[i] = "null"
			}
		} else {
			parts[i] = fmt.Sprintf("%.18g", a.nums[i])
		}
	}
	return strings.Join(parts, ",")
}

func newNumericAttribute(name string, dt DataType, count int) *Attribute {
	a := &Attribute{name: name, dt: dt, count: count}
	a.nums = make([]float64, a.Len())
	return a
}

func newStringAttribute(name string, count int) *Attribute {
	a := &Attribute{name: name, isString: true, count: count}
	a.strs = make([]string, a.Len())
	a.strSet = make([]bool, a.Len())
	return a
}
