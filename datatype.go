package mdtiff

import "github.com/hupe1980/mdtiff/internal/dtype"

// DataType identifies the sample type of an array.
type DataType = dtype.Type

// Supported sample data types. Complex integer buffers are passed as
// interleaved scalar pairs; CFloat32/CFloat64 use []complex64/[]complex128.
const (
	Byte     = dtype.Byte
	Int16    = dtype.Int16
	UInt16   = dtype.UInt16
	Int32    = dtype.Int32
	UInt32   = dtype.UInt32
	Float32  = dtype.Float32
	Float64  = dtype.Float64
	CInt16   = dtype.CInt16
	CInt32   = dtype.CInt32
	CFloat32 = dtype.CFloat32
	CFloat64 = dtype.CFloat64
)

// DataTypeByName resolves a data type from its metadata name ("Byte",
// "Float64", ...).
func DataTypeByName(name string) (DataType, bool) {
	return dtype.ByName(name)
}
