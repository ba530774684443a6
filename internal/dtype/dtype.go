// Package dtype defines the sample data types an array can hold and the
// conversion between typed Go slices and the little-endian wire layout used
// by the container.
package dtype

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Type identifies a sample data type.
type Type uint8

const (
	Unknown Type = iota
	Byte
	Int16
	UInt16
	Int32
	UInt32
	Float32
	Float64
	CInt16
	CInt32
	CFloat32
	CFloat64
)

var names = map[Type]string{
	Byte:     "Byte",
	Int16:    "Int16",
	UInt16:   "UInt16",
	Int32:    "Int32",
	UInt32:   "UInt32",
	Float32:  "Float32",
	Float64:  "Float64",
	CInt16:   "CInt16",
	CInt32:   "CInt32",
	CFloat32: "CFloat32",
	CFloat64: "CFloat64",
}

func (t Type) String() string {
	if s, ok := names[t]; ok {
		return s
	}
	return "Unknown"
}

// ByName resolves the textual form used in metadata records.
func ByName(name string) (Type, bool) {
	for t, s := range names {
		if s == name {
			return t, true
		}
	}
	return Unknown, false
}

// Size returns the size of one sample in bytes. Complex types count both
// components.
func (t Type) Size() int {
	switch t {
	case Byte:
		return 1
	case Int16, UInt16:
		return 2
	case Int32, UInt32, Float32, CInt16:
		return 4
	case Float64, CFloat32, CInt32:
		return 8
	case CFloat64:
		return 16
	default:
		return 0
	}
}

// Bits returns the sample size in bits, as stored in the container.
func (t Type) Bits() int { return t.Size() * 8 }

// IsComplex reports whether samples carry two components.
func (t Type) IsComplex() bool {
	switch t {
	case CInt16, CInt32, CFloat32, CFloat64:
		return true
	}
	return false
}

// IsInteger reports whether the component type is integral.
func (t Type) IsInteger() bool {
	switch t {
	case Byte, Int16, UInt16, Int32, UInt32, CInt16, CInt32:
		return true
	}
	return false
}

// ComponentSize returns the size in bytes of a single scalar component.
// For non-complex types this equals Size.
func (t Type) ComponentSize() int {
	if t.IsComplex() {
		return t.Size() / 2
	}
	return t.Size()
}

// TIFF sample format codes.
const (
	FormatUInt          = 1
	FormatInt           = 2
	FormatIEEEFP        = 3
	FormatComplexInt    = 5
	FormatComplexIEEEFP = 6
)

// SampleFormat returns the container's sample format code for t.
func (t Type) SampleFormat() uint16 {
	switch t {
	case Int16, Int32:
		return FormatInt
	case Float32, Float64:
		return FormatIEEEFP
	case CInt16, CInt32:
		return FormatComplexInt
	case CFloat32, CFloat64:
		return FormatComplexIEEEFP
	default:
		return FormatUInt
	}
}

// FromSampleFormat maps a (bits per sample, sample format) pair back to a
// Type, mirroring SampleFormat and Bits.
func FromSampleFormat(bits int, format uint16) (Type, bool) {
	switch bits {
	case 8:
		if format == FormatUInt {
			return Byte, true
		}
	case 16:
		if format == FormatInt {
			return Int16, true
		}
		return UInt16, true
	case 32:
		switch format {
		case FormatComplexInt:
			return CInt16, true
		case FormatIEEEFP:
			return Float32, true
		case FormatInt:
			return Int32, true
		default:
			return UInt32, true
		}
	case 64:
		switch format {
		case FormatIEEEFP:
			return Float64, true
		case FormatComplexIEEEFP:
			return CFloat32, true
		case FormatComplexInt:
			return CInt32, true
		}
	case 128:
		if format == FormatComplexIEEEFP {
			return CFloat64, true
		}
	}
	return Unknown, false
}

// Count returns the number of samples held by the typed slice v.
// Complex integer samples are passed as interleaved scalar pairs.
func Count(t Type, v any) (int, error) {
	switch t {
	case Byte:
		if s, ok := v.([]byte); ok {
			return len(s), nil
		}
	case Int16:
		if s, ok := v.([]int16); ok {
			return len(s), nil
		}
	case UInt16:
		if s, ok := v.([]uint16); ok {
			return len(s), nil
		}
	case Int32:
		if s, ok := v.([]int32); ok {
			return len(s), nil
		}
	case UInt32:
		if s, ok := v.([]uint32); ok {
			return len(s), nil
		}
	case Float32:
		if s, ok := v.([]float32); ok {
			return len(s), nil
		}
	case Float64:
		if s, ok := v.([]float64); ok {
			return len(s), nil
		}
	case CInt16:
		if s, ok := v.([]int16); ok {
			if len(s)%2 != 0 {
				return 0, fmt.Errorf("dtype: CInt16 slice length %d is not a multiple of 2", len(s))
			}
			return len(s) / 2, nil
		}
	case CInt32:
		if s, ok := v.([]int32); ok {
			if len(s)%2 != 0 {
				return 0, fmt.Errorf("dtype: CInt32 slice length %d is not a multiple of 2", len(s))
			}
			return len(s) / 2, nil
		}
	case CFloat32:
		if s, ok := v.([]complex64); ok {
			return len(s), nil
		}
	case CFloat64:
		if s, ok := v.([]complex128); ok {
			return len(s), nil
		}
	}
	return 0, fmt.Errorf("dtype: incompatible buffer %T for %s", v, t)
}

// Marshal converts a typed slice to its little-endian byte layout.
func Marshal(t Type, v any) ([]byte, error) {
	n, err := Count(t, v)
	if err != nil {
		return nil, err
	}
	out := make([]byte, n*t.Size())
	switch t {
	case Byte:
		copy(out, v.([]byte))
	case Int16:
		for i, x := range v.([]int16) {
			binary.LittleEndian.PutUint16(out[i*2:], uint16(x))
		}
	case UInt16:
		for i, x := range v.([]uint16) {
			binary.LittleEndian.PutUint16(out[i*2:], x)
		}
	case Int32:
		for i, x := range v.([]int32) {
			binary.LittleEndian.PutUint32(out[i*4:], uint32(x))
		}
	case UInt32:
		for i, x := range v.([]uint32) {
			binary.LittleEndian.PutUint32(out[i*4:], x)
		}
	case Float32:
		for i, x := range v.([]float32) {
			binary.LittleEndian.PutUint32(out[i*4:], math.Float32bits(x))
		}
	case Float64:
		for i, x := range v.([]float64) {
			binary.LittleEndian.PutUint64(out[i*8:], math.Float64bits(x))
		}
	case CInt16:
		for i, x := range v.([]int16) {
			binary.LittleEndian.PutUint16(out[i*2:], uint16(x))
		}
	case CInt32:
		for i, x := range v.([]int32) {
			binary.LittleEndian.PutUint32(out[i*4:], uint32(x))
		}
	case CFloat32:
		for i, x := range v.([]complex64) {
			binary.LittleEndian.PutUint32(out[i*8:], math.Float32bits(real(x)))
			binary.LittleEndian.PutUint32(out[i*8+4:], math.Float32bits(imag(x)))
		}
	case CFloat64:
		for i, x := range v.([]complex128) {
			binary.LittleEndian.PutUint64(out[i*16:], math.Float64bits(real(x)))
			binary.LittleEndian.PutUint64(out[i*16+8:], math.Float64bits(imag(x)))
		}
	}
	return out, nil
}

// Unmarshal fills a typed slice from its little-endian byte layout.
// The slice must hold exactly len(data)/t.Size() samples.
func Unmarshal(t Type, data []byte, v any) error {
	n, err := Count(t, v)
	if err != nil {
		return err
	}
	if n*t.Size() != len(data) {
		return fmt.Errorf("dtype: buffer holds %d samples, data holds %d", n, len(data)/t.Size())
	}
	switch t {
	case Byte:
		copy(v.([]byte), data)
	case Int16:
		s := v.([]int16)
		for i := range s {
			s[i] = int16(binary.LittleEndian.Uint16(data[i*2:]))
		}
	case UInt16:
		s := v.([]uint16)
		for i := range s {
			s[i] = binary.LittleEndian.Uint16(data[i*2:])
		}
	case Int32:
		s := v.([]int32)
		for i := range s {
			s[i] = int32(binary.LittleEndian.Uint32(data[i*4:]))
		}
	case UInt32:
		s := v.([]uint32)
		for i := range s {
			s[i] = binary.LittleEndian.Uint32(data[i*4:])
		}
	case Float32:
		s := v.([]float32)
		for i := range s {
			s[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
		}
	case Float64:
		s := v.([]float64)
		for i := range s {
			s[i] = math.Float64frombits(binary.LittleEndian.Uint64(data[i*8:]))
		}
	case CInt16:
		s := v.([]int16)
		for i := range s {
			s[i] = int16(binary.LittleEndian.Uint16(data[i*2:]))
		}
	case CInt32:
		s := v.([]int32)
		for i := range s {
			s[i] = int32(binary.LittleEndian.Uint32(data[i*4:]))
		}
	case CFloat32:
		s := v.([]complex64)
		for i := range s {
			re := math.Float32frombits(binary.LittleEndian.Uint32(data[i*8:]))
			im := math.Float32frombits(binary.LittleEndian.Uint32(data[i*8+4:]))
			s[i] = complex(re, im)
		}
	case CFloat64:
		s := v.([]complex128)
		for i := range s {
			re := math.Float64frombits(binary.LittleEndian.Uint64(data[i*16:]))
			im := math.Float64frombits(binary.LittleEndian.Uint64(data[i*16+8:]))
			s[i] = complex(re, im)
		}
	}
	return nil
}
