// Package codec centralizes per-tile compression.
//
// Codec selection is a breaking-change boundary: the compression code is
// persisted in every directory of the container, and tiles written with one
// codec must decode with the same codec on any reader.
package codec

import "fmt"

// Compression codes as persisted in the container's COMPRESSION tag.
// They follow the TIFF registry; LZ4 uses a private code.
const (
	CodeNone    uint16 = 1
	CodeLZW     uint16 = 5
	CodeDeflate uint16 = 8
	CodeLZMA    uint16 = 34925
	CodeZSTD    uint16 = 50000
	CodeLZ4     uint16 = 50002
)

// Codec encodes/decodes tile payloads.
// Implementations must be safe for concurrent use.
type Codec interface {
	// Code returns the stable compression code written to the container.
	Code() uint16
	// Name returns the stable creation-option name ("DEFLATE", "ZSTD", ...).
	Name() string
	// Encode compresses one tile payload.
	Encode(src []byte) ([]byte, error)
	// Decode decompresses one tile payload. size is the expected
	// uncompressed byte count.
	Decode(src []byte, size int) ([]byte, error)
}

// Options carries write-time tuning. It never changes decode behavior.
type Options struct {
	// ZLevel is the deflate level (1-9, 0 = codec default).
	ZLevel int
	// ZSTDLevel is the zstd level (1-22, 0 = codec default).
	ZSTDLevel int
	// LZMAPreset is the lzma preset (1-9, 0 = codec default).
	LZMAPreset int
}

// ByName returns a codec by its stable creation-option name.
func ByName(name string, opts Options) (Codec, error) {
	switch name {
	case "", "NONE":
		return None{}, nil
	case "LZW":
		return LZW{}, nil
	case "DEFLATE":
		return NewDeflate(opts.ZLevel), nil
	case "ZSTD":
		return NewZSTD(opts.ZSTDLevel), nil
	case "LZMA":
		return NewLZMA(opts.LZMAPreset), nil
	case "LZ4":
		return LZ4{}, nil
	default:
		return nil, fmt.Errorf("codec: unsupported compression %q", name)
	}
}

// ByCode returns a codec by its persisted compression code. Used on the read
// path, where tuning options are irrelevant.
func ByCode(code uint16) (Codec, error) {
	switch code {
	case CodeNone:
		return None{}, nil
	case CodeLZW:
		return LZW{}, nil
	case CodeDeflate:
		return NewDeflate(0), nil
	case CodeZSTD:
		return NewZSTD(0), nil
	case CodeLZMA:
		return NewLZMA(0), nil
	case CodeLZ4:
		return LZ4{}, nil
	default:
		return nil, fmt.Errorf("codec: unsupported compression code %d", code)
	}
}

// NameByCode resolves the stable name of a persisted compression code.
func NameByCode(code uint16) (string, bool) {
	switch code {
	case CodeNone:
		return "NONE", true
	case CodeLZW:
		return "LZW", true
	case CodeDeflate:
		return "DEFLATE", true
	case CodeZSTD:
		return "ZSTD", true
	case CodeLZMA:
		return "LZMA", true
	case CodeLZ4:
		return "LZ4", true
	}
	return "", false
}

// None is the identity codec.
type None struct{}

func (None) Code() uint16 { return CodeNone }
func (None) Name() string { return "NONE" }

func (None) Encode(src []byte) ([]byte, error) {
	out := make([]byte, len(src))
	copy(out, src)
	return out, nil
}

func (None) Decode(src []byte, size int) ([]byte, error) {
	if len(src) != size {
		return nil, fmt.Errorf("codec: raw tile is %d bytes, want %d", len(src), size)
	}
	out := make([]byte, len(src))
	copy(out, src)
	return out, nil
}
