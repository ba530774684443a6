package codec

import (
	"fmt"

	"github.com/klauspost/compress/zstd"
)

// ZSTD implements zstd tile compression.
type ZSTD struct {
	level int
}

// NewZSTD creates a ZSTD codec. level 1-22 tunes encoding; 0 picks the
// library default.
func NewZSTD(level int) ZSTD {
	if level < 0 || level > 22 {
		level = 0
	}
	return ZSTD{level: level}
}

func (ZSTD) Code() uint16 { return CodeZSTD }
func (ZSTD) Name() string { return "ZSTD" }

func (z ZSTD) Encode(src []byte) ([]byte, error) {
	var opts []zstd.EOption
	if z.level > 0 {
		opts = append(opts, zstd.WithEncoderLevel(zstd.EncoderLevelFromZstd(z.level)))
	}
	enc, err := zstd.NewWriter(nil, opts...)
	if err != nil {
		return nil, err
	}
	out := enc.EncodeAll(src, nil)
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return out, nil
}

func (ZSTD) Decode(src []byte, size int) ([]byte, error) {
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, err
	}
	defer dec.Close()
	out, err := dec.DecodeAll(src, make([]byte, 0, size))
	if err != nil {
		return nil, err
	}
	if len(out) != size {
		return nil, fmt.Errorf("codec: zstd tile decoded to %d bytes, want %d", len(out), size)
	}
	return out, nil
}
