package codec

import (
	"bytes"
	"fmt"
	"io"

	"github.com/ulikunitz/xz/lzma"
)

// LZMA implements lzma tile compression.
type LZMA struct {
	preset int
}

// NewLZMA creates an LZMA codec. preset 1-9 tunes the encoder dictionary;
// 0 picks the library default.
func NewLZMA(preset int) LZMA {
	if preset < 0 || preset > 9 {
		preset = 0
	}
	return LZMA{preset: preset}
}

func (LZMA) Code() uint16 { return CodeLZMA }
func (LZMA) Name() string { return "LZMA" }

func (l LZMA) Encode(src []byte) ([]byte, error) {
	var buf bytes.Buffer
	cfg := lzma.WriterConfig{}
	if l.preset > 0 {
		cfg.DictCap = 1 << uint(12+l.preset)
	}
	w, err := cfg.NewWriter(&buf)
	if err != nil {
		return nil, err
	}
	if _, err := w.Write(src); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (LZMA) Decode(src []byte, size int) ([]byte, error) {
	r, err := lzma.NewReader(bytes.NewReader(src))
	if err != nil {
		return nil, err
	}
	out := make([]byte, size)
	if _, err := io.ReadFull(r, out); err != nil {
		return nil, fmt.Errorf("codec: short lzma tile: %w", err)
	}
	return out, nil
}
