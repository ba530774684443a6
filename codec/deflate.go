package codec

import (
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/zlib"
)

// Deflate implements zlib-wrapped deflate (Adobe-style deflate in the TIFF
// registry).
type Deflate struct {
	level int
}

// NewDeflate creates a Deflate codec. level 1-9 tunes encoding; 0 picks the
// library default.
func NewDeflate(level int) Deflate {
	if level < 0 || level > 9 {
		level = 0
	}
	return Deflate{level: level}
}

func (Deflate) Code() uint16 { return CodeDeflate }
func (Deflate) Name() string { return "DEFLATE" }

func (d Deflate) Encode(src []byte) ([]byte, error) {
	var buf bytes.Buffer
	level := d.level
	if level == 0 {
		level = zlib.DefaultCompression
	}
	w, err := zlib.NewWriterLevel(&buf, level)
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

func (Deflate) Decode(src []byte, size int) ([]byte, error) {
	r, err := zlib.NewReader(bytes.NewReader(src))
	if err != nil {
		return nil, err
	}
	defer r.Close()
	out := make([]byte, size)
	if _, err := io.ReadFull(r, out); err != nil {
		return nil, fmt.Errorf("codec: short deflate tile: %w", err)
	}
	return out, nil
}
