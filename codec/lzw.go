package codec

import (
	"bytes"
	"fmt"
	"io"

	"github.com/hhrutter/lzw"
)

// LZW implements LZW tile compression in the TIFF flavor: MSB bit order with
// the code width increasing one code early.
type LZW struct{}

func (LZW) Code() uint16 { return CodeLZW }
func (LZW) Name() string { return "LZW" }

func (LZW) Encode(src []byte) ([]byte, error) {
	var buf bytes.Buffer
	w := lzw.NewWriter(&buf, true)
	if _, err := w.Write(src); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (LZW) Decode(src []byte, size int) ([]byte, error) {
	r := lzw.NewReader(bytes.NewReader(src), true)
	defer r.Close()
	out := make([]byte, size)
	if _, err := io.ReadFull(r, out); err != nil {
		return nil, fmt.Errorf("codec: short lzw tile: %w", err)
	}
	return out, nil
}
