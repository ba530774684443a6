package codec

import (
	"bytes"
	"fmt"
	"io"

	"github.com/pierrec/lz4/v4"
)

// LZ4 implements lz4 frame compression. It uses a private compression code,
// so only readers that know it can decode the tiles.
type LZ4 struct{}

func (LZ4) Code() uint16 { return CodeLZ4 }
func (LZ4) Name() string { return "LZ4" }

func (LZ4) Encode(src []byte) ([]byte, error) {
	var buf bytes.Buffer
	w := lz4.NewWriter(&buf)
	if _, err := w.Write(src); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (LZ4) Decode(src []byte, size int) ([]byte, error) {
	r := lz4.NewReader(bytes.NewReader(src))
	out := make([]byte, size)
	if _, err := io.ReadFull(r, out); err != nil {
		return nil, fmt.Errorf("codec: short lz4 tile: %w", err)
	}
	return out, nil
}
