package codec

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/require"
	tifflzw "golang.org/x/image/tiff/lzw"
)

// Tiles must stay readable by other software, so the encoded stream has to
// follow the early code-width change. Decode with an independent
// implementation of that flavor.
func TestLZWEncodesTIFFFlavor(t *testing.T) {
	// Large enough to cross several code-width boundaries.
	payload := tilePayload(16 * 32 * 4)

	encoded, err := LZW{}.Encode(payload)
	require.NoError(t, err)

	r := tifflzw.NewReader(bytes.NewReader(encoded), tifflzw.MSB, 8)
	defer r.Close()
	decoded, err := io.ReadAll(r)
	require.NoError(t, err)
	require.Equal(t, payload, decoded)
}
