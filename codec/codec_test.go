package codec

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func tilePayload(n int) []byte {
	data := make([]byte, n)
	for i := range data {
		data[i] = byte(i*7 + i/64)
	}
	return data
}

func TestCodecRoundTrip(t *testing.T) {
	payload := tilePayload(16 * 32 * 4)

	codecs := []Codec{
		None{},
		LZW{},
		NewDeflate(0),
		NewDeflate(9),
		NewZSTD(0),
		NewZSTD(19),
		NewLZMA(0),
		NewLZMA(6),
		LZ4{},
	}

	for _, c := range codecs {
		t.Run(c.Name(), func(t *testing.T) {
			encoded, err := c.Encode(payload)
			require.NoError(t, err)

			decoded, err := c.Decode(encoded, len(payload))
			require.NoError(t, err)
			require.Equal(t, payload, decoded)
		})
	}
}

func TestByName(t *testing.T) {
	for _, name := range []string{"NONE", "LZW", "DEFLATE", "ZSTD", "LZMA", "LZ4"} {
		c, err := ByName(name, Options{})
		require.NoError(t, err)
		require.Equal(t, name, c.Name())
	}

	c, err := ByName("", Options{})
	require.NoError(t, err)
	require.Equal(t, "NONE", c.Name())

	_, err = ByName("JPEG2000", Options{})
	require.Error(t, err)
}

func TestByCode(t *testing.T) {
	for _, code := range []uint16{CodeNone, CodeLZW, CodeDeflate, CodeLZMA, CodeZSTD, CodeLZ4} {
		c, err := ByCode(code)
		require.NoError(t, err)
		require.Equal(t, code, c.Code())

		name, ok := NameByCode(code)
		require.True(t, ok)
		require.Equal(t, c.Name(), name)
	}

	_, err := ByCode(7)
	require.Error(t, err)
}

func TestNoneDecodeSizeMismatch(t *testing.T) {
	_, err := None{}.Decode([]byte{1, 2, 3}, 4)
	require.Error(t, err)
}
