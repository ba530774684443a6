package codec

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHorizontalPredictorBytes(t *testing.T) {
	data := []byte{
		10, 12, 15, 15,
		200, 199, 197, 190,
	}
	orig := append([]byte(nil), data...)

	require.NoError(t, ApplyPredictor(PredictorHorizontal, data, 1, 4))
	require.Equal(t, []byte{10, 2, 3, 0, 200, 255, 254, 249}, data)

	require.NoError(t, RemovePredictor(PredictorHorizontal, data, 1, 4))
	require.Equal(t, orig, data)
}

func TestHorizontalPredictorUint16(t *testing.T) {
	vals := []uint16{1000, 1004, 1002, 65535, 0, 3}
	data := make([]byte, 2*len(vals))
	for i, v := range vals {
		binary.LittleEndian.PutUint16(data[2*i:], v)
	}
	orig := append([]byte(nil), data...)

	require.NoError(t, ApplyPredictor(PredictorHorizontal, data, 2, 3))
	require.NoError(t, RemovePredictor(PredictorHorizontal, data, 2, 3))
	require.Equal(t, orig, data)
}

func TestHorizontalPredictorUint32(t *testing.T) {
	vals := []uint32{7, 100000, 99999, 0xFFFFFFFF}
	data := make([]byte, 4*len(vals))
	for i, v := range vals {
		binary.LittleEndian.PutUint32(data[4*i:], v)
	}
	orig := append([]byte(nil), data...)

	require.NoError(t, ApplyPredictor(PredictorHorizontal, data, 4, 2))
	require.NoError(t, RemovePredictor(PredictorHorizontal, data, 4, 2))
	require.Equal(t, orig, data)
}

func TestPredictorNoneIsIdentity(t *testing.T) {
	data := []byte{1, 2, 3, 4}
	require.NoError(t, ApplyPredictor(PredictorNone, data, 1, 4))
	require.Equal(t, []byte{1, 2, 3, 4}, data)
}

func TestPredictorRejectsBadGeometry(t *testing.T) {
	require.Error(t, ApplyPredictor(PredictorHorizontal, []byte{1, 2, 3}, 2, 1))
	require.Error(t, ApplyPredictor(PredictorHorizontal, []byte{1, 2, 3, 4, 5, 6, 7, 8}, 8, 1))
	require.Error(t, ApplyPredictor(3, []byte{1}, 1, 1))
}
