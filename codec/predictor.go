package codec

import "fmt"

// Predictor codes as persisted in the container's PREDICTOR tag.
const (
	PredictorNone       uint16 = 1
	PredictorHorizontal uint16 = 2
)

// ApplyPredictor transforms a tile buffer in place before compression.
// Horizontal differencing replaces every scalar component by its delta to
// the previous component in the same row, improving compressibility of
// smooth data. componentSize is the width of one scalar in bytes (1, 2 or
// 4); rowComponents is the number of scalars per tile row.
func ApplyPredictor(predictor uint16, data []byte, componentSize, rowComponents int) error {
	switch predictor {
	case PredictorNone:
		return nil
	case PredictorHorizontal:
		return horizontalDiff(data, componentSize, rowComponents, true)
	default:
		return fmt.Errorf("codec: unsupported predictor %d", predictor)
	}
}

// RemovePredictor inverts ApplyPredictor on a decompressed tile buffer.
func RemovePredictor(predictor uint16, data []byte, componentSize, rowComponents int) error {
	switch predictor {
	case PredictorNone:
		return nil
	case PredictorHorizontal:
		return horizontalDiff(data, componentSize, rowComponents, false)
	default:
		return fmt.Errorf("codec: unsupported predictor %d", predictor)
	}
}

func horizontalDiff(data []byte, componentSize, rowComponents int, forward bool) error {
	switch componentSize {
	case 1, 2, 4:
	default:
		return fmt.Errorf("codec: horizontal predictor unsupported for %d-byte components", componentSize)
	}
	rowBytes := componentSize * rowComponents
	if rowBytes == 0 || len(data)%rowBytes != 0 {
		return fmt.Errorf("codec: tile of %d bytes is not a whole number of %d-byte rows", len(data), rowBytes)
	}
	for row := 0; row < len(data); row += rowBytes {
		r := data[row : row+rowBytes]
		if forward {
			for i := rowBytes - componentSize; i >= componentSize; i -= componentSize {
				sub(r[i:], r[i-componentSize:], componentSize)
			}
		} else {
			for i := componentSize; i < rowBytes; i += componentSize {
				add(r[i:], r[i-componentSize:], componentSize)
			}
		}
	}
	return nil
}

func sub(dst, prev []byte, size int) {
	switch size {
	case 1:
		dst[0] -= prev[0]
	case 2:
		v := uint16(dst[0]) | uint16(dst[1])<<8
		p := uint16(prev[0]) | uint16(prev[1])<<8
		v -= p
		dst[0], dst[1] = byte(v), byte(v>>8)
	case 4:
		v := uint32(dst[0]) | uint32(dst[1])<<8 | uint32(dst[2])<<16 | uint32(dst[3])<<24
		p := uint32(prev[0]) | uint32(prev[1])<<8 | uint32(prev[2])<<16 | uint32(prev[3])<<24
		v -= p
		dst[0], dst[1], dst[2], dst[3] = byte(v), byte(v>>8), byte(v>>16), byte(v>>24)
	}
}

func add(dst, prev []byte, size int) {
	switch size {
	case 1:
		dst[0] += prev[0]
	case 2:
		v := uint16(dst[0]) | uint16(dst[1])<<8
		p := uint16(prev[0]) | uint16(prev[1])<<8
		v += p
		dst[0], dst[1] = byte(v), byte(v>>8)
	case 4:
		v := uint32(dst[0]) | uint32(dst[1])<<8 | uint32(dst[2])<<16 | uint32(dst[3])<<24
		p := uint32(prev[0]) | uint32(prev[1])<<8 | uint32(prev[2])<<16 | uint32(prev[3])<<24
		v += p
		dst[0], dst[1], dst[2], dst[3] = byte(v), byte(v>>8), byte(v>>16), byte(v>>24)
	}
}
