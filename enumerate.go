package mdtiff

import (
	"fmt"

	"github.com/hupe1980/mdtiff/internal/tiff"
)

// directoryCount returns how many 2D planes the slow dimensions span. A 2D
// array spans exactly one.
func directoryCount(dims []*Dimension) (int, error) {
	count := 1
	for _, d := range dims[:len(dims)-2] {
		if d.size >= uint64(tiff.MaxDirectories/count) {
			return 0, fmt.Errorf("too many directories: slow dimensions span more than %d planes", tiff.MaxDirectories)
		}
		count *= int(d.size)
	}
	return count, nil
}

// dirIndexToCoords converts a directory index to slow-dimension coordinates.
// The first dimension is the most significant digit.
func dirIndexToCoords(dims []*Dimension, index int) []uint64 {
	coords := make([]uint64, len(dims)-2)
	for i := len(coords) - 1; i >= 0; i-- {
		size := int(dims[i].size)
		coords[i] = uint64(index % size)
		index /= size
	}
	return coords
}

// coordsToDirIndex is the inverse of dirIndexToCoords.
func coordsToDirIndex(dims []*Dimension, coords []uint64) int {
	index := 0
	for i, c := range coords {
		index = index*int(dims[i].size) + int(c)
	}
	return index
}
