package mdtiff

import (
	"context"
	"fmt"

	"github.com/hupe1980/mdtiff/codec"
	"github.com/hupe1980/mdtiff/internal/dtype"
	"github.com/hupe1980/mdtiff/internal/tiff"
)

func (a *Array) planeGeometry() (ysize, xsize, blockY, blockX int) {
	n := len(a.dims)
	return int(a.dims[n-2].size), int(a.dims[n-1].size),
		int(a.blockSize[n-2]), int(a.blockSize[n-1])
}

func (a *Array) tileByteCount() int {
	_, _, blockY, blockX := a.planeGeometry()
	return blockY * blockX * a.dt.Size()
}

// rowComponents is the number of scalar components per tile row, which is
// what the horizontal predictor differences over.
func (a *Array) rowComponents() int {
	_, _, _, blockX := a.planeGeometry()
	if a.dt.IsComplex() {
		return blockX * 2
	}
	return blockX
}

// nodataBytes renders the fill value in the array's sample layout.
func (a *Array) nodataBytes() []byte {
	nd := *a.nodata
	var v any
	switch a.dt {
	case Byte:
		v = []byte{byte(nd)}
	case Int16:
		v = []int16{int16(nd)}
	case UInt16:
		v = []uint16{uint16(nd)}
	case Int32:
		v = []int32{int32(nd)}
	case UInt32:
		v = []uint32{uint32(nd)}
	case Float32:
		v = []float32{float32(nd)}
	case Float64:
		v = []float64{nd}
	case CInt16:
		v = []int16{int16(nd), 0}
	case CInt32:
		v = []int32{int32(nd), 0}
	case CFloat32:
		v = []complex64{complex(float32(nd), 0)}
	case CFloat64:
		v = []complex128{complex(nd, 0)}
	}
	b, _ := dtype.Marshal(a.dt, v)
	return b
}

// fillTile builds the content of a tile that was never written: the nodata
// value when set, zeros otherwise.
func (a *Array) fillTile() []byte {
	buf := make([]byte, a.tileByteCount())
	if a.nodata == nil || *a.nodata == 0 {
		return buf
	}
	nd := a.nodataBytes()
	for off := 0; off < len(buf); off += len(nd) {
		copy(buf[off:], nd)
	}
	return buf
}

// padTileEdges fills the region of an edge tile beyond the array extent by
// replicating the last valid column and row, which compresses well and
// avoids encoding junk.
func (a *Array) padTileEdges(buf []byte, tileRow, tileCol int) {
	ysize, xsize, blockY, blockX := a.planeGeometry()
	esize := a.dt.Size()

	validRows := ysize - tileRow*blockY
	if validRows > blockY {
		validRows = blockY
	}
	validCols := xsize - tileCol*blockX
	if validCols > blockX {
		validCols = blockX
	}

	if validCols < blockX {
		for r := 0; r < validRows; r++ {
			rowOff := r * blockX * esize
			last := rowOff + (validCols-1)*esize
			for c := validCols; c < blockX; c++ {
				copy(buf[rowOff+c*esize:rowOff+(c+1)*esize], buf[last:last+esize])
			}
		}
	}
	if validRows < blockY {
		rowBytes := blockX * esize
		src := buf[(validRows-1)*rowBytes : validRows*rowBytes]
		for r := validRows; r < blockY; r++ {
			copy(buf[r*rowBytes:(r+1)*rowBytes], src)
		}
	}
}

// tileLocation resolves the file offset and byte count of one tile. Offset 0
// means the tile was never written.
func (a *Array) tileLocation(dir, tile int) (uint32, uint32, error) {
	if a.tileOffsets[dir] == nil {
		d := a.readDirs[dir]
		offsets, err := d.Longs(tiff.TagTileOffsets)
		if err != nil {
			return 0, 0, &ErrSchemaMismatch{Directory: dir, Detail: "unreadable tile offsets", cause: err}
		}
		counts, err := d.Longs(tiff.TagTileByteCounts)
		if err != nil {
			return 0, 0, &ErrSchemaMismatch{Directory: dir, Detail: "unreadable tile byte counts", cause: err}
		}
		if len(offsets) < a.tilesPerDir || len(counts) < a.tilesPerDir {
			return 0, 0, &ErrSchemaMismatch{Directory: dir, Detail: "truncated tile arrays"}
		}
		a.tileOffsets[dir] = offsets
		a.tileCounts[dir] = counts
	}
	return a.tileOffsets[dir][tile], a.tileCounts[dir][tile], nil
}

// fetchTile returns the decoded full-size tile buffer. Callers must not
// mutate it: the buffer is shared through the cache.
func (a *Array) fetchTile(dir, tile int) ([]byte, error) {
	key := tileKey{dir: dir, tile: tile}
	if buf, ok := a.cache.Get(key); ok {
		return buf, nil
	}

	off, size, err := a.tileLocation(dir, tile)
	if err != nil {
		return nil, err
	}

	var buf []byte
	if off == 0 {
		buf = a.fillTile()
	} else {
		raw := make([]byte, size)
		if _, err := a.ds.file.ReadAt(raw, int64(off)); err != nil {
			return nil, fmt.Errorf("reading tile %d of directory %d: %w", tile, dir, err)
		}
		buf, err = a.cod.Decode(raw, a.tileByteCount())
		if err != nil {
			return nil, fmt.Errorf("decoding tile %d of directory %d: %w", tile, dir, err)
		}
		if err := codec.RemovePredictor(a.predictor, buf, a.dt.ComponentSize(), a.rowComponents()); err != nil {
			return nil, err
		}
	}

	a.cache.Add(key, buf)
	return buf, nil
}

// flushTile encodes and appends one full-size tile, patching the directory's
// offset and count arrays in place. Rewriting a tile appends a fresh copy;
// the previous one becomes dead space.
func (a *Array) flushTile(dir, tile int, buf []byte) error {
	enc := append([]byte(nil), buf...)
	a.padTileEdges(enc, tile/a.tilesAcross, tile%a.tilesAcross)
	if err := codec.ApplyPredictor(a.predictor, enc, a.dt.ComponentSize(), a.rowComponents()); err != nil {
		return err
	}
	data, err := a.cod.Encode(enc)
	if err != nil {
		return err
	}

	off, err := a.ds.writer.AppendBlock(data)
	if err != nil {
		return err
	}
	layout := a.layouts[dir]
	if err := a.ds.writer.PatchLong(layout.ValuePos[tiff.TagTileOffsets]+4*int64(tile), uint32(off)); err != nil {
		return err
	}
	if err := a.ds.writer.PatchLong(layout.ValuePos[tiff.TagTileByteCounts]+4*int64(tile), uint32(len(data))); err != nil {
		return err
	}
	a.tileOffsets[dir][tile] = uint32(off)
	a.tileCounts[dir][tile] = uint32(len(data))

	a.cache.Add(tileKey{dir: dir, tile: tile}, buf)
	return nil
}

// validateDirectory checks a directory's structure and metadata against the
// main one. Directories are validated once, on first access.
func (a *Array) validateDirectory(dir int) error {
	if dir == 0 || a.ds.writer != nil || a.ds.opts.permissive || a.validated[dir] {
		return nil
	}
	if dir >= len(a.readDirs) {
		return &ErrSchemaMismatch{Directory: dir, Detail: "directory missing from file"}
	}
	d := a.readDirs[dir]

	bits, _ := d.Long(tiff.TagBitsPerSample)
	format, ok := d.Long(tiff.TagSampleFormat)
	if !ok {
		format = dtype.FormatUInt
	}
	dt, ok := dtype.FromSampleFormat(int(bits), uint16(format))
	if !ok || dt != a.dt {
		return &ErrSchemaMismatch{Directory: dir, Detail: "data type differs"}
	}

	ysize, xsize, blockY, blockX := a.planeGeometry()
	if v, _ := d.Long(tiff.TagImageLength); int(v) != ysize {
		return &ErrSchemaMismatch{Directory: dir, Detail: "image height differs"}
	}
	if v, _ := d.Long(tiff.TagImageWidth); int(v) != xsize {
		return &ErrSchemaMismatch{Directory: dir, Detail: "image width differs"}
	}
	if v, _ := d.Long(tiff.TagTileLength); int(v) != blockY {
		return &ErrSchemaMismatch{Directory: dir, Detail: "block height differs"}
	}
	if v, _ := d.Long(tiff.TagTileWidth); int(v) != blockX {
		return &ErrSchemaMismatch{Directory: dir, Detail: "block width differs"}
	}

	text, _ := d.ASCII(tiff.TagMetadata)
	items, err := parseMetadata(text)
	if err != nil {
		return &ErrSchemaMismatch{Directory: dir, Detail: "unreadable metadata record", cause: err}
	}
	byName := make(map[string]string, len(items))
	for _, it := range items {
		if it.Role == "" {
			byName[it.Name] = it.Value
		}
	}
	if byName["VARIABLE_NAME"] != a.name {
		return &ErrSchemaMismatch{Directory: dir, Detail: "VARIABLE_NAME differs"}
	}
	coords := dirIndexToCoords(a.dims, dir)
	for i := range coords {
		prefix := fmt.Sprintf("DIMENSION_%d_", i)
		if byName[prefix+"NAME"] != a.dims[i].name {
			return &ErrSchemaMismatch{Directory: dir, Detail: prefix + "NAME differs"}
		}
		want := fmt.Sprintf("%d", coords[i])
		if byName[prefix+"IDX"] != want {
			return &ErrSchemaMismatch{Directory: dir,
				Detail: fmt.Sprintf("%sIDX=%s instead of %s", prefix, byName[prefix+"IDX"], want)}
		}
	}

	a.validated[dir] = true
	return nil
}

func (a *Array) checkBlockCoords(directory, row, col int) error {
	if directory < 0 || directory >= a.dirCount {
		return &ErrOutOfRange{Dim: "directory", First: int64(directory), Last: int64(directory), Size: uint64(a.dirCount)}
	}
	n := len(a.dims)
	if row < 0 || row >= a.tilesDown {
		return &ErrOutOfRange{Dim: a.dims[n-2].name + " blocks", First: int64(row), Last: int64(row), Size: uint64(a.tilesDown)}
	}
	if col < 0 || col >= a.tilesAcross {
		return &ErrOutOfRange{Dim: a.dims[n-1].name + " blocks", First: int64(col), Last: int64(col), Size: uint64(a.tilesAcross)}
	}
	return nil
}

func (a *Array) blockWindow(row, col int) (rows, cols int) {
	ysize, xsize, blockY, blockX := a.planeGeometry()
	rows = ysize - row*blockY
	if rows > blockY {
		rows = blockY
	}
	cols = xsize - col*blockX
	if cols > blockX {
		cols = blockX
	}
	return rows, cols
}

func (a *Array) checkBuffer(v any, want int) (int, error) {
	n, err := dtype.Count(a.dt, v)
	if err != nil {
		return 0, &ErrTypeMismatch{DataType: a.dt, Buffer: fmt.Sprintf("%T", v), cause: err}
	}
	if n != want {
		return 0, &ErrShapeMismatch{Expected: want, Actual: n}
	}
	return n, nil
}

// ReadBlock reads one block of one directory into dst. Edge blocks are
// truncated to the remaining extent, so dst must hold exactly rows*cols
// samples as reported by the block geometry.
func (a *Array) ReadBlock(ctx context.Context, directory, row, col int, dst any) error {
	if a.ds.closed {
		return ErrClosed
	}
	if err := a.ds.ensureCrystalized(ctx); err != nil {
		return err
	}
	if err := a.checkBlockCoords(directory, row, col); err != nil {
		return err
	}
	if err := a.validateDirectory(directory); err != nil {
		return err
	}

	rows, cols := a.blockWindow(row, col)
	n, err := a.checkBuffer(dst, rows*cols)
	if err != nil {
		return err
	}

	buf, err := a.fetchTile(directory, row*a.tilesAcross+col)
	if err != nil {
		return err
	}

	_, _, _, blockX := a.planeGeometry()
	esize := a.dt.Size()
	raw := make([]byte, n*esize)
	for r := 0; r < rows; r++ {
		src := r * blockX * esize
		copy(raw[r*cols*esize:(r+1)*cols*esize], buf[src:src+cols*esize])
	}
	return dtype.Unmarshal(a.dt, raw, dst)
}

// WriteBlock writes one block of one directory. src must hold exactly
// rows*cols samples; edge blocks are truncated at this interface and padded
// physically. Writing the same block again replaces it; the last write wins.
func (a *Array) WriteBlock(ctx context.Context, directory, row, col int, src any) error {
	if a.ds.closed {
		return ErrClosed
	}
	if a.ds.readOnly {
		return ErrReadOnly
	}
	if err := a.ds.ensureCrystalized(ctx); err != nil {
		return err
	}
	if err := a.checkBlockCoords(directory, row, col); err != nil {
		return err
	}

	rows, cols := a.blockWindow(row, col)
	if _, err := a.checkBuffer(src, rows*cols); err != nil {
		return err
	}
	raw, err := dtype.Marshal(a.dt, src)
	if err != nil {
		return err
	}

	_, _, blockY, blockX := a.planeGeometry()
	tile := row*a.tilesAcross + col
	esize := a.dt.Size()

	var buf []byte
	if rows == blockY && cols == blockX {
		buf = make([]byte, a.tileByteCount())
	} else {
		prev, err := a.fetchTile(directory, tile)
		if err != nil {
			return err
		}
		buf = append([]byte(nil), prev...)
	}
	for r := 0; r < rows; r++ {
		dst := r * blockX * esize
		copy(buf[dst:dst+cols*esize], raw[r*cols*esize:(r+1)*cols*esize])
	}
	return a.flushTile(directory, tile, buf)
}
