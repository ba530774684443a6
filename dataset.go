package mdtiff

import (
	"context"
	"fmt"
	"math"
	"path"
	"strconv"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/hupe1980/mdtiff/blobstore"
	"github.com/hupe1980/mdtiff/codec"
	"github.com/hupe1980/mdtiff/internal/dtype"
	"github.com/hupe1980/mdtiff/internal/tiff"
)

// Dataset is an open container file. Created datasets accept schema changes
// until the directory structure is crystalized, which happens on the first
// pixel access or on Close. Opened datasets are read-only.
type Dataset struct {
	store blobstore.Store
	name  string
	file  blobstore.File
	opts  options

	readOnly    bool
	crystalized bool
	closed      bool

	root   *Group
	writer *tiff.Writer
}

// Create creates a new container file in store, truncating an existing one.
func Create(store blobstore.Store, name string, optFns ...Option) (*Dataset, error) {
	o := applyOptions(optFns)
	if name == "" {
		err := fmt.Errorf("empty dataset name not supported")
		o.logger.LogCreate(context.Background(), name, err)
		return nil, err
	}
	file, err := store.Create(name)
	o.logger.LogCreate(context.Background(), name, err)
	if err != nil {
		return nil, err
	}
	ds := &Dataset{
		store:  store,
		name:   name,
		file:   file,
		opts:   o,
		writer: tiff.NewWriter(file),
	}
	ds.root = newGroup(ds)
	return ds, nil
}

// Open opens an existing container file for reading.
func Open(store blobstore.Store, name string, optFns ...Option) (*Dataset, error) {
	o := applyOptions(optFns)
	ctx := context.Background()

	file, err := store.Open(name)
	if err != nil {
		o.logger.LogOpen(ctx, name, 0, err)
		return nil, err
	}
	rd, err := tiff.OpenReader(file)
	if err != nil {
		file.Close()
		o.logger.LogOpen(ctx, name, 0, err)
		return nil, err
	}

	ds := &Dataset{
		store:       store,
		name:        name,
		file:        file,
		opts:        o,
		readOnly:    true,
		crystalized: true,
	}
	ds.root = newGroup(ds)

	dirs := rd.Directories()
	if w, ok := dirs[0].Long(tiff.TagImageWidth); !ok || w == 0 {
		// Placeholder directory of a dataset closed without an array.
		o.logger.LogOpen(ctx, name, len(dirs), nil)
		return ds, nil
	}
	if err := ds.openArray(ctx, dirs); err != nil {
		file.Close()
		o.logger.LogOpen(ctx, name, len(dirs), err)
		return nil, err
	}
	o.logger.LogOpen(ctx, name, len(dirs), nil)
	return ds, nil
}

// RootGroup returns the root container of dimensions and arrays.
func (ds *Dataset) RootGroup() (*Group, error) {
	if ds.closed {
		return nil, ErrClosed
	}
	return ds.root, nil
}

// Close crystalizes a created dataset if needed, flushes and releases the
// underlying file. Closing twice is harmless.
func (ds *Dataset) Close() error {
	if ds.closed {
		return nil
	}
	ctx := context.Background()
	var err error
	if !ds.readOnly && !ds.crystalized {
		err = ds.crystalize(ctx)
	}
	if !ds.readOnly && err == nil {
		err = ds.file.Sync()
	}
	if cerr := ds.file.Close(); err == nil {
		err = cerr
	}
	ds.closed = true
	ds.opts.logger.LogClose(ctx, ds.name, err)
	return err
}

func (ds *Dataset) mutable() error {
	if ds.closed {
		return ErrClosed
	}
	if ds.readOnly {
		return ErrReadOnly
	}
	if ds.crystalized {
		return ErrCrystalized
	}
	return nil
}

func (ds *Dataset) ensureCrystalized(ctx context.Context) error {
	if ds.crystalized {
		return nil
	}
	return ds.crystalize(ctx)
}

func formatNoData(v float64) string {
	if math.IsNaN(v) {
		return "nan"
	}
	return fmt.Sprintf("%.18g", v)
}

// crystalize writes the complete directory chain with zero-filled tile
// offset and count arrays. From here on the schema is frozen and only tile
// payloads are appended.
func (ds *Dataset) crystalize(ctx context.Context) error {
	a := ds.root.array
	var dirs []*tiff.Directory
	if a == nil {
		// No array was created. Persist a placeholder so the file stays a
		// valid container.
		d := &tiff.Directory{}
		d.SetLong(tiff.TagImageWidth, 0)
		d.SetLong(tiff.TagImageLength, 0)
		dirs = []*tiff.Directory{d}
	} else {
		ysize, xsize, blockY, blockX := a.planeGeometry()
		zero := make([]uint32, a.tilesPerDir)
		dirs = make([]*tiff.Directory, a.dirCount)
		for i := range dirs {
			d := &tiff.Directory{}
			d.SetLong(tiff.TagImageWidth, uint32(xsize))
			d.SetLong(tiff.TagImageLength, uint32(ysize))
			d.SetShort(tiff.TagBitsPerSample, uint16(a.dt.Bits()))
			d.SetShort(tiff.TagCompression, a.cod.Code())
			d.SetShort(tiff.TagPhotometric, 1)
			d.SetShort(tiff.TagSamplesPerPixel, 1)
			d.SetShort(tiff.TagPlanarConfig, 1)
			if a.predictor == codec.PredictorHorizontal {
				d.SetShort(tiff.TagPredictor, a.predictor)
			}
			d.SetLong(tiff.TagTileWidth, uint32(blockX))
			d.SetLong(tiff.TagTileLength, uint32(blockY))
			d.SetLong(tiff.TagTileOffsets, zero...)
			d.SetLong(tiff.TagTileByteCounts, zero...)
			d.SetShort(tiff.TagSampleFormat, a.dt.SampleFormat())
			d.SetASCII(tiff.TagMetadata, a.generateMetadata(i == 0, dirIndexToCoords(a.dims, i)))
			if a.nodata != nil {
				d.SetASCII(tiff.TagNoData, formatNoData(*a.nodata))
			}
			a.writeGeoTags(d)
			dirs[i] = d
		}
	}

	layouts, err := ds.writer.WriteStructure(dirs)
	ds.opts.logger.LogCrystalize(ctx, len(dirs), err)
	if err != nil {
		return err
	}
	ds.crystalized = true
	if a != nil {
		a.layouts = layouts
		a.tileOffsets = make([][]uint32, a.dirCount)
		a.tileCounts = make([][]uint32, a.dirCount)
		for i := range a.tileOffsets {
			a.tileOffsets[i] = make([]uint32, a.tilesPerDir)
			a.tileCounts[i] = make([]uint32, a.tilesPerDir)
		}
		a.validated = make([]bool, a.dirCount)
	}
	return nil
}

// openArray reconstructs the array schema from the main directory. Structural
// problems fail the open; an unusable dimension record degrades to a plain
// 2D view over the main directory.
func (ds *Dataset) openArray(ctx context.Context, dirs []*tiff.Dir) error {
	d0 := dirs[0]

	if spp, ok := d0.Long(tiff.TagSamplesPerPixel); ok && spp != 1 {
		return fmt.Errorf("only single-sample files are supported, got %d samples per pixel", spp)
	}
	bits, _ := d0.Long(tiff.TagBitsPerSample)
	format, ok := d0.Long(tiff.TagSampleFormat)
	if !ok {
		format = dtype.FormatUInt
	}
	dt, ok := dtype.FromSampleFormat(int(bits), uint16(format))
	if !ok {
		return fmt.Errorf("unsupported sample layout: %d bits, sample format %d", bits, format)
	}
	if !d0.Has(tiff.TagTileWidth) || !d0.Has(tiff.TagTileLength) {
		return fmt.Errorf("only tiled files are supported")
	}
	width, _ := d0.Long(tiff.TagImageWidth)
	height, _ := d0.Long(tiff.TagImageLength)
	blockX, _ := d0.Long(tiff.TagTileWidth)
	blockY, _ := d0.Long(tiff.TagTileLength)
	if width == 0 || height == 0 || blockX == 0 || blockY == 0 {
		return fmt.Errorf("invalid raster geometry %dx%d with %dx%d blocks", width, height, blockY, blockX)
	}

	compression := uint32(codec.CodeNone)
	if v, ok := d0.Long(tiff.TagCompression); ok {
		compression = v
	}
	cod, err := codec.ByCode(uint16(compression))
	if err != nil {
		return err
	}
	predictor := uint32(codec.PredictorNone)
	if v, ok := d0.Long(tiff.TagPredictor); ok {
		predictor = v
	}

	structural := make(map[string]string)
	if cod.Code() != codec.CodeNone {
		structural["COMPRESSION"] = cod.Name()
	}
	if predictor != uint32(codec.PredictorNone) {
		switch cod.Code() {
		case codec.CodeLZW, codec.CodeDeflate, codec.CodeZSTD:
			structural["PREDICTOR"] = strconv.Itoa(int(predictor))
		}
	}

	a := &Array{
		ds:         ds,
		name:       strings.TrimSuffix(path.Base(ds.name), path.Ext(ds.name)),
		dt:         dt,
		cod:        cod,
		predictor:  uint16(predictor),
		attrs:      make(map[string]*Attribute),
		structural: structural,
		readDirs:   dirs,
	}

	var degradeCause error
	var items []metadataItem
	if text, ok := d0.ASCII(tiff.TagMetadata); ok {
		if items, err = parseMetadata(text); err != nil {
			degradeCause = &ErrCorruptMetadata{Detail: "unreadable record", cause: err}
			items = nil
		}
	}

	byDim := make(map[int]map[string]string)
	for _, it := range items {
		switch {
		case it.Role == "scale":
			if v, err := strconv.ParseFloat(it.Value, 64); err == nil {
				a.scale = &v
			}
		case it.Role == "offset":
			if v, err := strconv.ParseFloat(it.Value, 64); err == nil {
				a.offset = &v
			}
		case it.Role == "unittype":
			a.unit = it.Value
		case it.Role != "":
			// Unknown role, ignore.
		case it.Name == "VARIABLE_NAME":
			a.name = it.Value
		case strings.HasPrefix(it.Name, "DIMENSION_"):
			rest := strings.TrimPrefix(it.Name, "DIMENSION_")
			sep := strings.IndexByte(rest, '_')
			if sep <= 0 {
				continue
			}
			idx, err := strconv.Atoi(rest[:sep])
			if err != nil || idx < 0 || idx >= tiff.MaxDirectories {
				continue
			}
			if byDim[idx] == nil {
				byDim[idx] = make(map[string]string)
			}
			byDim[idx][rest[sep+1:]] = it.Value
		default:
			// Attributes reopen as strings holding the serialized literal.
			attr := newStringAttribute(it.Name, 0)
			_ = attr.SetStrings(it.Value)
			a.attrs[it.Name] = attr
		}
	}

	dims, blockSize, cause := buildDims(byDim, uint64(height), uint64(width), len(dirs))
	if degradeCause == nil {
		degradeCause = cause
	}
	if degradeCause != nil {
		ds.opts.logger.LogDegradedOpen(ctx, ds.name, degradeCause)
		a.degraded = true
		dims = []*Dimension{
			{name: "dimY", size: uint64(height)},
			{name: "dimX", size: uint64(width)},
		}
		blockSize = make([]uint64, 2)
	}
	n := len(dims)
	blockSize[n-2] = uint64(blockY)
	blockSize[n-1] = uint64(blockX)

	a.dims = dims
	a.blockSize = blockSize
	a.initPlane()
	a.validated = make([]bool, a.dirCount)
	a.tileOffsets = make([][]uint32, a.dirCount)
	a.tileCounts = make([][]uint32, a.dirCount)
	a.cache, err = lru.New[tileKey, []byte](ds.opts.cacheTiles)
	if err != nil {
		return err
	}

	g := readGeoInfo(d0)
	if g.srs != nil {
		a.srs = g.srs
	}
	// Untyped trailing axes are classified only when both a CRS and an
	// axis-aligned transform were recovered.
	if g.srs != nil && g.hasGT {
		if dims[n-2].typ == "" {
			dims[n-2].typ = "HORIZONTAL_Y"
			dims[n-2].direction = "NORTH"
		}
		if dims[n-1].typ == "" {
			dims[n-1].typ = "HORIZONTAL_X"
			dims[n-1].direction = "EAST"
		}
	}
	if g.hasGT {
		y, x := dims[n-2], dims[n-1]
		if x.indexing == nil {
			nums := make([]float64, x.size)
			for i := range nums {
				nums[i] = g.gt[0] + float64(i)*g.gt[1]
			}
			x.indexing = &IndexingVariable{name: x.name, dim: x, dt: Float64, nums: nums}
		}
		if y.indexing == nil {
			nums := make([]float64, y.size)
			for i := range nums {
				nums[i] = g.gt[3] + float64(i)*g.gt[5]
			}
			y.indexing = &IndexingVariable{name: y.name, dim: y, dt: Float64, nums: nums}
		}
	}

	if s, ok := d0.ASCII(tiff.TagNoData); ok {
		if v, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			a.nodata = &v
		}
	}

	ds.root.array = a
	ds.root.dims = dims
	for _, d := range dims {
		ds.root.dimNames[d.name] = d
		if d.indexing != nil {
			ds.root.ivars[d.indexing.name] = d.indexing
		}
	}
	return nil
}

// buildDims reconstructs the dimension schema from the parsed per-dimension
// metadata of the main directory. The two trailing dimensions take their
// geometry from the raster tags; slow dimensions must be fully described.
func buildDims(byDim map[int]map[string]string, height, width uint64, have int) ([]*Dimension, []uint64, error) {
	n := 2
	for i := range byDim {
		if i+1 > n {
			n = i + 1
		}
	}

	dims := make([]*Dimension, n)
	blockSize := make([]uint64, n)
	count := 1
	for i := 0; i < n-2; i++ {
		m := byDim[i]
		if m == nil {
			return nil, nil, &ErrCorruptMetadata{Detail: fmt.Sprintf("dimension %d has no items", i)}
		}
		name := m["NAME"]
		if name == "" {
			return nil, nil, &ErrCorruptMetadata{Detail: fmt.Sprintf("dimension %d has no NAME", i)}
		}
		size, err := strconv.ParseUint(m["SIZE"], 10, 64)
		if err != nil || size == 0 {
			return nil, nil, &ErrCorruptMetadata{Detail: fmt.Sprintf("dimension %d has SIZE %q", i, m["SIZE"]), cause: err}
		}
		if m["IDX"] != "0" {
			return nil, nil, &ErrCorruptMetadata{Detail: fmt.Sprintf("main directory has DIMENSION_%d_IDX=%q", i, m["IDX"])}
		}
		bs, err := strconv.ParseUint(m["BLOCK_SIZE"], 10, 64)
		if err != nil || bs == 0 {
			return nil, nil, &ErrCorruptMetadata{Detail: fmt.Sprintf("dimension %d has BLOCK_SIZE %q", i, m["BLOCK_SIZE"]), cause: err}
		}
		if size >= uint64(tiff.MaxDirectories/count) {
			return nil, nil, &ErrCorruptMetadata{Detail: "slow dimensions span too many directories"}
		}
		count *= int(size)

		d := &Dimension{name: name, typ: m["TYPE"], direction: m["DIRECTION"], size: size}

		dtName, hasDT := m["DATATYPE"]
		values, hasVals := m["VALUES"]
		if hasDT != hasVals {
			return nil, nil, &ErrCorruptMetadata{Detail: fmt.Sprintf("dimension %d has DATATYPE without VALUES or vice versa", i)}
		}
		if hasDT {
			parts := strings.Split(values, ",")
			if uint64(len(parts)) != size {
				return nil, nil, &ErrCorruptMetadata{Detail: fmt.Sprintf("dimension %d has %d values for %d samples", i, len(parts), size)}
			}
			if dtName == "String" {
				d.indexing = &IndexingVariable{name: name, dim: d, isString: true, strs: parts}
			} else {
				ivdt, ok := DataTypeByName(dtName)
				if !ok {
					return nil, nil, &ErrCorruptMetadata{Detail: fmt.Sprintf("dimension %d has DATATYPE %q", i, dtName)}
				}
				nums := make([]float64, len(parts))
				for k, p := range parts {
					v, err := strconv.ParseFloat(p, 64)
					if err != nil {
						return nil, nil, &ErrCorruptMetadata{Detail: fmt.Sprintf("dimension %d has value %q", i, p), cause: err}
					}
					nums[k] = v
				}
				d.indexing = &IndexingVariable{name: name, dim: d, dt: ivdt, nums: nums}
			}
		}

		dims[i] = d
		blockSize[i] = bs
	}
	if have < count {
		return nil, nil, &ErrCorruptMetadata{Detail: fmt.Sprintf("file holds %d directories, schema spans %d", have, count)}
	}

	yName, xName := "dimY", "dimX"
	var yTyp, yDir, xTyp, xDir string
	if m := byDim[n-2]; m != nil {
		if m["NAME"] != "" {
			yName = m["NAME"]
		}
		yTyp, yDir = m["TYPE"], m["DIRECTION"]
	}
	if m := byDim[n-1]; m != nil {
		if m["NAME"] != "" {
			xName = m["NAME"]
		}
		xTyp, xDir = m["TYPE"], m["DIRECTION"]
	}
	dims[n-2] = &Dimension{name: yName, typ: yTyp, direction: yDir, size: height}
	dims[n-1] = &Dimension{name: xName, typ: xTyp, direction: xDir, size: width}
	return dims, blockSize, nil
}
