package mdtiff

import (
	"context"
	"fmt"
	"sort"

	"github.com/hupe1980/mdtiff/internal/dtype"
)

// window is a normalized strided access request. After normalization all
// steps are positive and negative input steps are expressed through negative
// buffer strides, so the gather and scatter loops only ever walk forward
// through the file.
type window struct {
	origin []uint64
	count  []uint64
	step   []uint64
	stride []int64 // buffer stride per dimension, in samples
	base   int64   // buffer sample offset of the window origin
	total  int
}

func (a *Array) prepareWindow(origin []int64, count []uint64, step []int64) (*window, error) {
	n := len(a.dims)
	if origin == nil {
		origin = make([]int64, n)
	}
	if step == nil {
		step = make([]int64, n)
		for i := range step {
			step[i] = 1
		}
	}
	if len(origin) != n || len(step) != n || (count != nil && len(count) != n) {
		return nil, fmt.Errorf("window parameters need one entry per dimension, got %d/%d dimensions",
			len(origin), n)
	}
	if count == nil {
		count = make([]uint64, n)
		for i, d := range a.dims {
			switch {
			case step[i] > 0:
				remain := int64(d.size) - origin[i]
				if remain > 0 {
					count[i] = uint64((remain-1)/step[i] + 1)
				}
			case step[i] < 0:
				if origin[i] >= 0 {
					count[i] = uint64(origin[i]/(-step[i]) + 1)
				}
			default:
				count[i] = 1
			}
		}
	}

	w := &window{
		origin: make([]uint64, n),
		count:  append([]uint64(nil), count...),
		step:   make([]uint64, n),
		stride: make([]int64, n),
		total:  1,
	}
	w.stride[n-1] = 1
	for i := n - 2; i >= 0; i-- {
		w.stride[i] = w.stride[i+1] * int64(count[i+1])
	}

	for i, d := range a.dims {
		if count[i] == 0 {
			return nil, fmt.Errorf("dimension %q: zero sample count", d.name)
		}
		s := step[i]
		if s == 0 {
			if count[i] != 1 {
				return nil, fmt.Errorf("dimension %q: zero step with a count of %d", d.name, count[i])
			}
			s = 1
		}
		o := origin[i]
		if s < 0 {
			// Walk the dimension forward and fill the buffer backwards.
			o += int64(count[i]-1) * s
			w.base += int64(count[i]-1) * w.stride[i]
			w.stride[i] = -w.stride[i]
			s = -s
		}
		last := o + int64(count[i]-1)*s
		if o < 0 || last >= int64(d.size) {
			return nil, &ErrOutOfRange{Dim: d.name, First: origin[i], Last: origin[i] + int64(count[i]-1)*step[i], Size: d.size}
		}
		w.origin[i] = uint64(o)
		w.step[i] = uint64(s)
		w.total *= int(count[i])
	}
	return w, nil
}

// advance increments the slow-dimension odometer. Returns false when all
// combinations have been visited.
func (w *window) advance(slowCoord []uint64) bool {
	for i := len(slowCoord) - 1; i >= 0; i-- {
		slowCoord[i]++
		if slowCoord[i] < w.count[i] {
			return true
		}
		slowCoord[i] = 0
	}
	return false
}

// Read copies a strided window of the array into dst. origin, count and step
// carry one entry per dimension; nil selects the whole array with unit steps.
// Negative steps walk a dimension backwards. dst must be a slice of the
// array's sample type holding exactly the product of counts.
func (a *Array) Read(ctx context.Context, origin []int64, count []uint64, step []int64, dst any) error {
	log := a.ds.opts.logger.WithArray(a.name)
	err := a.read(ctx, origin, count, step, dst)
	n, _ := dtype.Count(a.dt, dst)
	log.LogRead(ctx, n, err)
	return err
}

func (a *Array) read(ctx context.Context, origin []int64, count []uint64, step []int64, dst any) error {
	if a.ds.closed {
		return ErrClosed
	}
	if err := a.ds.ensureCrystalized(ctx); err != nil {
		return err
	}
	w, err := a.prepareWindow(origin, count, step)
	if err != nil {
		return err
	}
	if _, err := a.checkBuffer(dst, w.total); err != nil {
		return err
	}

	n := len(a.dims)
	slow := n - 2
	esize := a.dt.Size()
	_, _, blockY, blockX := a.planeGeometry()
	raw := make([]byte, w.total*esize)

	coords := make([]uint64, slow)
	slowCoord := make([]uint64, slow)
	for {
		bufOff := w.base
		for i := 0; i < slow; i++ {
			coords[i] = w.origin[i] + slowCoord[i]*w.step[i]
			bufOff += int64(slowCoord[i]) * w.stride[i]
		}
		dir := coordsToDirIndex(a.dims, coords)
		if err := a.validateDirectory(dir); err != nil {
			return err
		}

		for y := uint64(0); y < w.count[slow]; y++ {
			yy := int(w.origin[slow] + y*w.step[slow])
			rowOff := bufOff + int64(y)*w.stride[slow]
			tileRow := yy / blockY
			lastTile := -1
			var tile []byte
			for x := uint64(0); x < w.count[slow+1]; x++ {
				xx := int(w.origin[slow+1] + x*w.step[slow+1])
				t := tileRow*a.tilesAcross + xx/blockX
				if t != lastTile {
					if tile, err = a.fetchTile(dir, t); err != nil {
						return err
					}
					lastTile = t
				}
				src := ((yy%blockY)*blockX + xx%blockX) * esize
				off := (rowOff + int64(x)*w.stride[slow+1]) * int64(esize)
				copy(raw[off:off+int64(esize)], tile[src:src+esize])
			}
		}

		if slow == 0 || !w.advance(slowCoord[:slow]) {
			break
		}
	}

	return dtype.Unmarshal(a.dt, raw, dst)
}

// Write stores a strided window of src into the array. Parameters mirror
// Read. Partially covered blocks are read back, merged and rewritten, so a
// later write to the same block wins sample by sample.
func (a *Array) Write(ctx context.Context, origin []int64, count []uint64, step []int64, src any) error {
	log := a.ds.opts.logger.WithArray(a.name)
	err := a.write(ctx, origin, count, step, src)
	n, _ := dtype.Count(a.dt, src)
	log.LogWrite(ctx, n, err)
	return err
}

func (a *Array) write(ctx context.Context, origin []int64, count []uint64, step []int64, src any) error {
	if a.ds.closed {
		return ErrClosed
	}
	if a.ds.readOnly {
		return ErrReadOnly
	}
	if err := a.ds.ensureCrystalized(ctx); err != nil {
		return err
	}
	w, err := a.prepareWindow(origin, count, step)
	if err != nil {
		return err
	}
	if _, err := a.checkBuffer(src, w.total); err != nil {
		return err
	}
	raw, err := dtype.Marshal(a.dt, src)
	if err != nil {
		return err
	}

	n := len(a.dims)
	slow := n - 2
	esize := a.dt.Size()
	_, _, blockY, blockX := a.planeGeometry()

	dirty := make(map[tileKey][]byte)
	fetch := func(key tileKey) ([]byte, error) {
		if buf, ok := dirty[key]; ok {
			return buf, nil
		}
		prev, err := a.fetchTile(key.dir, key.tile)
		if err != nil {
			return nil, err
		}
		buf := append([]byte(nil), prev...)
		dirty[key] = buf
		return buf, nil
	}

	coords := make([]uint64, slow)
	slowCoord := make([]uint64, slow)
	for {
		bufOff := w.base
		for i := 0; i < slow; i++ {
			coords[i] = w.origin[i] + slowCoord[i]*w.step[i]
			bufOff += int64(slowCoord[i]) * w.stride[i]
		}
		dir := coordsToDirIndex(a.dims, coords)
		if err := a.validateDirectory(dir); err != nil {
			return err
		}

		for y := uint64(0); y < w.count[slow]; y++ {
			yy := int(w.origin[slow] + y*w.step[slow])
			rowOff := bufOff + int64(y)*w.stride[slow]
			tileRow := yy / blockY
			lastTile := -1
			var tile []byte
			for x := uint64(0); x < w.count[slow+1]; x++ {
				xx := int(w.origin[slow+1] + x*w.step[slow+1])
				t := tileRow*a.tilesAcross + xx/blockX
				if t != lastTile {
					if tile, err = fetch(tileKey{dir: dir, tile: t}); err != nil {
						return err
					}
					lastTile = t
				}
				dst := ((yy%blockY)*blockX + xx%blockX) * esize
				off := (rowOff + int64(x)*w.stride[slow+1]) * int64(esize)
				copy(tile[dst:dst+esize], raw[off:off+int64(esize)])
			}
		}

		if slow == 0 || !w.advance(slowCoord[:slow]) {
			break
		}
	}

	keys := make([]tileKey, 0, len(dirty))
	for key := range dirty {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].dir != keys[j].dir {
			return keys[i].dir < keys[j].dir
		}
		return keys[i].tile < keys[j].tile
	})
	for _, key := range keys {
		if err := a.flushTile(key.dir, key.tile, dirty[key]); err != nil {
			return err
		}
	}
	return nil
}
