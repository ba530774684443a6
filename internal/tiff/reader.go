package tiff

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"strings"
)

// Entry is one resolved tag of a directory.
type Entry struct {
	Type  uint16
	Count uint32
	Data  []byte
}

// Dir is one parsed directory.
type Dir struct {
	entries map[uint16]Entry
}

// Reader parses the directory chain of a container file.
type Reader struct {
	r    io.ReaderAt
	dirs []*Dir
}

// OpenReader parses the header and every directory of the chain.
func OpenReader(r io.ReaderAt) (*Reader, error) {
	var hdr [8]byte
	if _, err := r.ReadAt(hdr[:], 0); err != nil {
		return nil, fmt.Errorf("tiff: reading header: %w", err)
	}
	if hdr[0] != 'I' || hdr[1] != 'I' {
		return nil, fmt.Errorf("tiff: unsupported byte order %q", hdr[:2])
	}
	if binary.LittleEndian.Uint16(hdr[2:]) != 42 {
		return nil, fmt.Errorf("tiff: bad magic number")
	}

	rd := &Reader{r: r}
	seen := make(map[uint32]bool)
	next := binary.LittleEndian.Uint32(hdr[4:])
	for next != 0 {
		if seen[next] {
			return nil, fmt.Errorf("tiff: directory chain cycles at offset %d", next)
		}
		seen[next] = true
		if len(rd.dirs) >= MaxDirectories {
			return nil, fmt.Errorf("tiff: directory chain exceeds the %d limit", MaxDirectories)
		}
		dir, after, err := rd.readDir(next)
		if err != nil {
			return nil, err
		}
		rd.dirs = append(rd.dirs, dir)
		next = after
	}
	if len(rd.dirs) == 0 {
		return nil, fmt.Errorf("tiff: file has no directories")
	}
	return rd, nil
}

// Directories returns the parsed directory chain in file order.
func (r *Reader) Directories() []*Dir {
	return r.dirs
}

func (r *Reader) readDir(off uint32) (*Dir, uint32, error) {
	var cnt [2]byte
	if _, err := r.r.ReadAt(cnt[:], int64(off)); err != nil {
		return nil, 0, fmt.Errorf("tiff: reading directory at %d: %w", off, err)
	}
	n := int(binary.LittleEndian.Uint16(cnt[:]))
	raw := make([]byte, 12*n+4)
	if _, err := r.r.ReadAt(raw, int64(off)+2); err != nil {
		return nil, 0, fmt.Errorf("tiff: reading directory at %d: %w", off, err)
	}

	dir := &Dir{entries: make(map[uint16]Entry, n)}
	for i := 0; i < n; i++ {
		e := raw[12*i : 12*i+12]
		tag := binary.LittleEndian.Uint16(e)
		typ := binary.LittleEndian.Uint16(e[2:])
		count := binary.LittleEndian.Uint32(e[4:])
		sz := typeSize(typ)
		if sz == 0 {
			continue // unknown field type, skip
		}
		total := uint64(sz) * uint64(count)
		if total > 1<<28 {
			return nil, 0, fmt.Errorf("tiff: tag %d claims %d value bytes", tag, total)
		}
		data := make([]byte, total)
		if total <= 4 {
			copy(data, e[8:8+total])
		} else {
			pos := binary.LittleEndian.Uint32(e[8:])
			if _, err := r.r.ReadAt(data, int64(pos)); err != nil {
				return nil, 0, fmt.Errorf("tiff: reading tag %d data at %d: %w", tag, pos, err)
			}
		}
		dir.entries[tag] = Entry{Type: typ, Count: count, Data: data}
	}
	return dir, binary.LittleEndian.Uint32(raw[12*n:]), nil
}

// Has reports whether the directory carries a tag.
func (d *Dir) Has(tag uint16) bool {
	_, ok := d.entries[tag]
	return ok
}

// Long returns a scalar integer tag, accepting SHORT or LONG storage.
func (d *Dir) Long(tag uint16) (uint32, bool) {
	vals, err := d.Longs(tag)
	if err != nil || len(vals) == 0 {
		return 0, false
	}
	return vals[0], true
}

// Longs returns an integer array tag, accepting SHORT or LONG storage.
func (d *Dir) Longs(tag uint16) ([]uint32, error) {
	e, ok := d.entries[tag]
	if !ok {
		return nil, nil
	}
	switch e.Type {
	case TypeShort:
		out := make([]uint32, e.Count)
		for i := range out {
			out[i] = uint32(binary.LittleEndian.Uint16(e.Data[2*i:]))
		}
		return out, nil
	case TypeLong:
		out := make([]uint32, e.Count)
		for i := range out {
			out[i] = binary.LittleEndian.Uint32(e.Data[4*i:])
		}
		return out, nil
	default:
		return nil, fmt.Errorf("tiff: tag %d has type %d, want integer", tag, e.Type)
	}
}

// Shorts returns a SHORT array tag.
func (d *Dir) Shorts(tag uint16) ([]uint16, error) {
	e, ok := d.entries[tag]
	if !ok {
		return nil, nil
	}
	if e.Type != TypeShort {
		return nil, fmt.Errorf("tiff: tag %d has type %d, want SHORT", tag, e.Type)
	}
	out := make([]uint16, e.Count)
	for i := range out {
		out[i] = binary.LittleEndian.Uint16(e.Data[2*i:])
	}
	return out, nil
}

// Doubles returns a DOUBLE array tag.
func (d *Dir) Doubles(tag uint16) ([]float64, error) {
	e, ok := d.entries[tag]
	if !ok {
		return nil, nil
	}
	if e.Type != TypeDouble {
		return nil, fmt.Errorf("tiff: tag %d has type %d, want DOUBLE", tag, e.Type)
	}
	out := make([]float64, e.Count)
	for i := range out {
		out[i] = math.Float64frombits(binary.LittleEndian.Uint64(e.Data[8*i:]))
	}
	return out, nil
}

// ASCII returns an ASCII tag with the terminating NUL stripped.
func (d *Dir) ASCII(tag uint16) (string, bool) {
	e, ok := d.entries[tag]
	if !ok || e.Type != TypeASCII {
		return "", false
	}
	return strings.TrimRight(string(e.Data), "\x00"), true
}
