package tiff

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"sort"
)

// Directory accumulates the tags of one directory before serialization.
type Directory struct {
	entries []wentry
}

type wentry struct {
	tag  uint16
	typ  uint16
	data []byte
}

func (d *Directory) set(tag, typ uint16, data []byte) {
	for i := range d.entries {
		if d.entries[i].tag == tag {
			d.entries[i].typ = typ
			d.entries[i].data = data
			return
		}
	}
	d.entries = append(d.entries, wentry{tag: tag, typ: typ, data: data})
}

// SetShort sets a SHORT array tag.
func (d *Directory) SetShort(tag uint16, vals ...uint16) {
	data := make([]byte, 2*len(vals))
	for i, v := range vals {
		binary.LittleEndian.PutUint16(data[2*i:], v)
	}
	d.set(tag, TypeShort, data)
}

// SetLong sets a LONG array tag.
func (d *Directory) SetLong(tag uint16, vals ...uint32) {
	data := make([]byte, 4*len(vals))
	for i, v := range vals {
		binary.LittleEndian.PutUint32(data[4*i:], v)
	}
	d.set(tag, TypeLong, data)
}

// SetDouble sets a DOUBLE array tag.
func (d *Directory) SetDouble(tag uint16, vals ...float64) {
	data := make([]byte, 8*len(vals))
	for i, v := range vals {
		binary.LittleEndian.PutUint64(data[8*i:], math.Float64bits(v))
	}
	d.set(tag, TypeDouble, data)
}

// SetASCII sets an ASCII tag. The terminating NUL is added here.
func (d *Directory) SetASCII(tag uint16, s string) {
	data := make([]byte, len(s)+1)
	copy(data, s)
	d.set(tag, TypeASCII, data)
}

// DirLayout reports where each tag's value bytes landed in the file, so that
// preallocated arrays (tile offsets and byte counts) can be patched after
// the fact.
type DirLayout struct {
	ValuePos map[uint16]int64
}

// Writer serializes directories and appends tile payloads to a file.
type Writer struct {
	w   io.WriterAt
	off int64
}

// NewWriter wraps w. The file is assumed empty.
func NewWriter(w io.WriterAt) *Writer {
	return &Writer{w: w}
}

// WriteStructure serializes the header and the full directory chain in one
// shot. No directory can be added afterwards. Returned layouts are indexed
// like dirs.
func (w *Writer) WriteStructure(dirs []*Directory) ([]DirLayout, error) {
	if len(dirs) == 0 {
		return nil, fmt.Errorf("tiff: no directories to write")
	}
	if len(dirs) > MaxDirectories {
		return nil, fmt.Errorf("tiff: %d directories exceed the %d limit", len(dirs), MaxDirectories)
	}

	var buf bytes.Buffer
	buf.WriteString("II")
	le16(&buf, 42)
	le32(&buf, 8)

	layouts := make([]DirLayout, len(dirs))
	pos := int64(8)

	for di, d := range dirs {
		entries := append([]wentry(nil), d.entries...)
		sort.Slice(entries, func(i, j int) bool { return entries[i].tag < entries[j].tag })

		n := len(entries)
		ifdSize := int64(2 + 12*n + 4)
		extPos := pos + ifdSize
		layout := DirLayout{ValuePos: make(map[uint16]int64, n)}

		// Assign external data positions, word aligned.
		extAt := make([]int64, n)
		for i, e := range entries {
			if len(e.data) > 4 {
				if extPos%2 != 0 {
					extPos++
				}
				extAt[i] = extPos
				extPos += int64(len(e.data))
			}
		}
		if extPos%2 != 0 {
			extPos++
		}

		le16(&buf, uint16(n))
		for i, e := range entries {
			le16(&buf, e.tag)
			le16(&buf, e.typ)
			sz := typeSize(e.typ)
			if sz == 0 || len(e.data)%sz != 0 {
				return nil, fmt.Errorf("tiff: tag %d has malformed value of %d bytes", e.tag, len(e.data))
			}
			le32(&buf, uint32(len(e.data)/sz))
			if len(e.data) > 4 {
				le32(&buf, uint32(extAt[i]))
				layout.ValuePos[e.tag] = extAt[i]
			} else {
				var inline [4]byte
				copy(inline[:], e.data)
				buf.Write(inline[:])
				layout.ValuePos[e.tag] = pos + 2 + 12*int64(i) + 8
			}
		}
		if di == len(dirs)-1 {
			le32(&buf, 0)
		} else {
			le32(&buf, uint32(extPos))
		}

		// External data region.
		cur := pos + ifdSize
		for i, e := range entries {
			if len(e.data) <= 4 {
				continue
			}
			for cur < extAt[i] {
				buf.WriteByte(0)
				cur++
			}
			buf.Write(e.data)
			cur += int64(len(e.data))
		}
		for cur < extPos {
			buf.WriteByte(0)
			cur++
		}

		layouts[di] = layout
		pos = extPos
	}

	if _, err := w.w.WriteAt(buf.Bytes(), 0); err != nil {
		return nil, err
	}
	w.off = pos
	return layouts, nil
}

// AppendBlock writes data at the end of the file and returns its offset.
func (w *Writer) AppendBlock(data []byte) (int64, error) {
	if w.off%2 != 0 {
		if _, err := w.w.WriteAt([]byte{0}, w.off); err != nil {
			return 0, err
		}
		w.off++
	}
	off := w.off
	if off+int64(len(data)) > math.MaxUint32 {
		return 0, fmt.Errorf("tiff: file exceeds 4 GiB offset limit")
	}
	if _, err := w.w.WriteAt(data, off); err != nil {
		return 0, err
	}
	w.off += int64(len(data))
	return off, nil
}

// PatchLong overwrites one LONG value at an absolute file position.
func (w *Writer) PatchLong(pos int64, v uint32) error {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	_, err := w.w.WriteAt(b[:], pos)
	return err
}

func le16(buf *bytes.Buffer, v uint16) {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], v)
	buf.Write(b[:])
}

func le32(buf *bytes.Buffer, v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	buf.Write(b[:])
}
