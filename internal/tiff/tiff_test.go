package tiff

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hupe1980/mdtiff/blobstore"
)

func newFile(t *testing.T) blobstore.File {
	t.Helper()
	store := blobstore.NewMemoryStore()
	f, err := store.Create("container.tif")
	require.NoError(t, err)
	t.Cleanup(func() { _ = f.Close() })
	return f
}

func TestWriteStructureRoundTrip(t *testing.T) {
	f := newFile(t)
	w := NewWriter(f)

	d0 := &Directory{}
	d0.SetLong(TagImageWidth, 32)
	d0.SetLong(TagImageLength, 16)
	d0.SetShort(TagBitsPerSample, 16)
	d0.SetShort(TagCompression, 8)
	d0.SetShort(TagSampleFormat, 2)
	d0.SetLong(TagTileWidth, 32)
	d0.SetLong(TagTileLength, 16)
	d0.SetLong(TagTileOffsets, 0)
	d0.SetLong(TagTileByteCounts, 0)
	d0.SetASCII(TagMetadata, "<GDALMetadata>\n</GDALMetadata>\n")
	d0.SetDouble(TagGeoPixelScale, 0.1, 0.2, 0)

	d1 := &Directory{}
	d1.SetLong(TagImageWidth, 32)
	d1.SetLong(TagImageLength, 16)
	d1.SetLong(TagTileOffsets, 0, 0)
	d1.SetLong(TagTileByteCounts, 0, 0)

	layouts, err := w.WriteStructure([]*Directory{d0, d1})
	require.NoError(t, err)
	require.Len(t, layouts, 2)

	r, err := OpenReader(f)
	require.NoError(t, err)
	dirs := r.Directories()
	require.Len(t, dirs, 2)

	width, ok := dirs[0].Long(TagImageWidth)
	require.True(t, ok)
	require.Equal(t, uint32(32), width)

	comp, ok := dirs[0].Long(TagCompression)
	require.True(t, ok)
	require.Equal(t, uint32(8), comp)

	meta, ok := dirs[0].ASCII(TagMetadata)
	require.True(t, ok)
	require.Equal(t, "<GDALMetadata>\n</GDALMetadata>\n", meta)

	scale, err := dirs[0].Doubles(TagGeoPixelScale)
	require.NoError(t, err)
	require.Equal(t, []float64{0.1, 0.2, 0}, scale)

	require.False(t, dirs[1].Has(TagMetadata))
	offsets, err := dirs[1].Longs(TagTileOffsets)
	require.NoError(t, err)
	require.Equal(t, []uint32{0, 0}, offsets)
}

func TestAppendBlockAndPatch(t *testing.T) {
	f := newFile(t)
	w := NewWriter(f)

	d := &Directory{}
	d.SetLong(TagImageWidth, 16)
	d.SetLong(TagTileOffsets, 0, 0, 0)
	d.SetLong(TagTileByteCounts, 0, 0, 0)

	layouts, err := w.WriteStructure([]*Directory{d})
	require.NoError(t, err)

	payload := []byte{1, 2, 3, 4, 5}
	off, err := w.AppendBlock(payload)
	require.NoError(t, err)
	require.Zero(t, off%2)

	offsetsPos := layouts[0].ValuePos[TagTileOffsets]
	countsPos := layouts[0].ValuePos[TagTileByteCounts]
	require.NoError(t, w.PatchLong(offsetsPos+4, uint32(off)))
	require.NoError(t, w.PatchLong(countsPos+4, uint32(len(payload))))

	r, err := OpenReader(f)
	require.NoError(t, err)
	dirs := r.Directories()
	require.Len(t, dirs, 1)

	offsets, err := dirs[0].Longs(TagTileOffsets)
	require.NoError(t, err)
	counts, err := dirs[0].Longs(TagTileByteCounts)
	require.NoError(t, err)
	require.Equal(t, uint32(off), offsets[1])
	require.Equal(t, uint32(len(payload)), counts[1])
	require.Zero(t, offsets[0])

	got := make([]byte, len(payload))
	_, err = f.ReadAt(got, int64(offsets[1]))
	require.NoError(t, err)
	require.Equal(t, payload, got)
}

func TestInlineValuePatch(t *testing.T) {
	f := newFile(t)
	w := NewWriter(f)

	d := &Directory{}
	d.SetLong(TagTileOffsets, 0)
	d.SetLong(TagTileByteCounts, 0)

	layouts, err := w.WriteStructure([]*Directory{d})
	require.NoError(t, err)

	require.NoError(t, w.PatchLong(layouts[0].ValuePos[TagTileOffsets], 1234))

	r, err := OpenReader(f)
	require.NoError(t, err)
	offsets, err := r.Directories()[0].Longs(TagTileOffsets)
	require.NoError(t, err)
	require.Equal(t, []uint32{1234}, offsets)
}

func TestOpenReaderRejectsGarbage(t *testing.T) {
	f := newFile(t)
	_, err := f.WriteAt([]byte("MM\x00\x2a\x00\x00\x00\x08"), 0)
	require.NoError(t, err)
	_, err = OpenReader(f)
	require.Error(t, err)

	_, err = f.WriteAt([]byte("II\x2b\x00\x00\x00\x00\x00"), 0)
	require.NoError(t, err)
	_, err = OpenReader(f)
	require.Error(t, err)
}
