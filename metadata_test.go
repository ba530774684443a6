package mdtiff

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hupe1980/mdtiff/blobstore"
	"github.com/hupe1980/mdtiff/internal/tiff"
)

func TestGenerateMetadataRecords(t *testing.T) {
	store := blobstore.NewMemoryStore()
	ds, err := Create(store, "meta.tif")
	require.NoError(t, err)
	defer ds.Close()
	g, _ := ds.RootGroup()

	tm, _ := g.CreateDimension("time", "", "", 2)
	iv, err := g.CreateIndexingVariable("time", tm, Float64)
	require.NoError(t, err)
	require.NoError(t, iv.SetValues([]float64{1.25, 2.5}))
	require.NoError(t, tm.SetIndexingVariable(iv))

	y, _ := g.CreateDimension("Y", "", "", 4)
	x, _ := g.CreateDimension("X", "", "", 5)
	a, err := g.CreateArray("cube", []*Dimension{tm, y, x}, Float32, WithBlockSize(2, 3))
	require.NoError(t, err)

	wantMain := `<GDALMetadata>` +
		`<Item name="VARIABLE_NAME">cube</Item>` +
		`<Item name="DIMENSION_0_NAME">time</Item>` +
		`<Item name="DIMENSION_0_SIZE">2</Item>` +
		`<Item name="DIMENSION_0_BLOCK_SIZE">1</Item>` +
		`<Item name="DIMENSION_0_IDX">0</Item>` +
		`<Item name="DIMENSION_0_DATATYPE">Float64</Item>` +
		`<Item name="DIMENSION_0_VALUES">1.250000,2.500000</Item>` +
		`<Item name="DIMENSION_0_VAL">1.250000</Item>` +
		`<Item name="DIMENSION_1_NAME">Y</Item>` +
		`<Item name="DIMENSION_1_SIZE">4</Item>` +
		`<Item name="DIMENSION_1_BLOCK_SIZE">2</Item>` +
		`<Item name="DIMENSION_2_NAME">X</Item>` +
		`<Item name="DIMENSION_2_SIZE">5</Item>` +
		`<Item name="DIMENSION_2_BLOCK_SIZE">3</Item>` +
		`</GDALMetadata>`
	require.Equal(t, wantMain, a.generateMetadata(true, []uint64{0}))

	wantSecond := `<GDALMetadata>` +
		`<Item name="VARIABLE_NAME">cube</Item>` +
		`<Item name="DIMENSION_0_NAME">time</Item>` +
		`<Item name="DIMENSION_0_IDX">1</Item>` +
		`<Item name="DIMENSION_0_VAL">2.500000</Item>` +
		`</GDALMetadata>`
	require.Equal(t, wantSecond, a.generateMetadata(false, []uint64{1}))
}

func TestGenerateMetadataRoleItems(t *testing.T) {
	store := blobstore.NewMemoryStore()
	ds, err := Create(store, "roles.tif")
	require.NoError(t, err)
	defer ds.Close()
	g, _ := ds.RootGroup()

	y, _ := g.CreateDimension("Y", "", "", 4)
	x, _ := g.CreateDimension("X", "", "", 5)
	a, err := g.CreateArray("v", []*Dimension{y, x}, Byte, WithBlockSize(4, 5))
	require.NoError(t, err)

	attr, _ := a.CreateAttribute("zulu", Float64, 0)
	require.NoError(t, attr.SetValues(3))
	_, err = a.CreateStringAttribute("alpha", 2)
	require.NoError(t, err)

	require.NoError(t, a.SetScale(0.5))
	require.NoError(t, a.SetOffset(2))
	require.NoError(t, a.SetUnit("m"))

	want := `<GDALMetadata>` +
		`<Item name="VARIABLE_NAME">v</Item>` +
		`<Item name="DIMENSION_0_NAME">Y</Item>` +
		`<Item name="DIMENSION_0_SIZE">4</Item>` +
		`<Item name="DIMENSION_0_BLOCK_SIZE">4</Item>` +
		`<Item name="DIMENSION_1_NAME">X</Item>` +
		`<Item name="DIMENSION_1_SIZE">5</Item>` +
		`<Item name="DIMENSION_1_BLOCK_SIZE">5</Item>` +
		`<Item name="alpha">null,null</Item>` +
		`<Item name="zulu">3</Item>` +
		`<Item name="OFFSET" role="offset">2</Item>` +
		`<Item name="SCALE" role="scale">0.5</Item>` +
		`<Item name="UNITTYPE" role="unittype">m</Item>` +
		`</GDALMetadata>`
	require.Equal(t, want, a.generateMetadata(true, nil))
}

func TestDirectoryChainLayout(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()
	ds, a := create3D(t, store, "chain.tif", 3, 4, 5)
	require.NoError(t, a.Write(ctx, nil, nil, nil, ramp3D(3, 4, 5)))
	require.NoError(t, ds.Close())

	f, err := store.Open("chain.tif")
	require.NoError(t, err)
	defer f.Close()
	rd, err := tiff.OpenReader(f)
	require.NoError(t, err)

	dirs := rd.Directories()
	require.Len(t, dirs, 3)
	for i, d := range dirs {
		w, _ := d.Long(tiff.TagImageWidth)
		h, _ := d.Long(tiff.TagImageLength)
		require.EqualValues(t, 5, w)
		require.EqualValues(t, 4, h)

		meta, ok := d.ASCII(tiff.TagMetadata)
		require.True(t, ok)
		items, err := parseMetadata(meta)
		require.NoError(t, err)

		byName := map[string]string{}
		for _, it := range items {
			byName[it.Name] = it.Value
		}
		require.Equal(t, "cube", byName["VARIABLE_NAME"])
		require.Equal(t, "time", byName["DIMENSION_0_NAME"])
		if i == 0 {
			require.Equal(t, "3", byName["DIMENSION_0_SIZE"])
			require.Equal(t, "0", byName["DIMENSION_0_IDX"])
		} else {
			require.NotContains(t, byName, "DIMENSION_0_SIZE")
		}
		if i == 2 {
			require.Equal(t, "2", byName["DIMENSION_0_IDX"])
		}

		offsets, err := d.Longs(tiff.TagTileOffsets)
		require.NoError(t, err)
		counts, err := d.Longs(tiff.TagTileByteCounts)
		require.NoError(t, err)
		require.Len(t, offsets, 4) // ceil(4/2) * ceil(5/3)
		require.Len(t, counts, 4)
		for k := range offsets {
			require.NotZero(t, offsets[k], "tile %d of directory %d", k, i)
			require.NotZero(t, counts[k])
		}
	}
}

func Test4DDirectoryCount(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()

	ds, err := Create(store, "count.tif")
	require.NoError(t, err)
	g, _ := ds.RootGroup()
	d0, _ := g.CreateDimension("a", "", "", 5)
	d1, _ := g.CreateDimension("b", "", "", 8)
	y, _ := g.CreateDimension("Y", "", "", 4)
	x, _ := g.CreateDimension("X", "", "", 4)
	a, err := g.CreateArray("v", []*Dimension{d0, d1, y, x}, Byte)
	require.NoError(t, err)
	require.NoError(t, a.WriteBlock(ctx, 39, 0, 0, make([]byte, 16)))
	require.NoError(t, ds.Close())

	f, err := store.Open("count.tif")
	require.NoError(t, err)
	defer f.Close()
	rd, err := tiff.OpenReader(f)
	require.NoError(t, err)
	require.Len(t, rd.Directories(), 40)

	// The last directory identifies the slice (4, 7).
	meta, _ := rd.Directories()[39].ASCII(tiff.TagMetadata)
	items, err := parseMetadata(meta)
	require.NoError(t, err)
	byName := map[string]string{}
	for _, it := range items {
		byName[it.Name] = it.Value
	}
	require.Equal(t, "4", byName["DIMENSION_0_IDX"])
	require.Equal(t, "7", byName["DIMENSION_1_IDX"])
}

func TestStringIndexingVariable(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()

	ds, err := Create(store, "bands.tif")
	require.NoError(t, err)
	g, _ := ds.RootGroup()
	b, _ := g.CreateDimension("band", "", "", 3)
	iv, err := g.CreateStringIndexingVariable("band", b)
	require.NoError(t, err)
	require.NoError(t, iv.SetStringValues([]string{"red", "green", "blue"}))
	require.NoError(t, b.SetIndexingVariable(iv))

	y, _ := g.CreateDimension("Y", "", "", 4)
	x, _ := g.CreateDimension("X", "", "", 4)
	a, err := g.CreateArray("refl", []*Dimension{b, y, x}, UInt16)
	require.NoError(t, err)

	want := make([]uint16, 3*4*4)
	for i := range want {
		want[i] = uint16(i)
	}
	require.NoError(t, a.Write(ctx, nil, nil, nil, want))
	require.NoError(t, ds.Close())

	ds2, err := Open(store, "bands.tif")
	require.NoError(t, err)
	defer ds2.Close()
	g2, _ := ds2.RootGroup()
	require.Equal(t, []string{"refl", "band"}, g2.ArrayNames())

	dims := g2.Dimensions()
	require.Len(t, dims, 3)
	iv2 := dims[0].IndexingVariable()
	require.NotNil(t, iv2)
	require.True(t, iv2.IsString())
	require.Equal(t, []string{"red", "green", "blue"}, iv2.StringValues())

	a2, err := g2.OpenArray("refl")
	require.NoError(t, err)
	got := make([]uint16, len(want))
	require.NoError(t, a2.Read(ctx, nil, nil, nil, got))
	require.Equal(t, want, got)
}

func TestNumericIndexingVariableRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()

	ds, err := Create(store, "levels.tif")
	require.NoError(t, err)
	g, _ := ds.RootGroup()
	l, _ := g.CreateDimension("level", "VERTICAL", "UP", 2)
	iv, err := g.CreateIndexingVariable("level", l, Int32)
	require.NoError(t, err)
	require.NoError(t, iv.SetValues([]float64{850, 500}))
	require.NoError(t, l.SetIndexingVariable(iv))

	y, _ := g.CreateDimension("Y", "", "", 4)
	x, _ := g.CreateDimension("X", "", "", 4)
	a, err := g.CreateArray("gph", []*Dimension{l, y, x}, Float64)
	require.NoError(t, err)
	require.NoError(t, a.Write(ctx, nil, nil, nil, make([]float64, 32)))
	require.NoError(t, ds.Close())

	ds2, err := Open(store, "levels.tif")
	require.NoError(t, err)
	defer ds2.Close()
	g2, _ := ds2.RootGroup()

	dims := g2.Dimensions()
	require.Equal(t, "level", dims[0].Name())
	require.Equal(t, "VERTICAL", dims[0].Type())
	require.Equal(t, "UP", dims[0].Direction())
	iv2 := dims[0].IndexingVariable()
	require.NotNil(t, iv2)
	require.False(t, iv2.IsString())
	require.Equal(t, Int32, iv2.DataType())
	require.Equal(t, []float64{850, 500}, iv2.Values())
}
