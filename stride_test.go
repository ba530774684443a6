package mdtiff

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hupe1980/mdtiff/blobstore"
)

func TestStridedRead(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()
	ds, a := create2D(t, store, "stride.tif", 16, 32, WithBlockSize(4, 8))
	defer ds.Close()

	require.NoError(t, a.Write(ctx, nil, nil, nil, ramp(16, 32)))

	t.Run("forward", func(t *testing.T) {
		got := make([]float64, 5*4)
		require.NoError(t, a.Read(ctx, []int64{1, 2}, []uint64{5, 4}, []int64{3, 2}, got))
		for i := 0; i < 5; i++ {
			for j := 0; j < 4; j++ {
				want := float64((1+3*i)*100 + 2 + 2*j)
				require.Equal(t, want, got[i*4+j], "sample (%d,%d)", i, j)
			}
		}
	})

	t.Run("backward", func(t *testing.T) {
		got := make([]float64, 5*4)
		require.NoError(t, a.Read(ctx, []int64{14, 30}, []uint64{5, 4}, []int64{-2, -3}, got))
		for i := 0; i < 5; i++ {
			for j := 0; j < 4; j++ {
				want := float64((14-2*i)*100 + 30 - 3*j)
				require.Equal(t, want, got[i*4+j], "sample (%d,%d)", i, j)
			}
		}
	})
}

func TestStridedWrite(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()
	ds, a := create2D(t, store, "swrite.tif", 10, 12, WithBlockSize(4, 5))
	defer ds.Close()

	require.NoError(t, a.Write(ctx, nil, nil, nil, ramp(10, 12)))

	src := make([]float64, 3*4)
	for k := range src {
		src[k] = 1000 + float64(k)
	}
	require.NoError(t, a.Write(ctx, []int64{1, 2}, []uint64{3, 4}, []int64{2, 3}, src))

	got := make([]float64, 10*12)
	require.NoError(t, a.Read(ctx, nil, nil, nil, got))
	for y := 0; y < 10; y++ {
		for x := 0; x < 12; x++ {
			want := float64(y*100 + x)
			if y >= 1 && (y-1)%2 == 0 && y <= 5 && x >= 2 && (x-2)%3 == 0 && x <= 11 {
				i := (y - 1) / 2
				j := (x - 2) / 3
				want = 1000 + float64(i*4+j)
			}
			require.Equal(t, want, got[y*12+x], "sample (%d,%d)", y, x)
		}
	}
}

func TestNegativeStrideWrite(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()
	ds, a := create2D(t, store, "nwrite.tif", 6, 6, WithBlockSize(3, 3))
	defer ds.Close()

	src := []float64{1, 2, 3, 4}
	require.NoError(t, a.Write(ctx, []int64{4, 4}, []uint64{2, 2}, []int64{-2, -3}, src))

	got := make([]float64, 36)
	require.NoError(t, a.Read(ctx, nil, nil, nil, got))
	require.Equal(t, 1.0, got[4*6+4])
	require.Equal(t, 2.0, got[4*6+1])
	require.Equal(t, 3.0, got[2*6+4])
	require.Equal(t, 4.0, got[2*6+1])
}

func TestWindowBounds(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()
	ds, a := create2D(t, store, "bounds.tif", 8, 8)
	defer ds.Close()

	var oor *ErrOutOfRange
	err := a.Read(ctx, []int64{0, 0}, []uint64{9, 8}, nil, make([]float64, 72))
	require.ErrorAs(t, err, &oor)
	require.Equal(t, "dimY", oor.Dim)

	err = a.Read(ctx, []int64{-1, 0}, []uint64{1, 8}, nil, make([]float64, 8))
	require.ErrorAs(t, err, &oor)

	err = a.Read(ctx, []int64{7, 0}, []uint64{2, 8}, []int64{1, 1}, make([]float64, 16))
	require.ErrorAs(t, err, &oor)

	// A backward walk may not cross the lower bound either.
	err = a.Read(ctx, []int64{1, 0}, []uint64{3, 8}, []int64{-1, 1}, make([]float64, 24))
	require.ErrorAs(t, err, &oor)

	// Zero step needs a count of one.
	err = a.Read(ctx, []int64{3, 0}, []uint64{2, 8}, []int64{0, 1}, make([]float64, 16))
	require.Error(t, err)
	require.NoError(t, a.Read(ctx, []int64{3, 0}, []uint64{1, 8}, []int64{0, 1}, make([]float64, 8)))
}

// create3D builds a Float32 array over (time, Y, X).
func create3D(t *testing.T, store blobstore.Store, name string, tsize, ysize, xsize uint64) (*Dataset, *Array) {
	t.Helper()
	ds, err := Create(store, name)
	require.NoError(t, err)
	g, _ := ds.RootGroup()
	tm, err := g.CreateDimension("time", "", "", tsize)
	require.NoError(t, err)
	y, _ := g.CreateDimension("Y", "", "", ysize)
	x, _ := g.CreateDimension("X", "", "", xsize)
	a, err := g.CreateArray("cube", []*Dimension{tm, y, x}, Float32, WithBlockSize(2, 3))
	require.NoError(t, err)
	return ds, a
}

func ramp3D(tsize, ysize, xsize int) []float32 {
	out := make([]float32, tsize*ysize*xsize)
	for k := range out {
		tt := k / (ysize * xsize)
		y := k / xsize % ysize
		x := k % xsize
		out[k] = float32(tt*1000 + y*100 + x)
	}
	return out
}

func Test3DRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()
	ds, a := create3D(t, store, "cube.tif", 3, 4, 5)

	want := ramp3D(3, 4, 5)
	require.NoError(t, a.Write(ctx, nil, nil, nil, want))
	require.NoError(t, ds.Close())

	ds2, err := Open(store, "cube.tif")
	require.NoError(t, err)
	defer ds2.Close()
	g, _ := ds2.RootGroup()
	a2, err := g.OpenArray("cube")
	require.NoError(t, err)
	require.Equal(t, []uint64{3, 4, 5}, a2.Shape())
	require.Equal(t, []uint64{1, 2, 3}, a2.BlockSize())

	got := make([]float32, len(want))
	require.NoError(t, a2.Read(ctx, nil, nil, nil, got))
	require.Equal(t, want, got)

	// One plane.
	plane := make([]float32, 4*5)
	require.NoError(t, a2.Read(ctx, []int64{1, 0, 0}, []uint64{1, 4, 5}, nil, plane))
	require.Equal(t, want[20:40], plane)

	// Planes in reverse order.
	rev := make([]float32, len(want))
	require.NoError(t, a2.Read(ctx, []int64{2, 0, 0}, []uint64{3, 4, 5}, []int64{-1, 1, 1}, rev))
	require.Equal(t, want[40:60], rev[0:20])
	require.Equal(t, want[20:40], rev[20:40])
	require.Equal(t, want[0:20], rev[40:60])
}

func TestSlowBlockSize(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()

	ds, err := Create(store, "chunk.tif")
	require.NoError(t, err)
	g, _ := ds.RootGroup()
	d0, _ := g.CreateDimension("a", "", "", 2)
	d1, _ := g.CreateDimension("b", "", "", 3)
	y, _ := g.CreateDimension("Y", "", "", 16)
	x, _ := g.CreateDimension("X", "", "", 32)

	// A partial tuple is rejected.
	_, err = g.CreateArray("bad", []*Dimension{d0, d1, y, x}, Float32,
		WithBlockSize(2, 16, 32))
	require.ErrorContains(t, err, "block size")

	a, err := g.CreateArray("hyper", []*Dimension{d0, d1, y, x}, Float32,
		WithBlockSize(2, 3, 16, 32))
	require.NoError(t, err)
	require.Equal(t, []uint64{2, 3, 16, 32}, a.BlockSize())

	want := make([]float32, 2*3*16*32)
	for i := range want {
		want[i] = float32(i)
	}
	require.NoError(t, a.Write(ctx, nil, nil, nil, want))
	require.NoError(t, ds.Close())

	ds2, err := Open(store, "chunk.tif")
	require.NoError(t, err)
	defer ds2.Close()
	g2, _ := ds2.RootGroup()
	a2, err := g2.OpenArray("hyper")
	require.NoError(t, err)
	require.Equal(t, []uint64{2, 3, 16, 32}, a2.BlockSize())

	got := make([]float32, len(want))
	require.NoError(t, a2.Read(ctx, nil, nil, nil, got))
	require.Equal(t, want, got)
}

func Test4DRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()

	ds, err := Create(store, "hyper.tif")
	require.NoError(t, err)
	g, _ := ds.RootGroup()
	d0, _ := g.CreateDimension("a", "", "", 2)
	d1, _ := g.CreateDimension("b", "", "", 3)
	y, _ := g.CreateDimension("Y", "", "", 4)
	x, _ := g.CreateDimension("X", "", "", 5)
	a, err := g.CreateArray("hyper", []*Dimension{d0, d1, y, x}, Int32, WithBlockSize(4, 5))
	require.NoError(t, err)

	want := make([]int32, 2*3*4*5)
	for i := range want {
		want[i] = int32(i * 7)
	}
	require.NoError(t, a.Write(ctx, nil, nil, nil, want))
	require.NoError(t, ds.Close())

	ds2, err := Open(store, "hyper.tif")
	require.NoError(t, err)
	defer ds2.Close()
	g2, _ := ds2.RootGroup()
	a2, err := g2.OpenArray("hyper")
	require.NoError(t, err)
	require.Equal(t, []uint64{2, 3, 4, 5}, a2.Shape())

	got := make([]int32, len(want))
	require.NoError(t, a2.Read(ctx, nil, nil, nil, got))
	require.Equal(t, want, got)

	// A single cell across both slow dimensions.
	cell := make([]int32, 2*3)
	require.NoError(t, a2.Read(ctx, []int64{0, 0, 2, 3}, []uint64{2, 3, 1, 1}, nil, cell))
	for i := 0; i < 2; i++ {
		for j := 0; j < 3; j++ {
			require.Equal(t, want[(i*3+j)*20+2*5+3], cell[i*3+j])
		}
	}
}
