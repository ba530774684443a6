package mdtiff

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hupe1980/mdtiff/blobstore"
)

func TestCompressionRoundTrips(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name       string
		opts       []ArrayOption
		structural map[string]string
	}{
		{
			name:       "DEFLATE",
			opts:       []ArrayOption{WithCompression("DEFLATE")},
			structural: map[string]string{"COMPRESSION": "DEFLATE"},
		},
		{
			name:       "DEFLATE_ZLEVEL9",
			opts:       []ArrayOption{WithCompression("DEFLATE"), WithZLevel(9)},
			structural: map[string]string{"COMPRESSION": "DEFLATE"},
		},
		{
			name:       "LZW",
			opts:       []ArrayOption{WithCompression("LZW")},
			structural: map[string]string{"COMPRESSION": "LZW"},
		},
		{
			name:       "ZSTD",
			opts:       []ArrayOption{WithCompression("ZSTD")},
			structural: map[string]string{"COMPRESSION": "ZSTD"},
		},
		{
			name:       "ZSTD_LEVEL15",
			opts:       []ArrayOption{WithCompression("ZSTD"), WithZSTDLevel(15)},
			structural: map[string]string{"COMPRESSION": "ZSTD"},
		},
		{
			name:       "LZMA",
			opts:       []ArrayOption{WithCompression("LZMA")},
			structural: map[string]string{"COMPRESSION": "LZMA"},
		},
		{
			name:       "LZMA_PRESET9",
			opts:       []ArrayOption{WithCompression("LZMA"), WithLZMAPreset(9)},
			structural: map[string]string{"COMPRESSION": "LZMA"},
		},
		{
			name:       "LZ4",
			opts:       []ArrayOption{WithCompression("LZ4")},
			structural: map[string]string{"COMPRESSION": "LZ4"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := blobstore.NewMemoryStore()
			opts := append([]ArrayOption{WithBlockSize(16, 32)}, tt.opts...)
			ds, a := create2D(t, store, "comp.tif", 33, 65, opts...)

			want := ramp(33, 65)
			require.NoError(t, a.Write(ctx, nil, nil, nil, want))
			require.NoError(t, ds.Close())

			ds2, err := Open(store, "comp.tif")
			require.NoError(t, err)
			defer ds2.Close()
			g, _ := ds2.RootGroup()
			a2, err := g.OpenArray("ar")
			require.NoError(t, err)
			require.Equal(t, tt.structural, a2.StructuralInfo())

			got := make([]float64, len(want))
			require.NoError(t, a2.Read(ctx, nil, nil, nil, got))
			require.Equal(t, want, got)
		})
	}
}

func TestPredictorRoundTrip(t *testing.T) {
	ctx := context.Background()

	for _, comp := range []string{"LZW", "DEFLATE", "ZSTD"} {
		t.Run(comp, func(t *testing.T) {
			store := blobstore.NewMemoryStore()
			ds, err := Create(store, "pred.tif")
			require.NoError(t, err)
			g, _ := ds.RootGroup()
			y, _ := g.CreateDimension("Y", "", "", 33)
			x, _ := g.CreateDimension("X", "", "", 65)
			a, err := g.CreateArray("ar", []*Dimension{y, x}, UInt16,
				WithBlockSize(16, 32), WithCompression(comp), WithPredictor(2))
			require.NoError(t, err)

			want := make([]uint16, 33*65)
			for i := range want {
				want[i] = uint16(i)
			}
			require.NoError(t, a.Write(ctx, nil, nil, nil, want))
			require.NoError(t, ds.Close())

			ds2, err := Open(store, "pred.tif")
			require.NoError(t, err)
			defer ds2.Close()
			g2, _ := ds2.RootGroup()
			a2, err := g2.OpenArray("ar")
			require.NoError(t, err)
			require.Equal(t, map[string]string{
				"COMPRESSION": comp,
				"PREDICTOR":   "2",
			}, a2.StructuralInfo())

			got := make([]uint16, len(want))
			require.NoError(t, a2.Read(ctx, nil, nil, nil, got))
			require.Equal(t, want, got)
		})
	}
}

func TestPredictorValidation(t *testing.T) {
	store := blobstore.NewMemoryStore()
	ds, err := Create(store, "predval.tif")
	require.NoError(t, err)
	defer ds.Close()
	g, _ := ds.RootGroup()
	y, _ := g.CreateDimension("Y", "", "", 8)
	x, _ := g.CreateDimension("X", "", "", 8)

	_, err = g.CreateArray("f", []*Dimension{y, x}, Float32,
		WithCompression("LZW"), WithPredictor(2))
	require.ErrorContains(t, err, "integer data type")

	_, err = g.CreateArray("f", []*Dimension{y, x}, UInt16,
		WithCompression("LZ4"), WithPredictor(2))
	require.ErrorContains(t, err, "requires LZW, DEFLATE or ZSTD")

	_, err = g.CreateArray("f", []*Dimension{y, x}, UInt16,
		WithCompression("NOSUCH"))
	require.ErrorContains(t, err, "unsupported compression")
}
