// Package tiff implements the minimal container layer: a classic
// little-endian multi-directory file with tiled payloads. The writer lays
// out every directory up front and lets callers append tile payloads later,
// patching offset/count arrays in place. The reader walks the directory
// chain and resolves tag values.
package tiff

// Tags used by the container.
const (
	TagImageWidth      uint16 = 256
	TagImageLength     uint16 = 257
	TagBitsPerSample   uint16 = 258
	TagCompression     uint16 = 259
	TagPhotometric     uint16 = 262
	TagSamplesPerPixel uint16 = 277
	TagPlanarConfig    uint16 = 284
	TagPredictor       uint16 = 317
	TagTileWidth       uint16 = 322
	TagTileLength      uint16 = 323
	TagTileOffsets     uint16 = 324
	TagTileByteCounts  uint16 = 325
	TagSampleFormat    uint16 = 339

	TagGeoPixelScale   uint16 = 33550
	TagGeoTiePoints    uint16 = 33922
	TagGeoTransMatrix  uint16 = 34264
	TagGeoKeyDirectory uint16 = 34735
	TagGeoDoubleParams uint16 = 34736
	TagGeoASCIIParams  uint16 = 34737

	TagMetadata uint16 = 42112
	TagNoData   uint16 = 42113
)

// Field types.
const (
	TypeByte     uint16 = 1
	TypeASCII    uint16 = 2
	TypeShort    uint16 = 3
	TypeLong     uint16 = 4
	TypeRational uint16 = 5
	TypeSByte    uint16 = 6
	TypeSShort   uint16 = 8
	TypeSLong    uint16 = 9
	TypeFloat    uint16 = 11
	TypeDouble   uint16 = 12
)

// MaxDirectories caps the directory chain. A longer chain is treated as a
// corrupt file rather than walked to exhaustion.
const MaxDirectories = 65536

func typeSize(t uint16) int {
	switch t {
	case TypeByte, TypeASCII, TypeSByte:
		return 1
	case TypeShort, TypeSShort:
		return 2
	case TypeLong, TypeSLong, TypeFloat:
		return 4
	case TypeRational, TypeDouble:
		return 8
	default:
		return 0
	}
}
