package mdtiff

import (
	"log/slog"
)

type options struct {
	logger     *Logger
	cacheTiles int
	permissive bool
}

// Option configures Create/Open behavior.
type Option func(*options)

// WithLogger configures structured logging for operations.
// Pass nil to disable logging.
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		if logger == nil {
			logger = NoopLogger()
		}
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

// WithTileCacheSize configures how many decoded tiles are kept per array
// handle. Defaults to 64.
func WithTileCacheSize(tiles int) Option {
	return func(o *options) {
		if tiles > 0 {
			o.cacheTiles = tiles
		}
	}
}

// WithPermissiveValidation disables the consistency checks normally run
// against each directory on first access. Data read through unvalidated
// directories may be silently wrong if the file was tampered with.
func WithPermissiveValidation() Option {
	return func(o *options) {
		o.permissive = true
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		logger:     NoopLogger(),
		cacheTiles: 64,
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	return o
}

type arrayOptions struct {
	blockSize  []uint64
	compress   string
	predictor  uint16
	zLevel     int
	zstdLevel  int
	lzmaPreset int
}

// ArrayOption configures array creation.
type ArrayOption func(*arrayOptions)

// WithBlockSize sets the block extents. Two values set the in-plane block
// (rows, cols) and leave every slow dimension at 1; one value per dimension
// sets the full tuple. Defaults to an in-plane block of 256x256.
func WithBlockSize(sizes ...uint64) ArrayOption {
	return func(o *arrayOptions) {
		o.blockSize = sizes
	}
}

// WithCompression selects the tile codec by name: NONE, LZW, DEFLATE, ZSTD,
// LZMA or LZ4. Defaults to NONE.
func WithCompression(name string) ArrayOption {
	return func(o *arrayOptions) {
		o.compress = name
	}
}

// WithPredictor enables horizontal differencing (predictor 2) before
// compression. Only valid for integer data types with LZW, DEFLATE or ZSTD.
func WithPredictor(predictor int) ArrayOption {
	return func(o *arrayOptions) {
		o.predictor = uint16(predictor)
	}
}

// WithZLevel sets the DEFLATE compression level (1-9). Write-time only.
func WithZLevel(level int) ArrayOption {
	return func(o *arrayOptions) {
		o.zLevel = level
	}
}

// WithZSTDLevel sets the ZSTD compression level (1-22). Write-time only.
func WithZSTDLevel(level int) ArrayOption {
	return func(o *arrayOptions) {
		o.zstdLevel = level
	}
}

// WithLZMAPreset sets the LZMA preset (1-9). Write-time only.
func WithLZMAPreset(preset int) ArrayOption {
	return func(o *arrayOptions) {
		o.lzmaPreset = preset
	}
}

func applyArrayOptions(optFns []ArrayOption) arrayOptions {
	o := arrayOptions{
		predictor: 1,
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	return o
}
