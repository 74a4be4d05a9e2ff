package snapshot

import "errors"

var (
	// magic identifies numgo snapshot files (ASCII: "NGS0").
	magic = [4]byte{'N', 'G', 'S', '0'}

	// version is the current snapshot format version.
	version = uint16(1)
)

var (
	ErrInvalidMagic   = errors.New("invalid magic number")
	ErrInvalidVersion = errors.New("unsupported version")
	ErrInvalidFormat  = errors.New("invalid snapshot format")
	ErrUnknownCodec   = errors.New("unknown codec")
	ErrChecksum       = errors.New("checksum mismatch")
)

// Compression defines the block compression algorithm used for the payload.
type Compression uint8

const (
	// CompressionNone stores payload blocks uncompressed.
	CompressionNone Compression = 0
	// CompressionLZ4 uses LZ4 block compression (fast, good for hot data).
	CompressionLZ4 Compression = 1
	// CompressionZSTD uses ZSTD block compression (better ratio, good for cold data).
	CompressionZSTD Compression = 2
)

// String returns the stable name of the compression algorithm.
func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionLZ4:
		return "lz4"
	case CompressionZSTD:
		return "zstd"
	default:
		return "unknown"
	}
}

// ParseCompression maps a stable name back to a Compression value.
func ParseCompression(s string) (Compression, bool) {
	switch s {
	case "none", "":
		return CompressionNone, true
	case "lz4":
		return CompressionLZ4, true
	case "zstd":
		return CompressionZSTD, true
	default:
		return CompressionNone, false
	}
}

// Meta describes the matrix stored in a snapshot. It is encoded with the
// codec named in the fixed header, so files remain self-describing.
type Meta struct {
	Rows        int    `json:"rows"`
	Cols        int    `json:"cols"`
	DType       string `json:"dtype"`
	Compression string `json:"compression"`
}
