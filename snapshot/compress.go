package snapshot

import (
	"encoding/binary"
	"fmt"
	"io"
	"sync"

	"github.com/hupe1980/numgo/internal/pool"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Payload block format: [RawSize uint32][CompressedSize uint32][Data...].
// If CompressedSize == 0, the block is stored uncompressed.
const blockHeaderSize = 8

// ZSTD encoder/decoder pools for efficiency
var (
	zstdEncoderPool sync.Pool
	zstdDecoderPool sync.Pool
)

func getZstdEncoder() *zstd.Encoder {
	if v := zstdEncoderPool.Get(); v != nil {
		return v.(*zstd.Encoder)
	}
	// SpeedDefault balances compression ratio vs speed
	enc, _ := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	return enc
}

func putZstdEncoder(enc *zstd.Encoder) {
	zstdEncoderPool.Put(enc)
}

func getZstdDecoder() *zstd.Decoder {
	if v := zstdDecoderPool.Get(); v != nil {
		return v.(*zstd.Decoder)
	}
	dec, _ := zstd.NewReader(nil)
	return dec
}

func putZstdDecoder(dec *zstd.Decoder) {
	zstdDecoderPool.Put(dec)
}

// writeBlock compresses one payload block and writes it with its header.
// Blocks that do not compress well (ratio > 0.9) are stored raw.
func writeBlock(w io.Writer, raw []byte, comp Compression, scratch *pool.Scratch) error {
	var compressed []byte

	switch comp {
	case CompressionLZ4:
		bound := lz4.CompressBlockBound(len(raw))
		dst := scratch.Bytes(bound)
		n, err := lz4.CompressBlock(raw, dst, nil)
		if err != nil {
			return fmt.Errorf("lz4 compress: %w", err)
		}
		compressed = dst[:n] // n == 0 means incompressible
	case CompressionZSTD:
		enc := getZstdEncoder()
		compressed = enc.EncodeAll(raw, scratch.Bytes(0))
		putZstdEncoder(enc)
	}

	var hdr [blockHeaderSize]byte
	binary.LittleEndian.PutUint32(hdr[0:], uint32(len(raw)))

	if len(compressed) == 0 || float64(len(compressed)) > float64(len(raw))*0.9 {
		binary.LittleEndian.PutUint32(hdr[4:], 0) // 0 = uncompressed
		if _, err := w.Write(hdr[:]); err != nil {
			return err
		}
		_, err := w.Write(raw)
		return err
	}

	binary.LittleEndian.PutUint32(hdr[4:], uint32(len(compressed))) //nolint:gosec // bounded by raw block size
	if _, err := w.Write(hdr[:]); err != nil {
		return err
	}
	_, err := w.Write(compressed)
	return err
}

// readBlock reads and decompresses the next payload block into dst, which
// holds the remaining undecoded payload. It returns the number of raw
// bytes produced.
func readBlock(r io.Reader, dst []byte, comp Compression, scratch *pool.Scratch) (int, error) {
	var hdr [blockHeaderSize]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return 0, err
	}

	rawSize := int(binary.LittleEndian.Uint32(hdr[0:]))
	compSize := int(binary.LittleEndian.Uint32(hdr[4:]))

	if rawSize == 0 {
		return 0, fmt.Errorf("%w: empty payload block", ErrInvalidFormat)
	}
	if rawSize > len(dst) {
		return 0, fmt.Errorf("%w: block of %d bytes exceeds remaining payload %d", ErrInvalidFormat, rawSize, len(dst))
	}
	window := dst[:rawSize]

	if compSize == 0 {
		if _, err := io.ReadFull(r, window); err != nil {
			return 0, err
		}
		return rawSize, nil
	}

	src := scratch.Bytes(compSize)
	if _, err := io.ReadFull(r, src); err != nil {
		return 0, err
	}

	switch comp {
	case CompressionLZ4:
		n, err := lz4.UncompressBlock(src, window)
		if err != nil {
			return 0, fmt.Errorf("lz4 decompress: %w", err)
		}
		if n != rawSize {
			return 0, fmt.Errorf("%w: decompressed size mismatch", ErrInvalidFormat)
		}
		return rawSize, nil

	case CompressionZSTD:
		dec := getZstdDecoder()
		decoded, err := dec.DecodeAll(src, window[:0:rawSize])
		putZstdDecoder(dec)
		if err != nil {
			return 0, fmt.Errorf("zstd decompress: %w", err)
		}
		if len(decoded) != rawSize {
			return 0, fmt.Errorf("%w: decompressed size mismatch", ErrInvalidFormat)
		}
		// DecodeAll reallocates if the capped destination was too small;
		// that only happens for corrupt input, but stay in place regardless.
		if &decoded[0] != &window[0] {
			copy(window, decoded)
		}
		return rawSize, nil

	default:
		return 0, fmt.Errorf("%w: compressed block with compression %q", ErrInvalidFormat, comp)
	}
}
