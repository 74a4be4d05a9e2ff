// Package snapshot persists float32 matrices in a compact, self-describing
// binary format.
//
// Layout: a fixed header (magic, version, compression, codec name), a
// codec-encoded Meta section, the payload as a sequence of independently
// compressed blocks, and a trailing CRC32 over the raw payload bytes.
// Files record the codec and compression used to write them, so any
// reader of the same format version can open them.
package snapshot

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"io"
	"os"
	"path/filepath"
	"unsafe"

	"github.com/hupe1980/numgo/codec"
	"github.com/hupe1980/numgo/internal/mem"
	"github.com/hupe1980/numgo/internal/pool"
)

// DefaultBlockSize is the raw payload bytes per compressed block.
const DefaultBlockSize = 256 * 1024

// WriteOptions configures how a snapshot is written.
type WriteOptions struct {
	// Compression selects the payload block compression.
	// The zero value stores blocks uncompressed.
	Compression Compression

	// Codec encodes the Meta section. Defaults to codec.Default.
	Codec codec.Codec

	// BlockSize is the raw payload bytes per block. Defaults to
	// DefaultBlockSize.
	BlockSize int
}

// Write serializes a rows x cols matrix held in row-major data.
func Write(w io.Writer, rows, cols int, data []float32, opts WriteOptions) error {
	if rows < 0 || cols < 0 || len(data) != rows*cols {
		return fmt.Errorf("%w: %d floats for %dx%d matrix", ErrInvalidFormat, len(data), rows, cols)
	}

	c := opts.Codec
	if c == nil {
		c = codec.Default
	}
	blockSize := opts.BlockSize
	if blockSize <= 0 {
		blockSize = DefaultBlockSize
	}

	codecName := c.Name()
	if len(codecName) > 255 {
		return fmt.Errorf("%w: codec name too long", ErrInvalidFormat)
	}

	// Fixed header: magic, version, compression, codec name.
	hdr := make([]byte, 0, 8+len(codecName))
	hdr = append(hdr, magic[:]...)
	hdr = binary.LittleEndian.AppendUint16(hdr, version)
	hdr = append(hdr, byte(opts.Compression), byte(len(codecName)))
	hdr = append(hdr, codecName...)
	if _, err := w.Write(hdr); err != nil {
		return fmt.Errorf("failed to write snapshot header: %w", err)
	}

	meta, err := c.Marshal(Meta{
		Rows:        rows,
		Cols:        cols,
		DType:       "float32",
		Compression: opts.Compression.String(),
	})
	if err != nil {
		return fmt.Errorf("failed to encode snapshot meta: %w", err)
	}
	var metaLen [4]byte
	binary.LittleEndian.PutUint32(metaLen[:], uint32(len(meta))) //nolint:gosec // meta is a small struct
	if _, err := w.Write(metaLen[:]); err != nil {
		return err
	}
	if _, err := w.Write(meta); err != nil {
		return err
	}

	scratch := pool.Get()
	defer pool.Put(scratch)

	// Direct memory view of the payload (no allocation).
	var payload []byte
	if len(data) > 0 {
		payload = unsafe.Slice((*byte)(unsafe.Pointer(&data[0])), len(data)*4)
	}

	sum := uint32(0)
	for off := 0; off < len(payload); off += blockSize {
		end := min(off+blockSize, len(payload))
		raw := payload[off:end]
		if err := writeBlock(w, raw, opts.Compression, scratch); err != nil {
			return fmt.Errorf("failed to write payload block: %w", err)
		}
		sum = crc32.Update(sum, crc32.IEEETable, raw)
	}

	var trailer [4]byte
	binary.LittleEndian.PutUint32(trailer[:], sum)
	if _, err := w.Write(trailer[:]); err != nil {
		return fmt.Errorf("failed to write snapshot checksum: %w", err)
	}
	return nil
}

// Read deserializes a snapshot. The returned slice is freshly allocated
// with 64-byte alignment, so it is usable by any kernel variant.
func Read(r io.Reader) (Meta, []float32, error) {
	var fixed [8]byte
	if _, err := io.ReadFull(r, fixed[:]); err != nil {
		return Meta{}, nil, fmt.Errorf("failed to read snapshot header: %w", err)
	}
	if [4]byte(fixed[0:4]) != magic {
		return Meta{}, nil, ErrInvalidMagic
	}
	if v := binary.LittleEndian.Uint16(fixed[4:6]); v != version {
		return Meta{}, nil, fmt.Errorf("%w: got %d", ErrInvalidVersion, v)
	}
	comp := Compression(fixed[6])

	nameBuf := make([]byte, fixed[7])
	if _, err := io.ReadFull(r, nameBuf); err != nil {
		return Meta{}, nil, fmt.Errorf("failed to read codec name: %w", err)
	}
	c, ok := codec.ByName(string(nameBuf))
	if !ok {
		return Meta{}, nil, fmt.Errorf("%w: %q", ErrUnknownCodec, nameBuf)
	}

	var metaLen [4]byte
	if _, err := io.ReadFull(r, metaLen[:]); err != nil {
		return Meta{}, nil, fmt.Errorf("failed to read meta length: %w", err)
	}
	metaBuf := make([]byte, binary.LittleEndian.Uint32(metaLen[:]))
	if _, err := io.ReadFull(r, metaBuf); err != nil {
		return Meta{}, nil, fmt.Errorf("failed to read meta: %w", err)
	}
	var meta Meta
	if err := c.Unmarshal(metaBuf, &meta); err != nil {
		return Meta{}, nil, fmt.Errorf("failed to decode meta: %w", err)
	}
	if meta.Rows < 0 || meta.Cols < 0 {
		return Meta{}, nil, fmt.Errorf("%w: %dx%d matrix", ErrInvalidFormat, meta.Rows, meta.Cols)
	}
	if meta.DType != "float32" {
		return Meta{}, nil, fmt.Errorf("%w: unsupported dtype %q", ErrInvalidFormat, meta.DType)
	}

	n := meta.Rows * meta.Cols
	data := mem.AllocAlignedFloat32(n, mem.MaxAlignment)

	scratch := pool.Get()
	defer pool.Put(scratch)

	var payload []byte
	if n > 0 {
		payload = unsafe.Slice((*byte)(unsafe.Pointer(&data[0])), n*4)
	}

	sum := uint32(0)
	for remaining := payload; len(remaining) > 0; {
		produced, err := readBlock(r, remaining, comp, scratch)
		if err != nil {
			return Meta{}, nil, fmt.Errorf("failed to read payload block: %w", err)
		}
		sum = crc32.Update(sum, crc32.IEEETable, remaining[:produced])
		remaining = remaining[produced:]
	}

	var trailer [4]byte
	if _, err := io.ReadFull(r, trailer[:]); err != nil {
		return Meta{}, nil, fmt.Errorf("failed to read snapshot checksum: %w", err)
	}
	if want := binary.LittleEndian.Uint32(trailer[:]); want != sum {
		return Meta{}, nil, fmt.Errorf("%w: expected 0x%08x, got 0x%08x", ErrChecksum, want, sum)
	}

	return meta, data, nil
}

// SaveToFile writes to filename atomically: writeFunc receives a buffered
// writer to a temp file in the same directory, which is renamed over the
// target only after a successful flush and sync.
func SaveToFile(filename string, writeFunc func(w io.Writer) error) error {
	dir := filepath.Dir(filename)
	base := filepath.Base(filename)

	tmp, err := os.CreateTemp(dir, base+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() {
		_ = tmp.Close()
		if tmpName != "" {
			_ = os.Remove(tmpName)
		}
	}()

	// Match typical file permissions (best-effort).
	_ = tmp.Chmod(0644)

	buf := bufio.NewWriterSize(tmp, DefaultBlockSize)
	if err := writeFunc(buf); err != nil {
		return err
	}
	if err := buf.Flush(); err != nil {
		return err
	}
	if err := tmp.Sync(); err != nil {
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	if err := os.Rename(tmpName, filename); err != nil {
		return err
	}

	// Best-effort: fsync the directory so the rename is durable on POSIX.
	if d, err := os.Open(dir); err == nil {
		_ = d.Sync()
		_ = d.Close()
	}

	// Success: keep the deferred cleanup away from the final file.
	tmpName = ""
	return nil
}

// LoadFromFile opens filename and hands readFunc a buffered reader.
func LoadFromFile(filename string, readFunc func(r io.Reader) error) error {
	f, err := os.Open(filename)
	if err != nil {
		return err
	}
	defer f.Close()

	return readFunc(bufio.NewReaderSize(f, DefaultBlockSize))
}

// SaveFile writes a snapshot to filename atomically.
func SaveFile(filename string, rows, cols int, data []float32, opts WriteOptions) error {
	return SaveToFile(filename, func(w io.Writer) error {
		return Write(w, rows, cols, data, opts)
	})
}

// LoadFile reads a snapshot from filename.
func LoadFile(filename string) (Meta, []float32, error) {
	var meta Meta
	var data []float32
	err := LoadFromFile(filename, func(r io.Reader) error {
		var err error
		meta, data, err = Read(r)
		return err
	})
	if err != nil {
		return Meta{}, nil, err
	}
	return meta, data, nil
}
