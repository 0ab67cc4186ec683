package embedder

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/klauspost/compress/zstd"
)

// DefaultDiskCacheMaxBytes caps the on-disk embedding cache at roughly 1GB
// before the oldest entries start getting evicted.
const DefaultDiskCacheMaxBytes int64 = 1 << 30

// DiskCache persists embeddings to disk as zstd-compressed blobs, one file
// per content hash. It sits behind the in-memory Cache as a second tier:
// a miss there that hits here still avoids a round trip to the embedding
// provider, at the cost of a local decompress.
type DiskCache struct {
	dir      string
	maxBytes int64

	mu  sync.Mutex
	enc *zstd.Encoder
	dec *zstd.Decoder
}

// NewDiskCache creates (or reopens) a disk cache rooted at dir. A maxBytes
// of 0 uses DefaultDiskCacheMaxBytes.
func NewDiskCache(dir string, maxBytes int64) (*DiskCache, error) {
	if maxBytes <= 0 {
		maxBytes = DefaultDiskCacheMaxBytes
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create embedding cache dir: %w", err)
	}
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to init zstd encoder: %w", err)
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		enc.Close()
		return nil, fmt.Errorf("failed to init zstd decoder: %w", err)
	}
	return &DiskCache{dir: dir, maxBytes: maxBytes, enc: enc, dec: dec}, nil
}

// Close releases the encoder/decoder resources. It does not touch files
// already written to disk.
func (d *DiskCache) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.enc.Close()
	d.dec.Close()
	return nil
}

func (d *DiskCache) path(hash string) string {
	return filepath.Join(d.dir, hash+".zst")
}

// Get reads and decompresses a cached embedding, if present.
func (d *DiskCache) Get(hash string) (*Embedding, bool) {
	raw, err := os.ReadFile(d.path(hash))
	if err != nil {
		return nil, false
	}

	d.mu.Lock()
	decompressed, err := d.dec.DecodeAll(raw, nil)
	d.mu.Unlock()
	if err != nil {
		return nil, false
	}

	emb, err := decodeEmbedding(decompressed)
	if err != nil {
		return nil, false
	}
	emb.Hash = hash
	return emb, true
}

// Set compresses and writes emb to disk under hash, then evicts the
// least-recently-written entries if the cache has grown past maxBytes.
func (d *DiskCache) Set(hash string, emb *Embedding) error {
	encoded := encodeEmbedding(emb)

	d.mu.Lock()
	compressed := d.enc.EncodeAll(encoded, nil)
	d.mu.Unlock()

	tmp := d.path(hash) + ".tmp"
	if err := os.WriteFile(tmp, compressed, 0o644); err != nil {
		return fmt.Errorf("failed to write embedding cache entry: %w", err)
	}
	if err := os.Rename(tmp, d.path(hash)); err != nil {
		return fmt.Errorf("failed to finalize embedding cache entry: %w", err)
	}

	return d.evictIfOverCap(d.path(hash))
}

// evictIfOverCap removes the oldest-by-mtime cache files until the total
// on-disk size is back under maxBytes. The entry at keep (the one just
// written) is never evicted.
func (d *DiskCache) evictIfOverCap(keep string) error {
	entries, err := os.ReadDir(d.dir)
	if err != nil {
		return err
	}

	type fileInfo struct {
		path    string
		size    int64
		modTime int64
	}
	files := make([]fileInfo, 0, len(entries))
	var total int64
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".zst" {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		files = append(files, fileInfo{
			path:    filepath.Join(d.dir, e.Name()),
			size:    info.Size(),
			modTime: info.ModTime().UnixNano(),
		})
		total += info.Size()
	}
	if total <= d.maxBytes {
		return nil
	}

	sort.Slice(files, func(i, j int) bool { return files[i].modTime < files[j].modTime })
	for _, f := range files {
		if total <= d.maxBytes {
			break
		}
		if f.path == keep {
			continue
		}
		if err := os.Remove(f.path); err != nil {
			continue
		}
		total -= f.size
	}
	return nil
}

// encodeEmbedding packs an Embedding into a compact binary form:
// dimension (u32) | provider len (u16) + bytes | model len (u16) + bytes | vector floats.
func encodeEmbedding(emb *Embedding) []byte {
	buf := make([]byte, 0, 4+2+len(emb.Provider)+2+len(emb.Model)+len(emb.Vector)*4)

	var u32 [4]byte
	binary.LittleEndian.PutUint32(u32[:], uint32(emb.Dimension))
	buf = append(buf, u32[:]...)

	buf = appendLengthPrefixed(buf, emb.Provider)
	buf = appendLengthPrefixed(buf, emb.Model)

	for _, v := range emb.Vector {
		var f [4]byte
		binary.LittleEndian.PutUint32(f[:], math.Float32bits(v))
		buf = append(buf, f[:]...)
	}
	return buf
}

func decodeEmbedding(data []byte) (*Embedding, error) {
	if len(data) < 4 {
		return nil, errors.New("embedding cache entry truncated")
	}
	dimension := int(binary.LittleEndian.Uint32(data[:4]))
	rest := data[4:]

	provider, rest, err := readLengthPrefixed(rest)
	if err != nil {
		return nil, err
	}
	model, rest, err := readLengthPrefixed(rest)
	if err != nil {
		return nil, err
	}

	if len(rest)%4 != 0 {
		return nil, errors.New("embedding cache vector data misaligned")
	}
	vector := make([]float32, len(rest)/4)
	for i := range vector {
		vector[i] = math.Float32frombits(binary.LittleEndian.Uint32(rest[i*4 : i*4+4]))
	}

	return &Embedding{
		Vector:    vector,
		Dimension: dimension,
		Provider:  provider,
		Model:     model,
	}, nil
}

func appendLengthPrefixed(buf []byte, s string) []byte {
	var l [2]byte
	binary.LittleEndian.PutUint16(l[:], uint16(len(s)))
	buf = append(buf, l[:]...)
	return append(buf, s...)
}

func readLengthPrefixed(data []byte) (string, []byte, error) {
	if len(data) < 2 {
		return "", nil, io.ErrUnexpectedEOF
	}
	n := int(binary.LittleEndian.Uint16(data[:2]))
	data = data[2:]
	if len(data) < n {
		return "", nil, io.ErrUnexpectedEOF
	}
	return string(data[:n]), data[n:], nil
}
