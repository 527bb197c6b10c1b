// Package vector provides an in-memory index using brute-force cosine search.
package vector

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
	"sync"
)

// MemoryIndex is an in-memory vector index using brute-force cosine search.
// Suitable for paper collections up to tens of thousands of entries.
type MemoryIndex struct {
	dimensions int
	ids        []string
	records    map[string]*Record
	mu         sync.RWMutex
}

// NewMemoryIndex creates an in-memory vector index with the given dimension.
func NewMemoryIndex(dimensions int) (*MemoryIndex, error) {
	if dimensions <= 0 {
		return nil, fmt.Errorf("dimensions must be positive")
	}
	return &MemoryIndex{
		dimensions: dimensions,
		ids:        make([]string, 0),
		records:    make(map[string]*Record),
	}, nil
}

// Dimensions returns the vector dimension the index enforces.
func (m *MemoryIndex) Dimensions() int {
	return m.dimensions
}

// Insert stores a record. An existing ID is replaced in place, keeping its
// original insertion position. On dimension mismatch the index is unchanged.
func (m *MemoryIndex) Insert(ctx context.Context, rec *Record) error {
	if rec == nil || rec.ID == "" {
		return fmt.Errorf("record must have an id")
	}
	if len(rec.Vector) != m.dimensions {
		return fmt.Errorf("%w: got %d, expected %d", ErrDimensionMismatch, len(rec.Vector), m.dimensions)
	}
	stored := &Record{
		ID:       rec.ID,
		Vector:   make([]float32, m.dimensions),
		Metadata: rec.Metadata,
		Document: rec.Document,
	}
	copy(stored.Vector, rec.Vector)

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.records[rec.ID]; !exists {
		m.ids = append(m.ids, rec.ID)
	}
	m.records[rec.ID] = stored
	return nil
}

// Query returns the top-k records by cosine similarity, highest first.
// Ties preserve insertion order. k <= 0 or an empty index returns no results;
// k larger than the index returns everything.
func (m *MemoryIndex) Query(ctx context.Context, query []float32, k int) ([]*Result, error) {
	if len(query) != m.dimensions {
		return nil, fmt.Errorf("%w: got %d, expected %d", ErrDimensionMismatch, len(query), m.dimensions)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if k <= 0 || len(m.ids) == 0 {
		return nil, nil
	}
	results := make([]*Result, 0, len(m.ids))
	for _, id := range m.ids {
		rec := m.records[id]
		results = append(results, &Result{
			ID:         id,
			Similarity: Cosine(query, rec.Vector),
			Metadata:   rec.Metadata,
			Document:   rec.Document,
		})
	}
	sort.SliceStable(results, func(i, j int) bool { return results[i].Similarity > results[j].Similarity })
	if k > len(results) {
		k = len(results)
	}
	return results[:k], nil
}

// Get returns a copy of the record for id, or ErrNotFound.
func (m *MemoryIndex) Get(ctx context.Context, id string) (*Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.records[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	out := &Record{
		ID:       rec.ID,
		Vector:   make([]float32, len(rec.Vector)),
		Metadata: rec.Metadata,
		Document: rec.Document,
	}
	copy(out.Vector, rec.Vector)
	return out, nil
}

// Delete removes records by ID. Unknown IDs are ignored.
func (m *MemoryIndex) Delete(ctx context.Context, ids []string) error {
	removeSet := make(map[string]bool)
	for _, id := range ids {
		removeSet[id] = true
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	newIDs := make([]string, 0, len(m.ids))
	for _, id := range m.ids {
		if removeSet[id] {
			delete(m.records, id)
		} else {
			newIDs = append(newIDs, id)
		}
	}
	m.ids = newIDs
	return nil
}

// Save persists the index to path. Directory is created if needed.
// Format: dimensions (4), n (4), then per record: idLen (4), id bytes,
// docLen (4), document bytes, metaLen (4), metadata JSON, vector
// (dimensions*4 bytes). All integers little-endian.
func (m *MemoryIndex) Save(path string) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create index dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create index file: %w", err)
	}
	defer f.Close()
	if err := binary.Write(f, binary.LittleEndian, uint32(m.dimensions)); err != nil {
		return fmt.Errorf("write dimensions: %w", err)
	}
	if err := binary.Write(f, binary.LittleEndian, uint32(len(m.ids))); err != nil {
		return fmt.Errorf("write count: %w", err)
	}
	for _, id := range m.ids {
		rec := m.records[id]
		if err := writeBlob(f, []byte(id)); err != nil {
			return fmt.Errorf("write id: %w", err)
		}
		if err := writeBlob(f, []byte(rec.Document)); err != nil {
			return fmt.Errorf("write document: %w", err)
		}
		var meta []byte
		if rec.Metadata != nil {
			meta, err = json.Marshal(rec.Metadata)
			if err != nil {
				return fmt.Errorf("marshal metadata: %w", err)
			}
		}
		if err := writeBlob(f, meta); err != nil {
			return fmt.Errorf("write metadata: %w", err)
		}
		if _, err := f.Write(float32SliceToBytes(rec.Vector)); err != nil {
			return fmt.Errorf("write vector: %w", err)
		}
	}
	return nil
}

// Load reads the index from path and replaces the in-memory contents.
// Dimensions must match. A missing file is not an error; the index is unchanged.
func (m *MemoryIndex) Load(path string) error {
	if path == "" {
		return nil
	}
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("open index file: %w", err)
	}
	defer f.Close()
	var dim, n uint32
	if err := binary.Read(f, binary.LittleEndian, &dim); err != nil {
		return fmt.Errorf("read dimensions: %w", err)
	}
	if int(dim) != m.dimensions {
		return fmt.Errorf("%w: file has %d, index expects %d", ErrDimensionMismatch, dim, m.dimensions)
	}
	if err := binary.Read(f, binary.LittleEndian, &n); err != nil {
		return fmt.Errorf("read count: %w", err)
	}
	ids := make([]string, 0, n)
	records := make(map[string]*Record, n)
	buf := make([]byte, m.dimensions*4)
	for i := uint32(0); i < n; i++ {
		idBytes, err := readBlob(f)
		if err != nil {
			return fmt.Errorf("read id: %w", err)
		}
		docBytes, err := readBlob(f)
		if err != nil {
			return fmt.Errorf("read document: %w", err)
		}
		metaBytes, err := readBlob(f)
		if err != nil {
			return fmt.Errorf("read metadata: %w", err)
		}
		if _, err := io.ReadFull(f, buf); err != nil {
			return fmt.Errorf("read vector: %w", err)
		}
		rec := &Record{
			ID:       string(idBytes),
			Vector:   bytesToFloat32Slice(buf),
			Document: string(docBytes),
		}
		if len(metaBytes) > 0 {
			if err := json.Unmarshal(metaBytes, &rec.Metadata); err != nil {
				return fmt.Errorf("unmarshal metadata: %w", err)
			}
		}
		ids = append(ids, rec.ID)
		records[rec.ID] = rec
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ids = ids
	m.records = records
	return nil
}

// Size returns the number of records in the index.
func (m *MemoryIndex) Size() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.ids)
}

// Close is a no-op for MemoryIndex.
func (m *MemoryIndex) Close() error {
	return nil
}

func writeBlob(w io.Writer, b []byte) error {
	if err := binary.Write(w, binary.LittleEndian, uint32(len(b))); err != nil {
		return err
	}
	_, err := w.Write(b)
	return err
}

func readBlob(r io.Reader) ([]byte, error) {
	var n uint32
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return nil, err
	}
	b := make([]byte, n)
	if _, err := io.ReadFull(r, b); err != nil {
		return nil, err
	}
	return b, nil
}

func float32SliceToBytes(s []float32) []byte {
	const size = 4
	out := make([]byte, len(s)*size)
	for i, v := range s {
		binary.LittleEndian.PutUint32(out[i*size:(i+1)*size], math.Float32bits(v))
	}
	return out
}

func bytesToFloat32Slice(b []byte) []float32 {
	const size = 4
	out := make([]float32, len(b)/size)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*size : (i+1)*size]))
	}
	return out
}
