package app

import (
	"context"
	"errors"
	"sync"
	"time"

	"manualpilot/internal/ai"
	"manualpilot/internal/model"
	"manualpilot/internal/vectorstore"
)

// --- In-memory store ---

type fakeStore struct {
	mu         sync.Mutex
	nextManual uint
	nextChunk  uint
	manuals    map[uint]model.Manual
	chunks     []model.ManualChunk

	searchResults []vectorstore.SearchResult
	searchErr     error
	insertErr     error

	titleLookups [][]uint
	calls        []string
}

func newFakeStore() *fakeStore {
	return &fakeStore{manuals: make(map[uint]model.Manual)}
}

func (f *fakeStore) record(name string) {
	f.calls = append(f.calls, name)
}

func (f *fakeStore) CreateManual(_ context.Context, m *model.Manual) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("CreateManual")
	f.nextManual++
	m.ID = f.nextManual
	m.CreatedAt = time.Now()
	f.manuals[m.ID] = *m
	return nil
}

func (f *fakeStore) UpdateManual(_ context.Context, m *model.Manual) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("UpdateManual")
	f.manuals[m.ID] = *m
	return nil
}

func (f *fakeStore) GetManualByURL(_ context.Context, url string) (*model.Manual, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("GetManualByURL")
	for _, m := range f.manuals {
		if m.URL == url {
			found := m
			return &found, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) GetManualsByIDs(_ context.Context, ids []uint) ([]model.Manual, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("GetManualsByIDs")
	f.titleLookups = append(f.titleLookups, ids)
	var list []model.Manual
	for _, id := range ids {
		if m, ok := f.manuals[id]; ok {
			list = append(list, m)
		}
	}
	return list, nil
}

func (f *fakeStore) ListManuals(_ context.Context) ([]model.Manual, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("ListManuals")
	var list []model.Manual
	for _, m := range f.manuals {
		list = append(list, m)
	}
	return list, nil
}

func (f *fakeStore) DeleteManual(_ context.Context, id uint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("DeleteManual")
	if _, ok := f.manuals[id]; !ok {
		return vectorstore.ErrManualNotFound
	}
	delete(f.manuals, id)
	f.removeChunks(id)
	return nil
}

func (f *fakeStore) InsertChunks(_ context.Context, chunks []model.ManualChunk) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("InsertChunks")
	if f.insertErr != nil {
		return f.insertErr
	}
	for _, c := range chunks {
		f.nextChunk++
		c.ID = f.nextChunk
		f.chunks = append(f.chunks, c)
	}
	return nil
}

func (f *fakeStore) DeleteChunksByManualID(_ context.Context, manualID uint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("DeleteChunksByManualID")
	f.removeChunks(manualID)
	return nil
}

func (f *fakeStore) Search(_ context.Context, _ []float32, k int) ([]vectorstore.SearchResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("Search")
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	results := f.searchResults
	if k < len(results) {
		results = results[:k]
	}
	return results, nil
}

// removeChunks must be called with the lock held.
func (f *fakeStore) removeChunks(manualID uint) {
	kept := f.chunks[:0]
	for _, c := range f.chunks {
		if c.ManualID != manualID {
			kept = append(kept, c)
		}
	}
	f.chunks = kept
}

func (f *fakeStore) chunksFor(manualID uint) []model.ManualChunk {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.ManualChunk
	for _, c := range f.chunks {
		if c.ManualID == manualID {
			out = append(out, c)
		}
	}
	return out
}

// --- Embedder ---

type fakeEmbedder struct {
	mu     sync.Mutex
	calls  int
	failAt int // 1-based call number to start failing on; 0 = never
	vec    []float32
}

func (f *fakeEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.failAt > 0 && f.calls >= f.failAt {
		return nil, errors.New("embedding provider unavailable")
	}
	if f.vec != nil {
		return f.vec, nil
	}
	return []float32{float32(len(text)), 1}, nil
}

// --- Responder ---

type fakeResponder struct {
	calls    int
	messages []ai.ChatMessage
	answer   string
	err      error
}

func (f *fakeResponder) Complete(_ context.Context, messages []ai.ChatMessage) (string, error) {
	f.calls++
	f.messages = messages
	if f.err != nil {
		return "", f.err
	}
	return f.answer, nil
}

// --- Extractor ---

type fakeExtractor struct {
	calls int
	title string
	text  string
	err   error
}

func (f *fakeExtractor) Extract(_ context.Context, _ string) (string, string, error) {
	f.calls++
	if f.err != nil {
		return "", "", f.err
	}
	return f.title, f.text, nil
}
