package ingest

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/akolanti/GoRAG/internal/domain/capability"
	"github.com/akolanti/GoRAG/internal/domain/commonModels"
	"github.com/akolanti/GoRAG/internal/domain/jobModel"
	"github.com/akolanti/GoRAG/internal/domain/ragModel"
	"github.com/akolanti/GoRAG/internal/rag/chunker"
	"github.com/akolanti/GoRAG/internal/rag/embedding"
)

// --- Mocks ---

type mockSource struct {
	OnGet  func(ctx context.Context, id int64) (commonModels.SourceDocument, error)
	OnList func(ctx context.Context) ([]commonModels.SourceDocumentInfo, error)
}

func (m *mockSource) GetApprovedDocument(ctx context.Context, id int64) (commonModels.SourceDocument, error) {
	return m.OnGet(ctx, id)
}

func (m *mockSource) ListApprovedDocuments(ctx context.Context) ([]commonModels.SourceDocumentInfo, error) {
	return m.OnList(ctx)
}

type mockStore struct {
	mu       sync.Mutex
	docs     map[int64]ragModel.IndexedDocument
	chunks   map[int64][]ragModel.DocumentChunk
	upserts  int
	deletes  int
	OnUpsert func(doc ragModel.IndexedDocument, chunks []ragModel.DocumentChunk) error
}

func newMockStore() *mockStore {
	return &mockStore{docs: map[int64]ragModel.IndexedDocument{}, chunks: map[int64][]ragModel.DocumentChunk{}}
}

func (m *mockStore) UpsertChunks(ctx context.Context, doc ragModel.IndexedDocument, chunks []ragModel.DocumentChunk) error {
	if m.OnUpsert != nil {
		if err := m.OnUpsert(doc, chunks); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.upserts++
	m.docs[doc.DocumentId] = doc
	m.chunks[doc.DocumentId] = chunks
	return nil
}

func (m *mockStore) Search(ctx context.Context, v []float32, k int) ([]ragModel.ScoredChunk, error) {
	return nil, nil
}

func (m *mockStore) DeleteDocument(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deletes++
	delete(m.docs, id)
	delete(m.chunks, id)
	return nil
}

func (m *mockStore) CountChunks(ctx context.Context) (int64, error) { return 0, nil }

func (m *mockStore) IndexedDocuments(ctx context.Context) (map[int64]ragModel.IndexedDocument, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[int64]ragModel.IndexedDocument, len(m.docs))
	for k, v := range m.docs {
		out[k] = v
	}
	return out, nil
}

func (m *mockStore) TouchDocument(ctx context.Context, id int64, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if d, ok := m.docs[id]; ok {
		d.IndexedAt = at
		m.docs[id] = d
	}
	return nil
}

func (m *mockStore) IndexVersion(ctx context.Context) (int64, error) { return 0, nil }

type mockEmbedder struct {
	calls   atomic.Int32
	OnEmbed func(ctx context.Context, texts []string) ([][]float32, error)
}

func (m *mockEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	m.calls.Add(1)
	if m.OnEmbed != nil {
		return m.OnEmbed(ctx, texts)
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{1, float32(i)}
	}
	return out, nil
}

func (m *mockEmbedder) Dimension() int { return 2 }

func sourceWith(docs map[int64]commonModels.SourceDocument) *mockSource {
	return &mockSource{
		OnGet: func(ctx context.Context, id int64) (commonModels.SourceDocument, error) {
			d, ok := docs[id]
			if !ok {
				return commonModels.SourceDocument{}, ragModel.ErrNotFound
			}
			return d, nil
		},
	}
}

const sampleText = "Sentence one. Sentence two. Sentence three."

// --- Unit Tests ---

func TestProcessDocument_IndexesThenSkipsUnchanged(t *testing.T) {
	ctx := context.Background()
	store := newMockStore()
	emb := &mockEmbedder{}
	src := sourceWith(map[int64]commonModels.SourceDocument{42: {Id: 42, Title: "Doc", Country: "FR", Text: sampleText}})
	ix := NewIndexer(src, store, capability.Available[embedding.Embedder](emb), chunker.New(chunker.WithTargetLength(20), chunker.WithOverlap(5)))

	var steps []jobModel.InternalStatus
	res, err := ix.ProcessDocument(ctx, 42, func(s jobModel.InternalStatus) { steps = append(steps, s) })
	if err != nil {
		t.Fatalf("ProcessDocument failed: %v", err)
	}
	if res.Status != ResultIndexed || res.ChunkCount < 2 {
		t.Errorf("expected indexed with >=2 chunks, got %+v", res)
	}
	want := []jobModel.InternalStatus{jobModel.Fetching, jobModel.Chunking, jobModel.Embedding, jobModel.Storing}
	if len(steps) != len(want) {
		t.Fatalf("steps = %v; want %v", steps, want)
	}
	for i := range want {
		if steps[i] != want[i] {
			t.Errorf("step %d = %s; want %s", i, steps[i], want[i])
		}
	}
	for i, c := range store.chunks[42] {
		if c.ChunkIndex != i || len(c.Vector) != 2 {
			t.Errorf("chunk %d malformed: %+v", i, c)
		}
	}
	if store.docs[42].Title != "Doc" || store.docs[42].ContentHash == "" {
		t.Errorf("bookkeeping not recorded: %+v", store.docs[42])
	}

	res, err = ix.ProcessDocument(ctx, 42, nil)
	if err != nil {
		t.Fatalf("second ProcessDocument failed: %v", err)
	}
	if res.Status != ResultUnchanged {
		t.Errorf("expected unchanged, got %s", res.Status)
	}
	if store.upserts != 1 || emb.calls.Load() != 1 {
		t.Errorf("unchanged document re-embedded: upserts=%d embeds=%d", store.upserts, emb.calls.Load())
	}
}

func TestProcessDocument_NotApprovedIsRetracted(t *testing.T) {
	store := newMockStore()
	store.docs[7] = ragModel.IndexedDocument{DocumentId: 7}
	ix := NewIndexer(sourceWith(nil), store, capability.Available[embedding.Embedder](&mockEmbedder{}), chunker.New())

	res, err := ix.ProcessDocument(context.Background(), 7, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Status != ResultRetracted {
		t.Errorf("expected retracted, got %s", res.Status)
	}
	if _, ok := store.docs[7]; ok {
		t.Error("document still indexed")
	}
}

func TestProcessDocument_EmbedderUnavailable(t *testing.T) {
	store := newMockStore()
	src := sourceWith(map[int64]commonModels.SourceDocument{1: {Id: 1, Text: sampleText}})
	ix := NewIndexer(src, store, capability.Unavailable[embedding.Embedder]("no key"), chunker.New())

	_, err := ix.ProcessDocument(context.Background(), 1, nil)
	if !errors.Is(err, ragModel.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
	if store.upserts != 0 {
		t.Error("store written without vectors")
	}
	if got := ClassifyError(err); got.Code != jobModel.ErrCodeEmbedderUnavailable || got.Retry {
		t.Errorf("ClassifyError = %+v", got)
	}
}

func TestProcessDocument_ExtractsFromFile(t *testing.T) {
	store := newMockStore()
	src := sourceWith(map[int64]commonModels.SourceDocument{3: {Id: 3, FilePath: "/docs/3.pdf"}})
	ix := NewIndexer(src, store, capability.Available[embedding.Embedder](&mockEmbedder{}), chunker.New())

	var extracted string
	ix.extract = func(path string) (string, error) {
		extracted = path
		return "Extracted text of the file.", nil
	}
	if _, err := ix.ProcessDocument(context.Background(), 3, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if extracted != "/docs/3.pdf" {
		t.Errorf("extract called with %q", extracted)
	}
	if len(store.chunks[3]) != 1 || store.chunks[3][0].Text != "Extracted text of the file." {
		t.Errorf("unexpected chunks: %+v", store.chunks[3])
	}

	ix.extract = func(path string) (string, error) { return "", ErrExtractionFailed }
	store.docs = map[int64]ragModel.IndexedDocument{}
	_, err := ix.ProcessDocument(context.Background(), 3, nil)
	if got := ClassifyError(err); got.Code != jobModel.ErrCodeExtractionFailed {
		t.Errorf("ClassifyError = %+v", got)
	}
}

func TestProcessDocument_StoreFailure(t *testing.T) {
	store := newMockStore()
	store.OnUpsert = func(doc ragModel.IndexedDocument, chunks []ragModel.DocumentChunk) error {
		return ragModel.ErrStoreUnavailable
	}
	src := sourceWith(map[int64]commonModels.SourceDocument{1: {Id: 1, Text: sampleText}})
	ix := NewIndexer(src, store, capability.Available[embedding.Embedder](&mockEmbedder{}), chunker.New())

	_, err := ix.ProcessDocument(context.Background(), 1, nil)
	got := ClassifyError(err)
	if got.Code != jobModel.ErrCodeStoreUnavailable || !got.Retry {
		t.Errorf("ClassifyError = %+v", got)
	}
}

func TestProcessDocument_SameDocumentIsSerialized(t *testing.T) {
	store := newMockStore()
	var inFlight, maxInFlight atomic.Int32
	emb := &mockEmbedder{OnEmbed: func(ctx context.Context, texts []string) ([][]float32, error) {
		n := inFlight.Add(1)
		for {
			m := maxInFlight.Load()
			if n <= m || maxInFlight.CompareAndSwap(m, n) {
				break
			}
		}
		time.Sleep(10 * time.Millisecond)
		inFlight.Add(-1)
		out := make([][]float32, len(texts))
		for i := range out {
			out[i] = []float32{1, 0}
		}
		return out, nil
	}}
	var version atomic.Int32
	src := &mockSource{OnGet: func(ctx context.Context, id int64) (commonModels.SourceDocument, error) {
		// every fetch sees new content so nothing is skipped
		v := version.Add(1)
		return commonModels.SourceDocument{Id: id, Text: sampleText + string(rune('a'+v))}, nil
	}}
	ix := NewIndexer(src, store, capability.Available[embedding.Embedder](emb), chunker.New())

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := ix.ProcessDocument(context.Background(), 9, nil); err != nil {
				t.Errorf("ProcessDocument: %v", err)
			}
		}()
	}
	wg.Wait()

	if maxInFlight.Load() != 1 {
		t.Errorf("same document processed concurrently: %d", maxInFlight.Load())
	}
	if ix.locks.held() != 0 {
		t.Errorf("lock entries leaked: %d", ix.locks.held())
	}
}

func TestPendingDocuments(t *testing.T) {
	now := time.Now()
	store := newMockStore()
	store.docs[1] = ragModel.IndexedDocument{DocumentId: 1, IndexedAt: now}                   // fresh
	store.docs[2] = ragModel.IndexedDocument{DocumentId: 2, IndexedAt: now.Add(-time.Hour)}   // stale
	store.docs[4] = ragModel.IndexedDocument{DocumentId: 4, IndexedAt: now.Add(-time.Minute)} // retracted
	src := &mockSource{OnList: func(ctx context.Context) ([]commonModels.SourceDocumentInfo, error) {
		return []commonModels.SourceDocumentInfo{
			{Id: 1, UpdatedAt: now.Add(-time.Minute)},
			{Id: 2, UpdatedAt: now.Add(-time.Minute)},
			{Id: 3, UpdatedAt: now},
		}, nil
	}}
	ix := NewIndexer(src, store, capability.Unavailable[embedding.Embedder]("unused"), chunker.New())

	pending, err := ix.PendingDocuments(context.Background())
	if err != nil {
		t.Fatalf("PendingDocuments failed: %v", err)
	}
	if len(pending.ToIndex) != 2 || pending.ToIndex[0] != 2 || pending.ToIndex[1] != 3 {
		t.Errorf("ToIndex = %v; want [2 3]", pending.ToIndex)
	}
	if len(pending.ToRetract) != 1 || pending.ToRetract[0] != 4 {
		t.Errorf("ToRetract = %v; want [4]", pending.ToRetract)
	}
}

func TestPendingDocuments_UnchangedDocumentIsCleared(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	source := commonModels.SourceDocument{Id: 7, Title: "Doc", Country: "FR", Text: sampleText}

	store := newMockStore()
	store.docs[7] = ragModel.IndexedDocument{
		DocumentId:  7,
		ContentHash: contentHash(source, sampleText),
		ChunkCount:  2,
		IndexedAt:   now.Add(-time.Hour),
	}
	src := sourceWith(map[int64]commonModels.SourceDocument{7: source})
	src.OnList = func(ctx context.Context) ([]commonModels.SourceDocumentInfo, error) {
		// metadata edited after indexing, content untouched
		return []commonModels.SourceDocumentInfo{{Id: 7, UpdatedAt: now.Add(-time.Minute)}}, nil
	}
	emb := &mockEmbedder{}
	ix := NewIndexer(src, store, capability.Available[embedding.Embedder](emb), chunker.New())

	pending, err := ix.PendingDocuments(ctx)
	if err != nil {
		t.Fatalf("PendingDocuments failed: %v", err)
	}
	if len(pending.ToIndex) != 1 || pending.ToIndex[0] != 7 {
		t.Fatalf("ToIndex = %v; want [7]", pending.ToIndex)
	}

	res, err := ix.ProcessDocument(ctx, 7, nil)
	if err != nil {
		t.Fatalf("ProcessDocument failed: %v", err)
	}
	if res.Status != ResultUnchanged || res.ChunkCount != 2 {
		t.Errorf("expected unchanged with 2 chunks, got %+v", res)
	}
	if store.upserts != 0 || emb.calls.Load() != 0 {
		t.Errorf("unchanged document was re-indexed: upserts=%d embeds=%d", store.upserts, emb.calls.Load())
	}

	pending, err = ix.PendingDocuments(ctx)
	if err != nil {
		t.Fatalf("PendingDocuments failed: %v", err)
	}
	if len(pending.ToIndex) != 0 {
		t.Errorf("ToIndex = %v after an unchanged pass; want none", pending.ToIndex)
	}
}

func TestProcessDocument_EmbeddingTimeout(t *testing.T) {
	store := newMockStore()
	emb := &mockEmbedder{OnEmbed: func(ctx context.Context, texts []string) ([][]float32, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}}
	src := sourceWith(map[int64]commonModels.SourceDocument{5: {Id: 5, Title: "Doc", Text: sampleText}})
	ix := NewIndexer(src, store, capability.Available[embedding.Embedder](emb), chunker.New())
	ix.embedTimeout = 20 * time.Millisecond

	done := make(chan error, 1)
	go func() {
		_, err := ix.ProcessDocument(context.Background(), 5, nil)
		done <- err
	}()

	var err error
	select {
	case err = <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("ProcessDocument did not return after the embedding timeout")
	}
	if !errors.Is(err, ragModel.ErrTimeout) || !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected a timeout error, got %v", err)
	}
	jobErr := ClassifyError(err)
	if jobErr.Code != jobModel.ErrCodeEmbedderUnavailable || !jobErr.Retry {
		t.Errorf("ClassifyError = %+v; want retryable %s", jobErr, jobModel.ErrCodeEmbedderUnavailable)
	}
	if store.upserts != 0 {
		t.Errorf("store written after a failed embed: %d upserts", store.upserts)
	}
	if ix.locks.held() != 0 {
		t.Errorf("lock entries leaked: %d", ix.locks.held())
	}
}

func TestGetDocType(t *testing.T) {
	tests := []struct {
		path     string
		expected commonModels.DocType
	}{
		{"test.pdf", commonModels.PDF},
		{"DOC.DOCX", commonModels.DOCX},
		{"report.odt", commonModels.DOCX},
		{"notes.txt", commonModels.TXT},
		{"image.png", commonModels.ERR},
	}

	for _, tt := range tests {
		if got := getDocType(tt.path); got != tt.expected {
			t.Errorf("getDocType(%s) = %v; want %v", tt.path, got, tt.expected)
		}
	}
}

func TestExtractText(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "notes.txt")
	if err := os.WriteFile(path, []byte("plain text body"), 0o600); err != nil {
		t.Fatal(err)
	}
	text, err := ExtractText(path)
	if err != nil {
		t.Fatalf("ExtractText failed: %v", err)
	}
	if text != "plain text body" {
		t.Errorf("ExtractText = %q", text)
	}

	if _, err := ExtractText(filepath.Join(dir, "image.png")); !errors.Is(err, ErrExtractionFailed) {
		t.Errorf("expected ErrExtractionFailed, got %v", err)
	}
	if _, err := ExtractText(filepath.Join(dir, "missing.pdf")); !errors.Is(err, ErrExtractionFailed) {
		t.Errorf("expected ErrExtractionFailed for missing pdf, got %v", err)
	}
}

func TestDocumentLocks_DifferentDocumentsDoNotBlock(t *testing.T) {
	l := newDocumentLocks()
	unlock1 := l.Lock(1)
	done := make(chan struct{})
	go func() {
		unlock := l.Lock(65) // same shard as 1
		unlock()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("lock on another document blocked")
	}
	unlock1()
	if l.held() != 0 {
		t.Errorf("held = %d; want 0", l.held())
	}
}

func TestSyncAll(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	store := newMockStore()
	store.docs[9] = ragModel.IndexedDocument{DocumentId: 9, IndexedAt: now}
	docs := map[int64]commonModels.SourceDocument{
		1: {Id: 1, Title: "A", Text: sampleText},
		2: {Id: 2, Title: "B", Text: sampleText},
	}
	src := sourceWith(docs)
	src.OnList = func(ctx context.Context) ([]commonModels.SourceDocumentInfo, error) {
		return []commonModels.SourceDocumentInfo{{Id: 1, UpdatedAt: now}, {Id: 2, UpdatedAt: now}, {Id: 3, UpdatedAt: now}}, nil
	}
	emb := &mockEmbedder{OnEmbed: func(ctx context.Context, texts []string) ([][]float32, error) {
		out := make([][]float32, len(texts))
		for i := range texts {
			out[i] = []float32{1, 0}
		}
		return out, nil
	}}
	ix := NewIndexer(src, store, capability.Available[embedding.Embedder](emb), chunker.New())

	summary, err := ix.SyncAll(ctx)
	if err != nil {
		t.Fatalf("SyncAll failed: %v", err)
	}
	// 3 disappeared between listing and fetching, so it is retracted too
	if summary.Indexed != 2 || summary.Retracted != 2 || len(summary.Failed) != 0 {
		t.Errorf("summary = %+v", summary)
	}
	if _, ok := store.docs[9]; ok {
		t.Error("document 9 should have been retracted")
	}
}

func TestSyncAll_ListFailureAborts(t *testing.T) {
	src := &mockSource{OnList: func(ctx context.Context) ([]commonModels.SourceDocumentInfo, error) {
		return nil, ragModel.ErrStoreUnavailable
	}}
	ix := NewIndexer(src, newMockStore(), capability.Unavailable[embedding.Embedder]("unused"), chunker.New())

	if _, err := ix.SyncAll(context.Background()); !errors.Is(err, ragModel.ErrStoreUnavailable) {
		t.Fatalf("err = %v; want ErrStoreUnavailable", err)
	}
}
