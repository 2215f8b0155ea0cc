package rag_test

import (
	"context"
	"sync"
	"time"

	"github.com/akolanti/GoRAG/internal/domain/ragModel"
	"github.com/akolanti/GoRAG/internal/rag/llm"
)

// MockChunkStore implements ragModel.ChunkStore
type MockChunkStore struct {
	OnSearch       func(ctx context.Context, v []float32, topK int) ([]ragModel.ScoredChunk, error)
	OnCountChunks  func(ctx context.Context) (int64, error)
	OnIndexVersion func(ctx context.Context) (int64, error)
}

func (m *MockChunkStore) UpsertChunks(ctx context.Context, doc ragModel.IndexedDocument, chunks []ragModel.DocumentChunk) error {
	return nil
}

func (m *MockChunkStore) Search(ctx context.Context, v []float32, topK int) ([]ragModel.ScoredChunk, error) {
	if m.OnSearch != nil {
		return m.OnSearch(ctx, v, topK)
	}
	return []ragModel.ScoredChunk{}, nil
}

func (m *MockChunkStore) DeleteDocument(ctx context.Context, id int64) error { return nil }

func (m *MockChunkStore) CountChunks(ctx context.Context) (int64, error) {
	if m.OnCountChunks != nil {
		return m.OnCountChunks(ctx)
	}
	return 0, nil
}

func (m *MockChunkStore) IndexedDocuments(ctx context.Context) (map[int64]ragModel.IndexedDocument, error) {
	return map[int64]ragModel.IndexedDocument{}, nil
}

func (m *MockChunkStore) TouchDocument(ctx context.Context, id int64, at time.Time) error { return nil }

func (m *MockChunkStore) IndexVersion(ctx context.Context) (int64, error) {
	if m.OnIndexVersion != nil {
		return m.OnIndexVersion(ctx)
	}
	return 1, nil
}

// MockEmbedder implements embedding.Embedder
type MockEmbedder struct {
	OnEmbed func(ctx context.Context, texts []string) ([][]float32, error)
}

func (m *MockEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if m.OnEmbed != nil {
		return m.OnEmbed(ctx, texts)
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{1, 0}
	}
	return out, nil
}

func (m *MockEmbedder) Dimension() int { return 2 }

// MockLLM implements llm.Provider
type MockLLM struct {
	mu         sync.Mutex
	calls      int
	OnGenerate func(ctx context.Context, req llm.GenerateRequest) (string, error)
}

func (m *MockLLM) Generate(ctx context.Context, req llm.GenerateRequest) (string, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	if m.OnGenerate != nil {
		return m.OnGenerate(ctx, req)
	}
	return "mocked llm response", nil
}

func (m *MockLLM) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// MockQueryLog implements ragModel.QueryLog
type MockQueryLog struct {
	mu               sync.Mutex
	Recorded         []ragModel.RAGQuery
	OnRecord         func(ctx context.Context, q ragModel.RAGQuery) (int64, error)
	OnAttachFeedback func(ctx context.Context, id int64, fb ragModel.Feedback) error
	OnLastQueryAt    func(ctx context.Context) (*time.Time, error)
}

func (m *MockQueryLog) Record(ctx context.Context, q ragModel.RAGQuery) (int64, error) {
	m.mu.Lock()
	m.Recorded = append(m.Recorded, q)
	n := int64(len(m.Recorded))
	m.mu.Unlock()
	if m.OnRecord != nil {
		return m.OnRecord(ctx, q)
	}
	return n, nil
}

func (m *MockQueryLog) AttachFeedback(ctx context.Context, id int64, fb ragModel.Feedback) error {
	if m.OnAttachFeedback != nil {
		return m.OnAttachFeedback(ctx, id, fb)
	}
	return nil
}

func (m *MockQueryLog) Get(ctx context.Context, id int64) (ragModel.RAGQuery, error) {
	return ragModel.RAGQuery{}, ragModel.ErrNotFound
}

func (m *MockQueryLog) Analytics(ctx context.Context) (ragModel.Analytics, error) {
	return ragModel.Analytics{TotalQueries: int64(len(m.Recorded))}, nil
}

func (m *MockQueryLog) LastQueryAt(ctx context.Context) (*time.Time, error) {
	if m.OnLastQueryAt != nil {
		return m.OnLastQueryAt(ctx)
	}
	return nil, nil
}

// MockCache implements ragModel.AnswerCache
type MockCache struct {
	OnLookup func(ctx context.Context, v []float32, language string, version int64) (ragModel.RAGQuery, bool)
	Stored   chan ragModel.RAGQuery
}

func (m *MockCache) Lookup(ctx context.Context, v []float32, language string, version int64) (ragModel.RAGQuery, bool) {
	if m.OnLookup != nil {
		return m.OnLookup(ctx, v, language, version)
	}
	return ragModel.RAGQuery{}, false
}

func (m *MockCache) Store(ctx context.Context, v []float32, version int64, q ragModel.RAGQuery) error {
	if m.Stored != nil {
		m.Stored <- q
	}
	return nil
}

func scoredChunks(scores ...float64) []ragModel.ScoredChunk {
	out := make([]ragModel.ScoredChunk, len(scores))
	for i, s := range scores {
		out[i] = ragModel.ScoredChunk{
			Chunk: ragModel.DocumentChunk{
				DocumentId: 42,
				ChunkId:    int64(i + 1),
				ChunkIndex: i,
				Text:       "Passage about tax rates number " + string(rune('A'+i)),
			},
			Score:         s,
			DocumentTitle: "Tax guide",
			Country:       "FR",
		}
	}
	return out
}
