package rag

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/akolanti/GoRAG/internal/config"
	"github.com/akolanti/GoRAG/internal/domain/ragModel"
	"github.com/akolanti/GoRAG/internal/metrics"
	"github.com/akolanti/GoRAG/internal/rag/embedding"
	"github.com/akolanti/GoRAG/internal/rag/llm"
	"github.com/akolanti/GoRAG/pkg/logger_i"
)

// Service is what the handlers, the MCP tools and the CLI call. It never
// returns an error for a degraded dependency; the answer says what happened.
type Service interface {
	Answer(ctx context.Context, question string, language string) (ragModel.RAGQuery, error)
	Health(ctx context.Context) ragModel.IndexHealth
	Analytics(ctx context.Context) (ragModel.Analytics, error)
	AttachFeedback(ctx context.Context, queryId int64, feedback ragModel.Feedback) error
}

// Dependencies are built once by the composition root. Cache may be nil.
type Dependencies struct {
	Embedder          embedding.Capability
	Generator         llm.Capability
	Store             ragModel.ChunkStore
	QueryLog          ragModel.QueryLog
	Cache             ragModel.AnswerCache
	TopK              int
	ContextCharBudget int
	GenerationTimeout time.Duration
}

type service struct {
	embedder          embedding.Capability
	generator         llm.Capability
	store             ragModel.ChunkStore
	queryLog          ragModel.QueryLog
	cache             ragModel.AnswerCache
	topK              int
	contextCharBudget int
	generationTimeout time.Duration
	logger            *logger_i.Logger
}

func NewService(deps Dependencies) Service {
	s := &service{
		embedder:          deps.Embedder,
		generator:         deps.Generator,
		store:             deps.Store,
		queryLog:          deps.QueryLog,
		cache:             deps.Cache,
		topK:              deps.TopK,
		contextCharBudget: deps.ContextCharBudget,
		generationTimeout: deps.GenerationTimeout,
		logger:            logger_i.NewLogger("rag_service"),
	}
	if s.topK <= 0 {
		s.topK = config.RetrievalTopK
	}
	if s.contextCharBudget <= 0 {
		s.contextCharBudget = config.ContextCharBudget
	}
	if s.generationTimeout < config.MinGenerationTimeout || s.generationTimeout > config.MaxGenerationTimeout {
		s.generationTimeout = config.GenerationTimeout
	}
	return s
}

// Answer runs Received → Embedding → Retrieving → (ShortCircuit | Generating)
// → Scored → Logged → Returned. Everything after validation runs on a
// context detached from the caller, so an abandoned request is still
// answered and logged.
func (s *service) Answer(ctx context.Context, question string, language string) (ragModel.RAGQuery, error) {
	start := time.Now()
	log := s.logger.WithContext(ctx)
	tracker := newStateTracker(log)
	tracker.enter(ragModel.StateReceived)

	question = strings.TrimSpace(question)
	language = strings.TrimSpace(language)
	if err := validateQuestion(question, language); err != nil {
		log.Debug("Question rejected", "error", err)
		return ragModel.RAGQuery{}, err
	}

	work := context.WithoutCancel(ctx)
	q := ragModel.RAGQuery{Question: question, Language: language, CreatedAt: start.UTC(), Sources: []ragModel.SourceRef{}}

	var queryVector []float32
	var indexVersion int64
	cacheable := false

	tracker.enter(ragModel.StateEmbedding)
	vector, err := s.executeEmbeddingStep(work, question)
	tracker.enter(ragModel.StateRetrieving)
	if err != nil {
		log.Warn("Question embedding failed", "error", err)
		s.shortCircuit(&q, tracker, ragModel.OutcomeEmbedderUnavailable)
	} else {
		queryVector = vector
		q, cacheable, indexVersion = s.retrieveAndGenerate(work, log, tracker, q, vector)
	}

	tracker.enter(ragModel.StateScored)
	q.ConfidenceLevel = ConfidenceLevelFor(q.Confidence)

	tracker.enter(ragModel.StateLogged)
	q.ResponseTimeMs = time.Since(start).Milliseconds()
	q.Id = s.executeQueryLogStep(work, log, q)

	if cacheable && s.cache != nil {
		go s.saveToCache(work, queryVector, indexVersion, q)
	}

	tracker.enter(ragModel.StateReturned)
	q.States = tracker.states
	metrics.CaptureAnswer(string(q.Outcome), q.Confidence, time.Since(start))
	log.Info("Question answered", "queryId", q.Id, "outcome", q.Outcome, "confidence", q.Confidence,
		"sources", len(q.Sources), "responseTimeMs", q.ResponseTimeMs)
	return q, nil
}

// retrieveAndGenerate covers the Retrieving step onwards up to Scored. It
// reports whether the result may be stored in the answer cache.
func (s *service) retrieveAndGenerate(ctx context.Context, log *logger_i.Logger, tracker *stateTracker, q ragModel.RAGQuery, vector []float32) (ragModel.RAGQuery, bool, int64) {
	indexVersion, versionErr := s.store.IndexVersion(ctx)
	if versionErr == nil {
		if cached, ok := s.executeCacheCheckStep(ctx, vector, q.Language, indexVersion); ok {
			tracker.enter(ragModel.StateShortCircuit)
			q.Answer = cached.Answer
			q.Sources = cached.Sources
			if q.Sources == nil {
				q.Sources = []ragModel.SourceRef{}
			}
			q.Confidence = cached.Confidence
			q.Outcome = ragModel.OutcomeCached
			return q, false, indexVersion
		}
	}

	retrieved, err := s.executeVectorSearchStep(ctx, vector)
	if err != nil {
		log.Warn("Vector search failed", "error", err)
		s.shortCircuit(&q, tracker, ragModel.OutcomeStoreUnavailable)
		return q, false, indexVersion
	}
	if len(retrieved) == 0 {
		s.shortCircuit(&q, tracker, ragModel.OutcomeNoContext)
		return q, false, indexVersion
	}

	passages, used := assembleContext(retrieved, s.contextCharBudget)
	q.Sources = toSourceRefs(used)

	tracker.enter(ragModel.StateGenerating)
	answer, err := s.executeLLMStep(ctx, llm.GenerateRequest{Question: q.Question, Language: q.Language, Passages: passages})
	switch {
	case err != nil && isTimeout(err):
		log.Warn("Generation timed out", "error", err)
		q.Outcome = ragModel.OutcomeGenerationTimeout
	case err != nil:
		log.Warn("Generation failed", "error", err)
		q.Outcome = ragModel.OutcomeGenerationFailed
	case strings.TrimSpace(answer) == "":
		log.Warn("Generation returned an empty answer")
		q.Outcome = ragModel.OutcomeGenerationFailed
	default:
		q.Outcome = ragModel.OutcomeAnswered
	}
	if q.Outcome.Degraded() {
		q.Answer = degradedAnswer(q.Outcome)
		q.Confidence = 0
		return q, false, indexVersion
	}

	q.Answer = answer
	q.Confidence = Confidence(scoresOf(used), len(retrieved), s.topK)
	if llm.IsNonAnswer(answer) {
		q.Confidence *= config.NonAnswerDiscount
	}
	return q, versionErr == nil, indexVersion
}

func (s *service) shortCircuit(q *ragModel.RAGQuery, tracker *stateTracker, outcome ragModel.Outcome) {
	tracker.enter(ragModel.StateShortCircuit)
	q.Outcome = outcome
	q.Answer = degradedAnswer(outcome)
	q.Confidence = 0
}

func (s *service) Health(ctx context.Context) ragModel.IndexHealth {
	log := s.logger.WithContext(ctx)
	health := ragModel.IndexHealth{
		EmbedderAvailable:  s.embedder.IsAvailable(),
		GeneratorAvailable: llm.Healthy(s.generator),
	}
	total, err := s.store.CountChunks(ctx)
	if err != nil {
		log.Warn("Counting chunks failed", "error", err)
	}
	health.TotalChunks = total

	last, err := s.queryLog.LastQueryAt(ctx)
	if err != nil {
		log.Warn("Reading last query time failed", "error", err)
	}
	health.LastQueryAt = last
	return health
}

func (s *service) Analytics(ctx context.Context) (ragModel.Analytics, error) {
	return s.queryLog.Analytics(ctx)
}

func (s *service) AttachFeedback(ctx context.Context, queryId int64, feedback ragModel.Feedback) error {
	if _, err := ragModel.ParseFeedback(string(feedback)); err != nil {
		return err
	}
	if queryId <= 0 {
		return ragModel.ErrNotFound
	}
	return s.queryLog.AttachFeedback(ctx, queryId, feedback)
}

func validateQuestion(question, language string) error {
	n := utf8.RuneCountInString(question)
	if n < config.QuestionMinLength {
		return &ragModel.ValidationError{Field: "question", Reason: "must not be empty"}
	}
	if n > config.QuestionMaxLength {
		return &ragModel.ValidationError{Field: "question", Reason: "must be at most 1000 characters"}
	}
	if utf8.RuneCountInString(language) > 35 {
		return &ragModel.ValidationError{Field: "language", Reason: "must be a language tag"}
	}
	return nil
}
