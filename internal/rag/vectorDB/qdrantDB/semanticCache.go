package qdrantDB

import (
	"context"
	"encoding/json"
	"time"

	"github.com/akolanti/GoRAG/internal/config"
	"github.com/akolanti/GoRAG/internal/domain/ragModel"
	"github.com/akolanti/GoRAG/pkg/logger_i"
	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"
)

// pointsClient is the part of *qdrant.Client the cache uses.
type pointsClient interface {
	Query(ctx context.Context, request *qdrant.QueryPoints) ([]*qdrant.ScoredPoint, error)
	Upsert(ctx context.Context, request *qdrant.UpsertPoints) (*qdrant.UpdateResult, error)
}

// SemanticCache returns earlier answers to near-identical questions asked
// against the same index version and language.
type SemanticCache struct {
	client     pointsClient
	collection string
	cutoff     float32
	closeFn    func() error
	logger     *logger_i.Logger
}

func newSemanticCache(client pointsClient, collection string, closeFn func() error) *SemanticCache {
	return &SemanticCache{
		client:     client,
		collection: collection,
		cutoff:     config.CacheSimilarityCutoff,
		closeFn:    closeFn,
		logger:     logger_i.NewLogger("semantic_cache"),
	}
}

func (c *SemanticCache) Close() error {
	if c.closeFn == nil {
		return nil
	}
	c.logger.Info("Closing Qdrant client")
	return c.closeFn()
}

// Lookup never fails the caller; a cache error is a miss.
func (c *SemanticCache) Lookup(ctx context.Context, vector []float32, language string, indexVersion int64) (ragModel.RAGQuery, bool) {
	log := c.logger.WithContext(ctx)
	ctx, cancel := context.WithTimeout(ctx, config.CacheTimeout)
	defer cancel()

	result, err := c.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: c.collection,
		Query:          qdrant.NewQuery(vector...),
		Filter: &qdrant.Filter{
			Must: []*qdrant.Condition{
				qdrant.NewMatchInt("index_version", indexVersion),
				qdrant.NewMatch("language", language),
			},
		},
		ScoreThreshold: qdrant.PtrOf(c.cutoff),
		Limit:          qdrant.PtrOf(uint64(1)),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		log.Warn("Cache query failed", "error", err)
		return ragModel.RAGQuery{}, false
	}
	if len(result) == 0 || result[0].Score < c.cutoff {
		return ragModel.RAGQuery{}, false
	}

	hit := result[0]
	payload := hit.Payload
	var sources []ragModel.SourceRef
	if raw := payload["sources"].GetStringValue(); raw != "" {
		if err := json.Unmarshal([]byte(raw), &sources); err != nil {
			log.Warn("Cached sources unreadable", "error", err)
			return ragModel.RAGQuery{}, false
		}
	}
	log.Debug("Semantic cache hit", "score", hit.Score)
	return ragModel.RAGQuery{
		Answer:          payload["answer"].GetStringValue(),
		Language:        payload["language"].GetStringValue(),
		Confidence:      payload["confidence"].GetDoubleValue(),
		ConfidenceLevel: ragModel.ConfidenceLevel(payload["confidence_level"].GetStringValue()),
		Sources:         sources,
	}, true
}

// Store saves an answered query. The caller runs it in the background.
func (c *SemanticCache) Store(ctx context.Context, vector []float32, indexVersion int64, query ragModel.RAGQuery) error {
	sources, err := json.Marshal(query.Sources)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, config.CacheTimeout)
	defer cancel()

	_, err = c.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: c.collection,
		Points: []*qdrant.PointStruct{
			{
				Id:      qdrant.NewID(uuid.NewString()),
				Vectors: qdrant.NewVectors(vector...),
				Payload: qdrant.NewValueMap(map[string]any{
					"question":         query.Question,
					"answer":           query.Answer,
					"language":         query.Language,
					"confidence":       query.Confidence,
					"confidence_level": string(query.ConfidenceLevel),
					"sources":          string(sources),
					"index_version":    indexVersion,
					"timestamp":        time.Now().Unix(),
				}),
			},
		},
	})
	if err != nil {
		c.logger.WithContext(ctx).Error("Saving answer to cache failed", "error", err)
	}
	return err
}
