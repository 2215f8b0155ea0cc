package qdrantDB

import (
	"context"
	"errors"
	"fmt"

	"github.com/akolanti/GoRAG/internal/config"
	"github.com/qdrant/go-client/qdrant"
)

type Options struct {
	Host      string
	Port      int
	UseTLS    bool
	APIKey    string
	PoolSize  uint
	Dimension int
}

// Connect dials Qdrant and makes sure the cache collection exists. Any error
// means the cache is disabled for this process.
func Connect(ctx context.Context, opts Options) (*SemanticCache, error) {
	if opts.Host == "" {
		return nil, errors.New("qdrant: no host configured")
	}
	port := opts.Port
	if port == 0 {
		port = config.QdrantGrpcPort
	}
	client, err := qdrant.NewClient(&qdrant.Config{
		Host:     opts.Host,
		Port:     port,
		UseTLS:   opts.UseTLS,
		APIKey:   opts.APIKey,
		PoolSize: opts.PoolSize,
	})
	if err != nil {
		return nil, fmt.Errorf("qdrant: could not instantiate client: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, config.CacheTimeout)
	defer cancel()
	if err := createCollection(ctx, client, config.SemanticCacheDBName, uint64(opts.Dimension)); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("qdrant: could not create collection %s: %w", config.SemanticCacheDBName, err)
	}
	return newSemanticCache(client, config.SemanticCacheDBName, client.Close), nil
}

func createCollection(ctx context.Context, client *qdrant.Client, collectionName string, dimension uint64) error {
	if collectionName == "" {
		return errors.New("empty collection name")
	}
	if dimension == 0 {
		return errors.New("zero vector dimension")
	}

	exists, err := client.CollectionExists(ctx, collectionName)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	return client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: collectionName,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     dimension,
			Distance: qdrant.Distance_Cosine,
		}),
	})
}
