package services

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"
	"go.uber.org/zap"
)

// DocTypeResumeGuide tags chunks of resume-writing guidance.
const DocTypeResumeGuide = "resume_guide"

// GuidanceStore keeps embedded guidance chunks in a Qdrant collection.
type GuidanceStore interface {
	InitCollection(ctx context.Context) error
	UpsertChunk(ctx context.Context, chunk GuidanceChunk, embedding []float32) error
	SearchSimilar(ctx context.Context, queryEmbedding []float32, docType string, limit int) ([]SearchResult, error)
	DeleteSource(ctx context.Context, source string) error
	Close() error
}

type GuidanceChunk struct {
	Source  string
	DocType string
	Index   int
	Text    string
}

type SearchResult struct {
	ID      string
	Score   float32
	Text    string
	DocType string
	Source  string
}

type qdrantStore struct {
	client         *qdrant.Client
	collectionName string
	vectorSize     uint64
	log            *zap.Logger
}

type QdrantOptions struct {
	URL        string
	APIKey     string
	Collection string
	VectorSize uint64
}

func NewQdrantStore(opts QdrantOptions, log *zap.Logger) (GuidanceStore, error) {
	parsed, err := url.Parse(opts.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid Qdrant URL: %w", err)
	}

	// The gRPC port is 6334 unless the URL names one.
	port := 6334
	if p := parsed.Port(); p != "" {
		if v, err := strconv.Atoi(p); err == nil {
			port = v
		}
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   parsed.Hostname(),
		Port:   port,
		APIKey: opts.APIKey,
		UseTLS: parsed.Scheme == "https",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create qdrant client: %w", err)
	}

	return &qdrantStore{
		client:         client,
		collectionName: opts.Collection,
		vectorSize:     opts.VectorSize,
		log:            log,
	}, nil
}

func (q *qdrantStore) InitCollection(ctx context.Context) error {
	exists, err := q.client.CollectionExists(ctx, q.collectionName)
	if err != nil {
		return fmt.Errorf("failed to check collection: %w", err)
	}
	if exists {
		return nil
	}

	err = q.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: q.collectionName,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     q.vectorSize,
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return fmt.Errorf("failed to create collection: %w", err)
	}

	q.log.Info("qdrant collection created", zap.String("collection", q.collectionName))
	return nil
}

func (q *qdrantStore) UpsertChunk(ctx context.Context, chunk GuidanceChunk, embedding []float32) error {
	point := &qdrant.PointStruct{
		Id:      qdrant.NewID(uuid.NewString()),
		Vectors: qdrant.NewVectors(embedding...),
		Payload: qdrant.NewValueMap(map[string]any{
			"source":   chunk.Source,
			"doc_type": chunk.DocType,
			"chunk":    chunk.Index,
			"text":     chunk.Text,
		}),
	}

	_, err := q.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: q.collectionName,
		Points:         []*qdrant.PointStruct{point},
	})
	if err != nil {
		return fmt.Errorf("failed to upsert point: %w", err)
	}
	return nil
}

func (q *qdrantStore) SearchSimilar(ctx context.Context, queryEmbedding []float32, docType string, limit int) ([]SearchResult, error) {
	var filter *qdrant.Filter
	if docType != "" {
		filter = &qdrant.Filter{
			Must: []*qdrant.Condition{qdrant.NewMatch("doc_type", docType)},
		}
	}

	points, err := q.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: q.collectionName,
		Query:          qdrant.NewQuery(queryEmbedding...),
		Filter:         filter,
		Limit:          qdrant.PtrOf(uint64(limit)),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to search: %w", err)
	}

	results := make([]SearchResult, 0, len(points))
	for _, point := range points {
		results = append(results, SearchResult{
			ID:      point.GetId().GetUuid(),
			Score:   point.GetScore(),
			Text:    payloadString(point.GetPayload(), "text"),
			DocType: payloadString(point.GetPayload(), "doc_type"),
			Source:  payloadString(point.GetPayload(), "source"),
		})
	}
	return results, nil
}

// DeleteSource removes every chunk ingested from source so it can be re-ingested.
func (q *qdrantStore) DeleteSource(ctx context.Context, source string) error {
	_, err := q.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: q.collectionName,
		Points: qdrant.NewPointsSelectorFilter(&qdrant.Filter{
			Must: []*qdrant.Condition{qdrant.NewMatch("source", source)},
		}),
	})
	if err != nil {
		return fmt.Errorf("failed to delete source %s: %w", source, err)
	}
	return nil
}

func (q *qdrantStore) Close() error {
	return q.client.Close()
}

func payloadString(payload map[string]*qdrant.Value, key string) string {
	if v, ok := payload[key]; ok {
		return v.GetStringValue()
	}
	return ""
}

// GuidanceRetriever finds reference guidance relevant to a query text.
type GuidanceRetriever interface {
	Retrieve(ctx context.Context, query string) ([]SearchResult, error)
}

type guidanceRetriever struct {
	embedder Embedder
	store    GuidanceStore
	docType  string
	topK     int
}

func NewGuidanceRetriever(embedder Embedder, store GuidanceStore, docType string, topK int) GuidanceRetriever {
	if topK <= 0 {
		topK = 3
	}
	return &guidanceRetriever{embedder: embedder, store: store, docType: docType, topK: topK}
}

func (r *guidanceRetriever) Retrieve(ctx context.Context, query string) ([]SearchResult, error) {
	embedding, err := r.embedder.GenerateEmbedding(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to generate query embedding: %w", err)
	}

	results, err := r.store.SearchSimilar(ctx, embedding, r.docType, r.topK)
	if err != nil {
		return nil, fmt.Errorf("failed to search guidance: %w", err)
	}
	return results, nil
}
