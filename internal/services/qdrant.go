package services

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"
	"go.uber.org/zap"

	apperrors "resume-matcher/internal/errors"
	"resume-matcher/internal/metrics"
	"resume-matcher/internal/models"
)

// upsertBatchSize caps how many points go into one upsert call.
const upsertBatchSize = 100

// ResumeVector pairs a candidate profile with its embedding for storage.
type ResumeVector struct {
	Profile   *models.CandidateProfile
	Embedding []float32
}

// SearchHit is one similarity-query result. Similarity is the cosine
// similarity between the query vector and the stored resume vector.
type SearchHit struct {
	Profile    *models.CandidateProfile
	Similarity float64
}

// IndexStats describes the vector collection.
type IndexStats struct {
	TotalVectors uint64 `json:"total_vectors"`
	Dimension    int    `json:"dimension"`
}

// VectorStoreService stores and queries resume embeddings with the candidate
// profile carried as payload, so search mode can rebuild profiles without a
// second store.
type VectorStoreService interface {
	InitCollection(ctx context.Context) error
	Store(ctx context.Context, item ResumeVector) error
	StoreBatch(ctx context.Context, items []ResumeVector) (stored int, failedIDs []string, err error)
	Query(ctx context.Context, embedding []float32, topK int, minSimilarity float64) ([]SearchHit, error)
	Delete(ctx context.Context, resumeID string) error
	Stats(ctx context.Context) (*IndexStats, error)
}

type qdrantService struct {
	client         *qdrant.Client
	collectionName string
	vectorSize     uint64
	logger         *zap.Logger
}

func NewQdrantService(urlStr, apiKey, collectionName string, dimension int, logger *zap.Logger) (VectorStoreService, error) {
	parsed, err := url.Parse(urlStr)
	if err != nil {
		return nil, fmt.Errorf("invalid Qdrant URL: %w", err)
	}

	host := parsed.Hostname()
	useTLS := parsed.Scheme == "https"

	// gRPC port, unless the URL overrides it.
	port := 6334
	if p := parsed.Port(); p != "" {
		if v, err := strconv.Atoi(p); err == nil {
			port = v
		}
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   host,
		Port:   port,
		APIKey: apiKey,
		UseTLS: useTLS,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create qdrant client: %w", err)
	}

	return &qdrantService{
		client:         client,
		collectionName: collectionName,
		vectorSize:     uint64(dimension),
		logger:         logger,
	}, nil
}

// InitCollection implements VectorStoreService. Create-if-absent, run once at
// startup so per-request calls can assume the index exists.
func (q *qdrantService) InitCollection(ctx context.Context) error {
	exists, err := q.client.CollectionExists(ctx, q.collectionName)
	if err != nil {
		return apperrors.NewStoreUnavailable("failed to check collection", err)
	}

	if exists {
		q.logger.Info("qdrant collection already exists", zap.String("collection", q.collectionName))
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
		return apperrors.NewStoreUnavailable("failed to create collection", err)
	}

	q.logger.Info("qdrant collection created", zap.String("collection", q.collectionName))
	return nil
}

// Store implements VectorStoreService.
func (q *qdrantService) Store(ctx context.Context, item ResumeVector) error {
	start := time.Now()
	err := q.upsert(ctx, []ResumeVector{item})
	metrics.ObserveStage("vector_store", start, err)
	if err != nil {
		return apperrors.NewStoreUnavailable("failed to upsert resume "+item.Profile.ResumeID, err)
	}
	metrics.ResumesStored.Inc()
	return nil
}

// StoreBatch implements VectorStoreService. Items are upserted in chunks; a
// failing chunk marks its own items failed and the remaining chunks still
// run.
func (q *qdrantService) StoreBatch(ctx context.Context, items []ResumeVector) (int, []string, error) {
	start := time.Now()

	var stored int
	var failedIDs []string
	var lastErr error

	for i := 0; i < len(items); i += upsertBatchSize {
		end := i + upsertBatchSize
		if end > len(items) {
			end = len(items)
		}
		chunk := items[i:end]

		if err := q.upsert(ctx, chunk); err != nil {
			lastErr = err
			for _, item := range chunk {
				failedIDs = append(failedIDs, item.Profile.ResumeID)
			}
			q.logger.Warn("batch upsert chunk failed",
				zap.Int("chunk_size", len(chunk)),
				zap.Error(err),
			)
			continue
		}
		stored += len(chunk)
	}

	metrics.ObserveStage("vector_store_batch", start, lastErr)
	metrics.ResumesStored.Add(float64(stored))

	if stored == 0 && lastErr != nil {
		return 0, failedIDs, apperrors.NewStoreUnavailable("failed to store resume batch", lastErr)
	}
	return stored, failedIDs, nil
}

func (q *qdrantService) upsert(ctx context.Context, items []ResumeVector) error {
	points := make([]*qdrant.PointStruct, 0, len(items))
	for _, item := range items {
		points = append(points, &qdrant.PointStruct{
			Id:      pointID(item.Profile.ResumeID),
			Vectors: qdrant.NewVectors(item.Embedding...),
			Payload: qdrant.NewValueMap(profilePayload(item.Profile)),
		})
	}

	_, err := q.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: q.collectionName,
		Points:         points,
	})
	return err
}

// Query implements VectorStoreService. minSimilarity is the recall floor for
// building a broad candidate pool, not the user-facing match threshold.
func (q *qdrantService) Query(ctx context.Context, embedding []float32, topK int, minSimilarity float64) ([]SearchHit, error) {
	start := time.Now()

	threshold := float32(minSimilarity)
	points, err := q.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: q.collectionName,
		Query:          qdrant.NewQuery(embedding...),
		Limit:          qdrant.PtrOf(uint64(topK)),
		ScoreThreshold: &threshold,
		WithPayload:    qdrant.NewWithPayload(true),
	})
	metrics.ObserveStage("vector_query", start, err)
	if err != nil {
		return nil, apperrors.NewStoreUnavailable("failed to query resume vectors", err)
	}

	hits := make([]SearchHit, 0, len(points))
	for _, point := range points {
		profile := profileFromPayload(point.Payload)
		if profile.ResumeID == "" {
			// Point written by something else; nothing to score against.
			continue
		}
		hits = append(hits, SearchHit{
			Profile:    profile,
			Similarity: float64(point.Score),
		})
	}

	return hits, nil
}

// Delete implements VectorStoreService. Deleting by payload filter keeps the
// operation idempotent; removing a missing resume_id matches nothing.
func (q *qdrantService) Delete(ctx context.Context, resumeID string) error {
	filter := &qdrant.Filter{
		Must: []*qdrant.Condition{
			qdrant.NewMatch("resume_id", resumeID),
		},
	}

	_, err := q.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: q.collectionName,
		Points: &qdrant.PointsSelector{
			PointsSelectorOneOf: &qdrant.PointsSelector_Filter{
				Filter: filter,
			},
		},
	})
	if err != nil {
		return apperrors.NewStoreUnavailable("failed to delete resume "+resumeID, err)
	}

	return nil
}

// Stats implements VectorStoreService.
func (q *qdrantService) Stats(ctx context.Context) (*IndexStats, error) {
	info, err := q.client.GetCollectionInfo(ctx, q.collectionName)
	if err != nil {
		return nil, apperrors.NewStoreUnavailable("failed to read collection info", err)
	}

	stats := &IndexStats{Dimension: int(q.vectorSize)}
	if info.PointsCount != nil {
		stats.TotalVectors = *info.PointsCount
	}
	return stats, nil
}

// pointID derives a stable UUID from the resume_id so re-storing the same
// resume overwrites its previous point instead of duplicating it.
func pointID(resumeID string) *qdrant.PointId {
	return qdrant.NewID(uuid.NewSHA1(uuid.NameSpaceOID, []byte(resumeID)).String())
}

func profilePayload(p *models.CandidateProfile) map[string]any {
	return map[string]any{
		"resume_id":        p.ResumeID,
		"candidate_name":   p.CandidateName,
		"email":            p.Email,
		"skills":           toAnyList(p.Skills),
		"experience_years": p.ExperienceYears,
		"work_history":     toAnyList(p.WorkHistory),
		"education":        toAnyList(p.Education),
	}
}

func profileFromPayload(payload map[string]*qdrant.Value) *models.CandidateProfile {
	return &models.CandidateProfile{
		ResumeID:        payloadString(payload, "resume_id"),
		CandidateName:   payloadString(payload, "candidate_name"),
		Email:           payloadString(payload, "email"),
		Skills:          payloadStringList(payload, "skills"),
		ExperienceYears: payloadFloat(payload, "experience_years"),
		WorkHistory:     payloadStringList(payload, "work_history"),
		Education:       payloadStringList(payload, "education"),
	}
}

func toAnyList(items []string) []any {
	out := make([]any, len(items))
	for i, item := range items {
		out[i] = item
	}
	return out
}

func payloadString(payload map[string]*qdrant.Value, key string) string {
	if v, ok := payload[key]; ok {
		return v.GetStringValue()
	}
	return ""
}

func payloadFloat(payload map[string]*qdrant.Value, key string) float64 {
	if v, ok := payload[key]; ok {
		if d := v.GetDoubleValue(); d != 0 {
			return d
		}
		return float64(v.GetIntegerValue())
	}
	return 0
}

func payloadStringList(payload map[string]*qdrant.Value, key string) []string {
	v, ok := payload[key]
	if !ok {
		return nil
	}
	list := v.GetListValue()
	if list == nil {
		return nil
	}
	out := make([]string, 0, len(list.GetValues()))
	for _, item := range list.GetValues() {
		if s := item.GetStringValue(); s != "" {
			out = append(out, s)
		}
	}
	return out
}
