package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	apperrors "resume-matcher/internal/errors"
	"resume-matcher/internal/metrics"
	"resume-matcher/internal/models"
)

// maxEmbeddingTextLength bounds embedding input size.
const maxEmbeddingTextLength = 10000

// EmbeddingService produces fixed-dimension vectors for jobs and candidates.
// Candidate embeddings are built from a composite of matchable fields, not
// the raw resume text, so the vector stays focused on skills and experience.
type EmbeddingService interface {
	EmbedText(ctx context.Context, text string) ([]float32, error)
	EmbedJob(ctx context.Context, job *models.JobRequirement) ([]float32, error)
	EmbedCandidate(ctx context.Context, candidate *models.CandidateProfile) ([]float32, error)
}

type embeddingService struct {
	gemini     GeminiService
	dimension  int
	maxRetries int
	retryDelay time.Duration
	logger     *zap.Logger
}

func NewEmbeddingService(gemini GeminiService, dimension, maxRetries int, retryDelay time.Duration, logger *zap.Logger) EmbeddingService {
	return &embeddingService{
		gemini:     gemini,
		dimension:  dimension,
		maxRetries: maxRetries,
		retryDelay: retryDelay,
		logger:     logger,
	}
}

// EmbedText implements EmbeddingService.
func (s *embeddingService) EmbedText(ctx context.Context, text string) ([]float32, error) {
	start := time.Now()

	text = truncateText(text, maxEmbeddingTextLength)

	vector, err := withRetry(ctx, s.maxRetries, s.retryDelay, func() ([]float32, error) {
		return s.gemini.GenerateEmbedding(ctx, text)
	})
	metrics.ObserveStage("embedding", start, err)
	if err != nil {
		if apperrors.IsRateLimit(err) {
			return nil, apperrors.NewRateLimit(apperrors.StageEmbedding, err)
		}
		return nil, apperrors.NewEmbedding("failed to generate embedding", err)
	}

	// Downstream cosine comparison and vector storage both assume a fixed
	// dimension; a mismatch is fatal for the item.
	if len(vector) != s.dimension {
		return nil, apperrors.NewEmbedding(
			fmt.Sprintf("embedding dimension mismatch: expected %d, got %d", s.dimension, len(vector)), nil)
	}

	return vector, nil
}

// EmbedJob implements EmbeddingService.
func (s *embeddingService) EmbedJob(ctx context.Context, job *models.JobRequirement) ([]float32, error) {
	parts := []string{
		"Job Title: " + job.Title,
		"Required Skills: " + strings.Join(job.RequiredSkills, ", "),
		fmt.Sprintf("Experience Required: %.1f years", job.MinExperienceYears),
		"Qualifications: " + strings.Join(job.Qualifications, ", "),
		"Responsibilities: " + strings.Join(job.Responsibilities, "; "),
	}
	return s.EmbedText(ctx, strings.Join(parts, "\n"))
}

// EmbedCandidate implements EmbeddingService.
func (s *embeddingService) EmbedCandidate(ctx context.Context, candidate *models.CandidateProfile) ([]float32, error) {
	parts := []string{
		"Skills: " + strings.Join(candidate.Skills, ", "),
		"Work History: " + strings.Join(candidate.WorkHistory, "; "),
		"Education: " + strings.Join(candidate.Education, "; "),
	}
	return s.EmbedText(ctx, strings.Join(parts, "\n"))
}
