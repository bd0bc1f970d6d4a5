package services

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"go.uber.org/zap"

	apperrors "resume-matcher/internal/errors"
	"resume-matcher/internal/metrics"
	"resume-matcher/internal/models"
)

// JDExtractorService turns a free-text job description into a structured
// JobRequirement via the LLM.
type JDExtractorService interface {
	Extract(ctx context.Context, jdText string) (*models.JobRequirement, error)
}

type jdExtractorService struct {
	gemini     GeminiService
	prompts    *PromptBuilder
	maxRetries int
	retryDelay time.Duration
	logger     *zap.Logger
}

func NewJDExtractorService(gemini GeminiService, maxRetries int, retryDelay time.Duration, logger *zap.Logger) JDExtractorService {
	return &jdExtractorService{
		gemini:     gemini,
		prompts:    NewPromptBuilder(),
		maxRetries: maxRetries,
		retryDelay: retryDelay,
		logger:     logger,
	}
}

// jdPayload is the tagged schema the LLM response must satisfy. Coercion to
// the domain record happens in one place, right after the call.
type jdPayload struct {
	JobTitle         string    `json:"job_title"`
	RequiredSkills   []string  `json:"required_skills"`
	ExperienceYears  flexFloat `json:"experience_years"`
	Qualifications   []string  `json:"qualifications"`
	Responsibilities []string  `json:"responsibilities"`
}

// Extract implements JDExtractorService.
func (s *jdExtractorService) Extract(ctx context.Context, jdText string) (*models.JobRequirement, error) {
	start := time.Now()

	if strings.TrimSpace(jdText) == "" {
		return nil, apperrors.NewValidation("job description text cannot be empty")
	}

	prompt := s.prompts.BuildJDExtractionPrompt(jdText)

	// Generation and decoding retry together: a syntactically broken
	// response is as retryable as a transport failure.
	payload, err := withRetry(ctx, s.maxRetries, s.retryDelay, func() (*jdPayload, error) {
		raw, err := s.gemini.GenerateJSON(ctx, prompt, 0.2)
		if err != nil {
			return nil, err
		}

		var p jdPayload
		if err := json.Unmarshal([]byte(raw), &p); err != nil {
			return nil, err
		}
		return &p, nil
	})
	metrics.ObserveStage("jd_extraction", start, err)
	if err != nil {
		if apperrors.IsRateLimit(err) {
			return nil, apperrors.NewRateLimit(apperrors.StageExtraction, err)
		}
		return nil, apperrors.NewExtraction("failed to extract job description", err)
	}

	job := &models.JobRequirement{
		Title:              strings.TrimSpace(payload.JobTitle),
		RequiredSkills:     cleanStringList(payload.RequiredSkills, 0),
		MinExperienceYears: float64(payload.ExperienceYears),
		Qualifications:     cleanStringList(payload.Qualifications, 0),
		Responsibilities:   cleanStringList(payload.Responsibilities, 0),
	}
	if job.Title == "" {
		job.Title = "Unknown Position"
	}
	if job.MinExperienceYears < 0 {
		job.MinExperienceYears = 0
	}

	s.logger.Info("extracted job requirements",
		zap.String("job_title", job.Title),
		zap.Int("required_skills", len(job.RequiredSkills)),
		zap.Float64("experience_years", job.MinExperienceYears),
	)

	return job, nil
}
