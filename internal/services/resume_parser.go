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

// maxResumeTextLength bounds how much resume text is sent to the LLM. The
// head of the document is kept since resumes front-load identity and summary.
const maxResumeTextLength = 4000

// ResumeParserService turns raw resume text into a structured
// CandidateProfile via the LLM.
type ResumeParserService interface {
	Parse(ctx context.Context, resumeText, resumeID string) (*models.CandidateProfile, error)
}

type resumeParserService struct {
	gemini     GeminiService
	prompts    *PromptBuilder
	maxRetries int
	retryDelay time.Duration
	logger     *zap.Logger
}

func NewResumeParserService(gemini GeminiService, maxRetries int, retryDelay time.Duration, logger *zap.Logger) ResumeParserService {
	return &resumeParserService{
		gemini:     gemini,
		prompts:    NewPromptBuilder(),
		maxRetries: maxRetries,
		retryDelay: retryDelay,
		logger:     logger,
	}
}

type resumePayload struct {
	CandidateName string    `json:"candidate_name"`
	Email         string    `json:"email"`
	Skills        []string  `json:"skills"`
	Experience    flexFloat `json:"experience_years"`
	WorkHistory   []string  `json:"work_history"`
	Education     []string  `json:"education"`
}

// Parse implements ResumeParserService.
func (s *resumeParserService) Parse(ctx context.Context, resumeText, resumeID string) (*models.CandidateProfile, error) {
	start := time.Now()

	if strings.TrimSpace(resumeText) == "" {
		return nil, apperrors.NewParsing("resume text is empty", nil)
	}

	resumeText = truncateText(resumeText, maxResumeTextLength)

	prompt := s.prompts.BuildResumeParsePrompt(resumeText)

	payload, err := withRetry(ctx, s.maxRetries, s.retryDelay, func() (*resumePayload, error) {
		raw, err := s.gemini.GenerateJSON(ctx, prompt, 0.2)
		if err != nil {
			return nil, err
		}

		var p resumePayload
		if err := json.Unmarshal([]byte(raw), &p); err != nil {
			return nil, err
		}
		return &p, nil
	})
	metrics.ObserveStage("resume_parsing", start, err)
	if err != nil {
		if apperrors.IsRateLimit(err) {
			return nil, apperrors.NewRateLimit(apperrors.StageParsing, err)
		}
		return nil, apperrors.NewParsing("failed to parse resume "+resumeID, err)
	}

	profile := &models.CandidateProfile{
		ResumeID:        resumeID,
		CandidateName:   strings.TrimSpace(payload.CandidateName),
		Email:           strings.TrimSpace(payload.Email),
		Skills:          cleanStringList(payload.Skills, models.MaxSkills),
		ExperienceYears: float64(payload.Experience),
		WorkHistory:     cleanStringList(payload.WorkHistory, models.MaxWorkHistory),
		Education:       cleanStringList(payload.Education, models.MaxEducation),
	}
	if profile.ExperienceYears < 0 {
		profile.ExperienceYears = 0
	}

	s.logger.Info("parsed resume",
		zap.String("resume_id", resumeID),
		zap.String("candidate", profile.CandidateName),
		zap.Int("skills", len(profile.Skills)),
	)

	return profile, nil
}
