package services

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	apperrors "resume-matcher/internal/errors"
	"resume-matcher/internal/metrics"
	"resume-matcher/internal/models"
)

// maxSkillGaps caps the recommendations per candidate regardless of how many
// the model returns.
const maxSkillGaps = 5

// SkillRecommenderService produces learning-path guidance for the missing
// skills of candidates in the potential band.
type SkillRecommenderService interface {
	Recommend(ctx context.Context, job *models.JobRequirement, match *models.MatchResult) ([]models.SkillGap, error)
}

type skillRecommenderService struct {
	gemini     GeminiService
	prompts    *PromptBuilder
	maxRetries int
	retryDelay time.Duration
	logger     *zap.Logger
}

func NewSkillRecommenderService(gemini GeminiService, maxRetries int, retryDelay time.Duration, logger *zap.Logger) SkillRecommenderService {
	return &skillRecommenderService{
		gemini:     gemini,
		prompts:    NewPromptBuilder(),
		maxRetries: maxRetries,
		retryDelay: retryDelay,
		logger:     logger,
	}
}

type skillGapPayload struct {
	MissingSkill  string `json:"missing_skill"`
	Importance    string `json:"importance"`
	Reason        string `json:"reason"`
	LearningPath  string `json:"learning_path"`
	EstimatedTime string `json:"estimated_time"`
}

// Recommend implements SkillRecommenderService. Only candidates inside the
// potential band get recommendations; everyone else returns an empty slice
// without an LLM call, as does a candidate with nothing missing.
func (s *skillRecommenderService) Recommend(ctx context.Context, job *models.JobRequirement, match *models.MatchResult) ([]models.SkillGap, error) {
	if match.MatchScore < models.PotentialMatchThreshold || match.MatchScore >= models.HighMatchThreshold {
		return []models.SkillGap{}, nil
	}
	if len(match.MissingSkills) == 0 {
		return []models.SkillGap{}, nil
	}

	start := time.Now()
	prompt := s.prompts.BuildSkillGapPrompt(job, match, maxSkillGaps)

	payloads, err := withRetry(ctx, s.maxRetries, s.retryDelay, func() ([]skillGapPayload, error) {
		raw, err := s.gemini.GenerateJSON(ctx, prompt, 0.4)
		if err != nil {
			return nil, err
		}

		var items []skillGapPayload
		if err := json.Unmarshal([]byte(raw), &items); err != nil {
			return nil, err
		}
		return items, nil
	})
	metrics.ObserveStage("skill_recommendation", start, err)
	if err != nil {
		if apperrors.IsRateLimit(err) {
			return nil, apperrors.NewRateLimit(apperrors.StageRecommendation, err)
		}
		return nil, apperrors.NewExtraction("failed to generate skill recommendations for "+match.ResumeID, err)
	}

	gaps := make([]models.SkillGap, 0, len(payloads))
	for _, p := range payloads {
		skill := strings.TrimSpace(p.MissingSkill)
		if skill == "" || p.Reason == "" || p.LearningPath == "" || p.EstimatedTime == "" {
			continue
		}
		gaps = append(gaps, models.SkillGap{
			MissingSkill:  skill,
			Importance:    normalizeImportance(p.Importance),
			Reason:        strings.TrimSpace(p.Reason),
			LearningPath:  strings.TrimSpace(p.LearningPath),
			EstimatedTime: strings.TrimSpace(p.EstimatedTime),
		})
	}

	sortSkillGaps(gaps, match.MissingSkills)

	if len(gaps) > maxSkillGaps {
		gaps = gaps[:maxSkillGaps]
	}

	s.logger.Debug("generated skill gap recommendations",
		zap.String("resume_id", match.ResumeID),
		zap.Int("gaps", len(gaps)),
	)

	return gaps, nil
}

// normalizeImportance coerces out-of-range importance values to medium
// instead of rejecting the whole recommendation.
func normalizeImportance(raw string) models.SkillGapImportance {
	switch models.SkillGapImportance(strings.ToLower(strings.TrimSpace(raw))) {
	case models.ImportanceHigh:
		return models.ImportanceHigh
	case models.ImportanceLow:
		return models.ImportanceLow
	default:
		return models.ImportanceMedium
	}
}

// sortSkillGaps orders by importance (high first), ties broken by the skill's
// position in the missing-skills list.
func sortSkillGaps(gaps []models.SkillGap, missingSkills []string) {
	rank := map[models.SkillGapImportance]int{
		models.ImportanceHigh:   0,
		models.ImportanceMedium: 1,
		models.ImportanceLow:    2,
	}

	position := make(map[string]int, len(missingSkills))
	for i, skill := range missingSkills {
		position[normalizeSkill(skill)] = i
	}

	indexOf := func(g models.SkillGap) int {
		if idx, ok := position[normalizeSkill(g.MissingSkill)]; ok {
			return idx
		}
		return len(missingSkills)
	}

	sort.SliceStable(gaps, func(i, j int) bool {
		if rank[gaps[i].Importance] != rank[gaps[j].Importance] {
			return rank[gaps[i].Importance] < rank[gaps[j].Importance]
		}
		return indexOf(gaps[i]) < indexOf(gaps[j])
	})
}
