package services

import (
	"fmt"
	"math"
	"strings"

	"go.uber.org/zap"

	"resume-matcher/internal/metrics"
	"resume-matcher/internal/models"
)

// Score weights. Skill overlap carries the most signal, experience and
// semantic role fit split the remainder evenly.
const (
	skillWeight      = 0.40
	experienceWeight = 0.30
	roleWeight       = 0.30
)

// MatchEvaluatorService scores a candidate against a job requirement.
// Evaluate computes role similarity from the two embeddings; EvaluateStored
// takes a precomputed cosine similarity, which is what the vector store
// already returns for search hits.
type MatchEvaluatorService interface {
	Evaluate(job *models.JobRequirement, candidate *models.CandidateProfile, jobVector, candidateVector []float32) *models.MatchResult
	EvaluateStored(job *models.JobRequirement, candidate *models.CandidateProfile, similarity float64) *models.MatchResult
}

type matchEvaluatorService struct {
	fullCreditWhenNoSkills bool
	logger                 *zap.Logger
}

func NewMatchEvaluatorService(fullCreditWhenNoSkills bool, logger *zap.Logger) MatchEvaluatorService {
	return &matchEvaluatorService{
		fullCreditWhenNoSkills: fullCreditWhenNoSkills,
		logger:                 logger,
	}
}

// Evaluate implements MatchEvaluatorService.
func (s *matchEvaluatorService) Evaluate(job *models.JobRequirement, candidate *models.CandidateProfile, jobVector, candidateVector []float32) *models.MatchResult {
	return s.evaluateWithSimilarity(job, candidate, CosineSimilarity(jobVector, candidateVector))
}

// EvaluateStored implements MatchEvaluatorService.
func (s *matchEvaluatorService) EvaluateStored(job *models.JobRequirement, candidate *models.CandidateProfile, similarity float64) *models.MatchResult {
	return s.evaluateWithSimilarity(job, candidate, similarity)
}

func (s *matchEvaluatorService) evaluateWithSimilarity(job *models.JobRequirement, candidate *models.CandidateProfile, similarity float64) *models.MatchResult {
	rawSkill, matched, missing := s.skillMatch(job.RequiredSkills, candidate.Skills)

	// Sub-scores are rounded before the weighted sum so the published total
	// always recomputes exactly from the published components.
	skillScore := round2(rawSkill)
	experienceScore := round2(experienceMatch(candidate.ExperienceYears, job.MinExperienceYears))
	roleScore := round2(clamp(similarity*100, 0, 100))

	total := round2(skillWeight*skillScore + experienceWeight*experienceScore + roleWeight*roleScore)

	metrics.MatchesEvaluated.Inc()

	return &models.MatchResult{
		ResumeID:             candidate.ResumeID,
		CandidateName:        candidate.CandidateName,
		MatchScore:           total,
		SkillMatchScore:      skillScore,
		ExperienceMatchScore: experienceScore,
		RoleMatchScore:       roleScore,
		MatchedSkills:        matched,
		MissingSkills:        missing,
		SkillGaps:            []models.SkillGap{},
		Recommendation:       recommendation(total, skillScore, experienceScore, roleScore),
	}
}

// skillMatch intersects required and candidate skills case-insensitively.
// Matched and missing keep the required skills' original casing and order.
func (s *matchEvaluatorService) skillMatch(required, candidateSkills []string) (float64, []string, []string) {
	matched := []string{}
	missing := []string{}

	if len(required) == 0 {
		if s.fullCreditWhenNoSkills {
			return 100, matched, missing
		}
		return 0, matched, missing
	}

	have := make(map[string]bool, len(candidateSkills))
	for _, skill := range candidateSkills {
		have[normalizeSkill(skill)] = true
	}

	for _, skill := range required {
		if have[normalizeSkill(skill)] {
			matched = append(matched, skill)
		} else {
			missing = append(missing, skill)
		}
	}

	return 100 * float64(len(matched)) / float64(len(required)), matched, missing
}

func experienceMatch(candidateYears, requiredYears float64) float64 {
	if requiredYears <= 0 {
		// No requirement stated means full credit.
		return 100
	}
	ratio := candidateYears / requiredYears
	if ratio > 1 {
		ratio = 1
	}
	if ratio < 0 {
		ratio = 0
	}
	return 100 * ratio
}

// recommendation maps the score band to a verdict plus a one-line
// justification naming the strongest component (high band) or the weakest
// one (lower bands).
func recommendation(total, skillScore, experienceScore, roleScore float64) string {
	strongest, weakest := dominantComponents(skillScore, experienceScore, roleScore)

	switch {
	case total >= models.HighMatchThreshold:
		return fmt.Sprintf("Highly recommended: strong overall fit, led by %s.", strongest)
	case total >= models.PotentialMatchThreshold:
		return fmt.Sprintf("Potential candidate: worth considering, but %s needs improvement.", weakest)
	default:
		return fmt.Sprintf("Not recommended: overall fit is weak, mainly due to %s.", weakest)
	}
}

// dominantComponents picks the highest- and lowest-scoring components. Ties
// resolve in a fixed order (skills, then experience, then role similarity)
// so the text is deterministic.
func dominantComponents(skillScore, experienceScore, roleScore float64) (strongest, weakest string) {
	components := []struct {
		name  string
		score float64
	}{
		{"skill coverage", skillScore},
		{"experience", experienceScore},
		{"role similarity", roleScore},
	}

	best, worst := 0, 0
	for i, c := range components[1:] {
		if c.score > components[best].score {
			best = i + 1
		}
		if c.score < components[worst].score {
			worst = i + 1
		}
	}

	return components[best].name, components[worst].name
}

// CosineSimilarity returns the cosine of the angle between two vectors.
// Mismatched lengths or a zero vector yield 0.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

func normalizeSkill(skill string) string {
	return strings.ToLower(strings.TrimSpace(skill))
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
