package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"resume-matcher/internal/models"
)

func newTestRecommender(gemini GeminiService) SkillRecommenderService {
	return NewSkillRecommenderService(gemini, 1, time.Millisecond, zap.NewNop())
}

func potentialMatch() *models.MatchResult {
	return &models.MatchResult{
		ResumeID:      "resume_pot",
		MatchScore:    70,
		MatchedSkills: []string{"Python"},
		MissingSkills: []string{"Kubernetes", "Terraform", "AWS"},
	}
}

func TestRecommend_ParsesAndOrdersGaps(t *testing.T) {
	gemini := &fakeGemini{jsonResponses: []string{`[
		{"missing_skill": "AWS", "importance": "medium", "reason": "Cloud deployment target.", "learning_path": "AWS fundamentals course.", "estimated_time": "2 months"},
		{"missing_skill": "Terraform", "importance": "high", "reason": "Infrastructure as code is core to the role.", "learning_path": "HashiCorp tutorials.", "estimated_time": "6 weeks"},
		{"missing_skill": "Kubernetes", "importance": "high", "reason": "All services run on k8s.", "learning_path": "CKA prep.", "estimated_time": "3 months"}
	]`}}

	gaps, err := newTestRecommender(gemini).Recommend(context.Background(), backendJob(), potentialMatch())
	require.NoError(t, err)
	require.Len(t, gaps, 3)

	// High importance first; within a tier, missing-skills order wins.
	assert.Equal(t, "Kubernetes", gaps[0].MissingSkill)
	assert.Equal(t, "Terraform", gaps[1].MissingSkill)
	assert.Equal(t, "AWS", gaps[2].MissingSkill)
	assert.Equal(t, models.ImportanceHigh, gaps[0].Importance)
	assert.Equal(t, models.ImportanceMedium, gaps[2].Importance)
}

func TestRecommend_NormalizesUnknownImportance(t *testing.T) {
	gemini := &fakeGemini{jsonResponses: []string{`[
		{"missing_skill": "Kubernetes", "importance": "critical", "reason": "r", "learning_path": "l", "estimated_time": "t"}
	]`}}

	gaps, err := newTestRecommender(gemini).Recommend(context.Background(), backendJob(), potentialMatch())
	require.NoError(t, err)
	require.Len(t, gaps, 1)
	assert.Equal(t, models.ImportanceMedium, gaps[0].Importance)
}

func TestRecommend_DropsIncompleteEntries(t *testing.T) {
	gemini := &fakeGemini{jsonResponses: []string{`[
		{"missing_skill": "Kubernetes", "importance": "high", "reason": "", "learning_path": "l", "estimated_time": "t"},
		{"missing_skill": "", "importance": "high", "reason": "r", "learning_path": "l", "estimated_time": "t"},
		{"missing_skill": "AWS", "importance": "low", "reason": "r", "learning_path": "l", "estimated_time": "t"}
	]`}}

	gaps, err := newTestRecommender(gemini).Recommend(context.Background(), backendJob(), potentialMatch())
	require.NoError(t, err)
	require.Len(t, gaps, 1)
	assert.Equal(t, "AWS", gaps[0].MissingSkill)
}

func TestRecommend_CapsAtFiveGaps(t *testing.T) {
	gemini := &fakeGemini{jsonResponses: []string{`[
		{"missing_skill": "S1", "importance": "high", "reason": "r", "learning_path": "l", "estimated_time": "t"},
		{"missing_skill": "S2", "importance": "high", "reason": "r", "learning_path": "l", "estimated_time": "t"},
		{"missing_skill": "S3", "importance": "high", "reason": "r", "learning_path": "l", "estimated_time": "t"},
		{"missing_skill": "S4", "importance": "high", "reason": "r", "learning_path": "l", "estimated_time": "t"},
		{"missing_skill": "S5", "importance": "high", "reason": "r", "learning_path": "l", "estimated_time": "t"},
		{"missing_skill": "S6", "importance": "high", "reason": "r", "learning_path": "l", "estimated_time": "t"},
		{"missing_skill": "S7", "importance": "high", "reason": "r", "learning_path": "l", "estimated_time": "t"}
	]`}}

	gaps, err := newTestRecommender(gemini).Recommend(context.Background(), backendJob(), potentialMatch())
	require.NoError(t, err)
	assert.Len(t, gaps, 5)
}

func TestRecommend_SkipsOutsidePotentialBand(t *testing.T) {
	gemini := &fakeGemini{}
	recommender := newTestRecommender(gemini)

	for _, score := range []float64{64.99, 80.00, 95, 10} {
		match := potentialMatch()
		match.MatchScore = score

		gaps, err := recommender.Recommend(context.Background(), backendJob(), match)
		assert.NoError(t, err)
		assert.Empty(t, gaps)
	}
	assert.Zero(t, gemini.jsonCalls)
}

func TestRecommend_ShortCircuitsOnNoMissingSkills(t *testing.T) {
	gemini := &fakeGemini{}
	match := potentialMatch()
	match.MissingSkills = nil

	gaps, err := newTestRecommender(gemini).Recommend(context.Background(), backendJob(), match)
	assert.NoError(t, err)
	assert.Empty(t, gaps)
	assert.Zero(t, gemini.jsonCalls)
}

func TestRecommend_SurfacesProviderFailure(t *testing.T) {
	gemini := &fakeGemini{jsonErrs: []error{errors.New("model unavailable")}}

	gaps, err := newTestRecommender(gemini).Recommend(context.Background(), backendJob(), potentialMatch())
	assert.Error(t, err)
	assert.Nil(t, gaps)
}

func TestRecommend_RetriesMalformedJSON(t *testing.T) {
	gemini := &fakeGemini{jsonResponses: []string{
		`not json at all`,
		`[{"missing_skill": "Kubernetes", "importance": "high", "reason": "r", "learning_path": "l", "estimated_time": "t"}]`,
	}}

	recommender := NewSkillRecommenderService(gemini, 3, time.Millisecond, zap.NewNop())
	gaps, err := recommender.Recommend(context.Background(), backendJob(), potentialMatch())
	require.NoError(t, err)
	assert.Len(t, gaps, 1)
	assert.Equal(t, 2, gemini.jsonCalls)
}
