package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	apperrors "resume-matcher/internal/errors"
)

func newTestJDExtractor(gemini GeminiService, maxRetries int) JDExtractorService {
	return NewJDExtractorService(gemini, maxRetries, time.Millisecond, zap.NewNop())
}

func TestExtract_BuildsJobRequirement(t *testing.T) {
	gemini := &fakeGemini{jsonResponses: []string{`{
		"job_title": "Senior Backend Engineer",
		"required_skills": ["Go", " PostgreSQL ", ""],
		"experience_years": 5.0,
		"qualifications": ["BSc Computer Science"],
		"responsibilities": ["Design APIs", "Review code"]
	}`}}

	job, err := newTestJDExtractor(gemini, 1).Extract(context.Background(), "We need a backend engineer...")
	require.NoError(t, err)

	assert.Equal(t, "Senior Backend Engineer", job.Title)
	assert.Equal(t, []string{"Go", "PostgreSQL"}, job.RequiredSkills)
	assert.Equal(t, 5.0, job.MinExperienceYears)
	assert.Equal(t, []string{"BSc Computer Science"}, job.Qualifications)
	assert.Len(t, job.Responsibilities, 2)
}

func TestExtract_RejectsEmptyInput(t *testing.T) {
	gemini := &fakeGemini{}
	_, err := newTestJDExtractor(gemini, 1).Extract(context.Background(), "   \n ")

	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))
	assert.Zero(t, gemini.jsonCalls)
}

func TestExtract_DefaultsMissingFields(t *testing.T) {
	tests := []struct {
		name     string
		response string
	}{
		{"empty title and negative years", `{"job_title": "", "experience_years": -2}`},
		{"quoted years and null lists", `{"job_title": " ", "experience_years": "abc", "required_skills": null}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gemini := &fakeGemini{jsonResponses: []string{tt.response}}
			job, err := newTestJDExtractor(gemini, 1).Extract(context.Background(), "jd")
			require.NoError(t, err)

			assert.Equal(t, "Unknown Position", job.Title)
			assert.Zero(t, job.MinExperienceYears)
			assert.Empty(t, job.RequiredSkills)
		})
	}
}

func TestExtract_RetriesThenSucceeds(t *testing.T) {
	gemini := &fakeGemini{
		jsonErrs:      []error{errors.New("transient upstream failure"), nil},
		jsonResponses: []string{"", `{"job_title": "Engineer", "experience_years": 3}`},
	}

	job, err := newTestJDExtractor(gemini, 3).Extract(context.Background(), "jd")
	require.NoError(t, err)
	assert.Equal(t, "Engineer", job.Title)
	assert.Equal(t, 2, gemini.jsonCalls)
}

func TestExtract_ClassifiesRateLimit(t *testing.T) {
	gemini := &fakeGemini{jsonErrs: []error{errors.New("429 resource exhausted")}}

	_, err := newTestJDExtractor(gemini, 1).Extract(context.Background(), "jd")
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeRateLimit))
}

func TestExtract_FailsAfterExhaustedRetries(t *testing.T) {
	gemini := &fakeGemini{jsonErrs: []error{
		errors.New("boom"), errors.New("boom"), errors.New("boom"),
	}}

	_, err := newTestJDExtractor(gemini, 3).Extract(context.Background(), "jd")
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeExtraction))
	assert.Equal(t, 3, gemini.jsonCalls)
}
