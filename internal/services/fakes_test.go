package services

import (
	"context"
	"errors"

	"resume-matcher/internal/models"
	"resume-matcher/internal/repositories"
)

// fakeGemini serves canned responses. Responses are consumed in order so a
// test can script a failure followed by a success.
type fakeGemini struct {
	embedding     []float32
	embeddingErr  error
	jsonResponses []string
	jsonErrs      []error
	jsonCalls     int
	embedCalls    int
}

func (f *fakeGemini) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	f.embedCalls++
	if f.embeddingErr != nil {
		return nil, f.embeddingErr
	}
	return f.embedding, nil
}

func (f *fakeGemini) GenerateJSON(ctx context.Context, prompt string, temperature float32) (string, error) {
	i := f.jsonCalls
	f.jsonCalls++

	if i < len(f.jsonErrs) && f.jsonErrs[i] != nil {
		return "", f.jsonErrs[i]
	}
	if i < len(f.jsonResponses) {
		return f.jsonResponses[i], nil
	}
	if len(f.jsonResponses) > 0 {
		return f.jsonResponses[len(f.jsonResponses)-1], nil
	}
	return "", errors.New("no response scripted")
}

type fakeVectorStore struct {
	hits       []SearchHit
	queryErr   error
	stored     []ResumeVector
	storeErr   error
	failedIDs  []string
	queryCalls int
}

func (f *fakeVectorStore) InitCollection(ctx context.Context) error { return nil }

func (f *fakeVectorStore) Store(ctx context.Context, item ResumeVector) error {
	if f.storeErr != nil {
		return f.storeErr
	}
	f.stored = append(f.stored, item)
	return nil
}

func (f *fakeVectorStore) StoreBatch(ctx context.Context, items []ResumeVector) (int, []string, error) {
	if f.storeErr != nil {
		return 0, nil, f.storeErr
	}
	failed := make(map[string]bool, len(f.failedIDs))
	for _, id := range f.failedIDs {
		failed[id] = true
	}
	stored := 0
	for _, item := range items {
		if failed[item.Profile.ResumeID] {
			continue
		}
		f.stored = append(f.stored, item)
		stored++
	}
	return stored, f.failedIDs, nil
}

func (f *fakeVectorStore) Query(ctx context.Context, embedding []float32, topK int, minSimilarity float64) ([]SearchHit, error) {
	f.queryCalls++
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	if topK < len(f.hits) {
		return f.hits[:topK], nil
	}
	return f.hits, nil
}

func (f *fakeVectorStore) Delete(ctx context.Context, resumeID string) error { return nil }

func (f *fakeVectorStore) Stats(ctx context.Context) (*IndexStats, error) {
	return &IndexStats{TotalVectors: uint64(len(f.stored))}, nil
}

type fakeRunRepo struct {
	created   []*models.MatchRun
	createErr error
}

func (f *fakeRunRepo) Create(run *models.MatchRun) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.created = append(f.created, run)
	return nil
}

func (f *fakeRunRepo) List(limit, skip int) ([]models.MatchRun, error) {
	return nil, nil
}

func (f *fakeRunRepo) Statistics() (*repositories.MatchStatistics, error) {
	return &repositories.MatchStatistics{}, nil
}

type fakeJDExtractor struct {
	job *models.JobRequirement
	err error
}

func (f *fakeJDExtractor) Extract(ctx context.Context, jdText string) (*models.JobRequirement, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.job, nil
}

// fakeResumeParser returns profiles keyed by resume ID, or a scripted error
// for IDs listed in failIDs.
type fakeResumeParser struct {
	profiles map[string]*models.CandidateProfile
	failIDs  map[string]error
}

func (f *fakeResumeParser) Parse(ctx context.Context, resumeText, resumeID string) (*models.CandidateProfile, error) {
	if err, ok := f.failIDs[resumeID]; ok {
		return nil, err
	}
	if p, ok := f.profiles[resumeID]; ok {
		return p, nil
	}
	return &models.CandidateProfile{ResumeID: resumeID, CandidateName: "Candidate " + resumeID}, nil
}

// fakePDFParser treats the file bytes as plain text.
type fakePDFParser struct {
	err error
}

func (f *fakePDFParser) ExtractText(filePath string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return "text from " + filePath, nil
}

func (f *fakePDFParser) ExtractTextFromBytes(data []byte) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return string(data), nil
}

type fakeEmbedder struct {
	vector []float32
	err    error
}

func (f *fakeEmbedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.vector, nil
}

func (f *fakeEmbedder) EmbedJob(ctx context.Context, job *models.JobRequirement) ([]float32, error) {
	return f.EmbedText(ctx, "")
}

func (f *fakeEmbedder) EmbedCandidate(ctx context.Context, candidate *models.CandidateProfile) ([]float32, error) {
	return f.EmbedText(ctx, "")
}

type fakeRecommender struct {
	gaps  []models.SkillGap
	err   error
	calls int
}

func (f *fakeRecommender) Recommend(ctx context.Context, job *models.JobRequirement, match *models.MatchResult) ([]models.SkillGap, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.gaps, nil
}
