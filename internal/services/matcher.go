package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"

	apperrors "resume-matcher/internal/errors"
	"resume-matcher/internal/metrics"
	"resume-matcher/internal/models"
	"resume-matcher/internal/repositories"
)

// ResumeFile is one uploaded resume, held in memory.
type ResumeFile struct {
	Filename string
	Data     []byte
}

// MatcherService sequences the extraction, embedding, scoring, and
// recommendation components into the three workflows.
type MatcherService interface {
	MatchResumes(ctx context.Context, jdText string, files []ResumeFile) (*models.MatchResponse, error)
	SearchDatabase(ctx context.Context, jdText string, minMatchScore float64, topK int) (*models.MatchResponse, error)
	StoreResumes(ctx context.Context, files []ResumeFile) (*models.StorageResponse, error)
}

type matcherService struct {
	jdExtractor JDExtractorService
	parser      ResumeParserService
	pdfParser   PDFParserService
	embedder    EmbeddingService
	vectorStore VectorStoreService
	evaluator   MatchEvaluatorService
	recommender SkillRecommenderService
	runs        repositories.MatchRunRepository
	concurrency int
	recallFloor float64
	logger      *zap.Logger
}

func NewMatcherService(
	jdExtractor JDExtractorService,
	parser ResumeParserService,
	pdfParser PDFParserService,
	embedder EmbeddingService,
	vectorStore VectorStoreService,
	evaluator MatchEvaluatorService,
	recommender SkillRecommenderService,
	runs repositories.MatchRunRepository,
	concurrency int,
	recallFloor float64,
	logger *zap.Logger,
) MatcherService {
	if concurrency < 1 {
		concurrency = 1
	}
	return &matcherService{
		jdExtractor: jdExtractor,
		parser:      parser,
		pdfParser:   pdfParser,
		embedder:    embedder,
		vectorStore: vectorStore,
		evaluator:   evaluator,
		recommender: recommender,
		runs:        runs,
		concurrency: concurrency,
		recallFloor: recallFloor,
		logger:      logger,
	}
}

// jdContext is the shared input every candidate is scored against.
type jdContext struct {
	job    *models.JobRequirement
	vector []float32
}

// candidateItem is one resume's pipeline output, correlated by resume ID.
type candidateItem struct {
	profile *models.CandidateProfile
	vector  []float32
}

// MatchResumes implements MatcherService. The JD pipeline and the per-resume
// fan-out run concurrently; a JD failure aborts the request while per-resume
// failures only exclude that resume from the results.
func (s *matcherService) MatchResumes(ctx context.Context, jdText string, files []ResumeFile) (*models.MatchResponse, error) {
	var (
		jd    *jdContext
		jdErr error
		wg    sync.WaitGroup
	)

	wg.Add(1)
	go func() {
		defer wg.Done()
		jd, jdErr = s.prepareJD(ctx, jdText)
	}()

	candidates := s.processResumes(ctx, files)
	wg.Wait()

	if jdErr != nil {
		metrics.MatchRequests.WithLabelValues("upload", "error").Inc()
		return nil, jdErr
	}

	matches := make([]*models.MatchResult, 0, len(candidates))
	for _, c := range candidates {
		matches = append(matches, s.evaluator.Evaluate(jd.job, c.profile, jd.vector, c.vector))
	}

	s.attachSkillGaps(ctx, jd.job, matches)
	sortMatches(matches)

	response := buildResponse(matches)
	s.persistRun(models.RunModeUpload, jd.job.Title, jdText, response)

	metrics.MatchRequests.WithLabelValues("upload", "success").Inc()
	s.logger.Info("match run complete",
		zap.String("job_title", jd.job.Title),
		zap.Int("uploaded", len(files)),
		zap.Int("matched", len(matches)),
		zap.Int("high", response.HighMatches),
		zap.Int("potential", response.PotentialMatches),
	)

	return response, nil
}

// SearchDatabase implements MatcherService. The vector store recalls a broad
// pool above the recall floor; precise scoring and the caller's threshold are
// applied afterwards.
func (s *matcherService) SearchDatabase(ctx context.Context, jdText string, minMatchScore float64, topK int) (*models.MatchResponse, error) {
	jd, err := s.prepareJD(ctx, jdText)
	if err != nil {
		metrics.MatchRequests.WithLabelValues("search", "error").Inc()
		return nil, err
	}

	hits, err := s.vectorStore.Query(ctx, jd.vector, topK, s.recallFloor)
	if err != nil {
		metrics.MatchRequests.WithLabelValues("search", "error").Inc()
		return nil, err
	}

	matches := make([]*models.MatchResult, 0, len(hits))
	for _, hit := range hits {
		result := s.evaluator.EvaluateStored(jd.job, hit.Profile, hit.Similarity)
		if result.MatchScore >= minMatchScore {
			matches = append(matches, result)
		}
	}

	s.attachSkillGaps(ctx, jd.job, matches)
	sortMatches(matches)

	response := buildResponse(matches)
	s.persistRun(models.RunModeSearch, jd.job.Title, jdText, response)

	metrics.MatchRequests.WithLabelValues("search", "success").Inc()
	s.logger.Info("database search complete",
		zap.String("job_title", jd.job.Title),
		zap.Int("recalled", len(hits)),
		zap.Int("matched", len(matches)),
		zap.Float64("min_match_score", minMatchScore),
	)

	return response, nil
}

// StoreResumes implements MatcherService.
func (s *matcherService) StoreResumes(ctx context.Context, files []ResumeFile) (*models.StorageResponse, error) {
	candidates := s.processResumes(ctx, files)

	items := make([]ResumeVector, 0, len(candidates))
	for _, c := range candidates {
		items = append(items, ResumeVector{Profile: c.profile, Embedding: c.vector})
	}

	stored := 0
	if len(items) > 0 {
		var failedIDs []string
		var err error
		stored, failedIDs, err = s.vectorStore.StoreBatch(ctx, items)
		if err != nil {
			metrics.MatchRequests.WithLabelValues("store", "error").Inc()
			return nil, err
		}
		if len(failedIDs) > 0 {
			s.logger.Warn("some resumes failed to store", zap.Strings("resume_ids", failedIDs))
		}
	}

	failed := len(files) - stored
	response := &models.StorageResponse{
		Success:     failed == 0,
		TotalFiles:  len(files),
		StoredCount: stored,
		FailedCount: failed,
		Message:     fmt.Sprintf("stored %d of %d resumes", stored, len(files)),
	}

	metrics.MatchRequests.WithLabelValues("store", "success").Inc()
	s.logger.Info("store run complete",
		zap.Int("total", len(files)),
		zap.Int("stored", stored),
		zap.Int("failed", failed),
	)

	return response, nil
}

func (s *matcherService) prepareJD(ctx context.Context, jdText string) (*jdContext, error) {
	job, err := s.jdExtractor.Extract(ctx, jdText)
	if err != nil {
		return nil, err
	}

	vector, err := s.embedder.EmbedJob(ctx, job)
	if err != nil {
		return nil, err
	}

	return &jdContext{job: job, vector: vector}, nil
}

// processResumes runs the per-resume pipeline (PDF text, structured parse,
// embedding) over all files with bounded concurrency. Failed items are logged
// and dropped; order of the survivors follows the input order. Byte-identical
// files share a resume ID, so only the first occurrence is processed and
// every resume_id downstream stays unique.
func (s *matcherService) processResumes(ctx context.Context, files []ResumeFile) []candidateItem {
	seen := make(map[string]struct{}, len(files))
	unique := make([]ResumeFile, 0, len(files))
	for _, file := range files {
		id := ResumeID(file.Data)
		if _, ok := seen[id]; ok {
			s.logger.Info("skipping duplicate resume upload",
				zap.String("filename", file.Filename),
				zap.String("resume_id", id),
			)
			continue
		}
		seen[id] = struct{}{}
		unique = append(unique, file)
	}
	files = unique

	results := make([]*candidateItem, len(files))

	var wg sync.WaitGroup
	sem := make(chan struct{}, s.concurrency)

	for i, file := range files {
		wg.Add(1)
		go func(i int, file ResumeFile) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			item, err := s.processResume(ctx, file)
			if err != nil {
				s.logger.Warn("resume excluded from results",
					zap.String("filename", file.Filename),
					zap.Error(err),
				)
				return
			}
			results[i] = item
		}(i, file)
	}
	wg.Wait()

	out := make([]candidateItem, 0, len(files))
	for _, item := range results {
		if item != nil {
			out = append(out, *item)
		}
	}
	return out
}

func (s *matcherService) processResume(ctx context.Context, file ResumeFile) (*candidateItem, error) {
	text, err := s.pdfParser.ExtractTextFromBytes(file.Data)
	if err != nil {
		return nil, apperrors.NewParsing("failed to extract text from "+file.Filename, err)
	}

	resumeID := ResumeID(file.Data)
	profile, err := s.parser.Parse(ctx, text, resumeID)
	if err != nil {
		return nil, err
	}
	if profile.CandidateName == "" {
		profile.CandidateName = file.Filename
	}

	vector, err := s.embedder.EmbedCandidate(ctx, profile)
	if err != nil {
		return nil, err
	}

	return &candidateItem{profile: profile, vector: vector}, nil
}

// attachSkillGaps enriches potential-band matches concurrently. A failed
// recommendation keeps the match with empty gaps.
func (s *matcherService) attachSkillGaps(ctx context.Context, job *models.JobRequirement, matches []*models.MatchResult) {
	var wg sync.WaitGroup
	sem := make(chan struct{}, s.concurrency)

	for _, match := range matches {
		if match.MatchScore < models.PotentialMatchThreshold || match.MatchScore >= models.HighMatchThreshold {
			continue
		}

		wg.Add(1)
		go func(match *models.MatchResult) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			gaps, err := s.recommender.Recommend(ctx, job, match)
			if err != nil {
				s.logger.Warn("skill gap recommendation failed",
					zap.String("resume_id", match.ResumeID),
					zap.Error(err),
				)
				return
			}
			match.SkillGaps = gaps
		}(match)
	}
	wg.Wait()
}

// persistRun writes run history for later statistics. Persistence failure is
// logged, never surfaced to the caller.
func (s *matcherService) persistRun(mode models.MatchRunMode, jobTitle, jdText string, response *models.MatchResponse) {
	serialized, err := json.Marshal(response.Matches)
	if err != nil {
		s.logger.Error("failed to serialize matches for history", zap.Error(err))
		return
	}

	var avg float64
	for _, m := range response.Matches {
		avg += m.MatchScore
	}
	if len(response.Matches) > 0 {
		avg = avg / float64(len(response.Matches))
	}

	run := &models.MatchRun{
		Mode:             mode,
		JobTitle:         jobTitle,
		JDText:           jdText,
		Matches:          string(serialized),
		TotalResumes:     response.TotalResumes,
		HighMatches:      response.HighMatches,
		PotentialMatches: response.PotentialMatches,
		AvgMatchScore:    avg,
	}

	if err := s.runs.Create(run); err != nil {
		s.logger.Error("failed to persist match run", zap.Error(err))
	}
}

// sortMatches orders by score descending; ties keep input order.
func sortMatches(matches []*models.MatchResult) {
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].MatchScore > matches[j].MatchScore
	})
}

func buildResponse(matches []*models.MatchResult) *models.MatchResponse {
	out := make([]models.MatchResult, 0, len(matches))
	high, potential := 0, 0
	for _, m := range matches {
		switch {
		case m.MatchScore >= models.HighMatchThreshold:
			high++
		case m.MatchScore >= models.PotentialMatchThreshold:
			potential++
		}
		out = append(out, *m)
	}

	return &models.MatchResponse{
		Matches:          out,
		TotalResumes:     len(out),
		HighMatches:      high,
		PotentialMatches: potential,
	}
}

// ResumeID derives a stable identifier from the file content, so the same
// document uploaded twice maps to the same stored vector.
func ResumeID(content []byte) string {
	sum := sha256.Sum256(content)
	return "resume_" + hex.EncodeToString(sum[:6])
}
