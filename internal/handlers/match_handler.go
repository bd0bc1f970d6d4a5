package handlers

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"resume-matcher/internal/config"
	apperrors "resume-matcher/internal/errors"
	"resume-matcher/internal/services"
)

type MatchHandler struct {
	matcher        services.MatcherService
	uploadLimits   config.UploadConfig
	defaults       config.MatchingConfig
	requestTimeout time.Duration
}

func NewMatchHandler(
	matcher services.MatcherService,
	uploadLimits config.UploadConfig,
	defaults config.MatchingConfig,
	requestTimeout time.Duration,
) *MatchHandler {
	return &MatchHandler{
		matcher:        matcher,
		uploadLimits:   uploadLimits,
		defaults:       defaults,
		requestTimeout: requestTimeout,
	}
}

// HandleMatch accepts a job description and a batch of resume PDFs and
// returns scored matches. All file validation happens before any pipeline
// work starts.
func (h *MatchHandler) HandleMatch(c *fiber.Ctx) error {
	form, err := c.MultipartForm()
	if err != nil {
		return errorResponse(c, apperrors.NewValidation("failed to parse multipart form"))
	}

	jdText := formValue(form, "jd_text")
	if strings.TrimSpace(jdText) == "" {
		return errorResponse(c, apperrors.NewValidation("jd_text is required"))
	}

	fileHeaders := form.File["files"]
	if len(fileHeaders) == 0 {
		return errorResponse(c, apperrors.NewValidation("at least one resume file is required"))
	}
	if len(fileHeaders) > h.uploadLimits.MaxMatchFiles {
		return errorResponse(c, apperrors.NewValidation(
			fmt.Sprintf("too many files: %d uploaded, limit is %d", len(fileHeaders), h.uploadLimits.MaxMatchFiles)))
	}

	files, err := readResumeFiles(fileHeaders, h.uploadLimits.MaxFileSize)
	if err != nil {
		return errorResponse(c, err)
	}

	ctx, cancel := context.WithTimeout(c.UserContext(), h.requestTimeout)
	defer cancel()

	response, err := h.matcher.MatchResumes(ctx, jdText, files)
	if err != nil {
		return errorResponse(c, err)
	}

	return c.JSON(response)
}

// searchRequest binds from JSON, urlencoded, and multipart bodies alike.
type searchRequest struct {
	JDText        string   `json:"jd_text" form:"jd_text"`
	MinMatchScore *float64 `json:"min_match_score" form:"min_match_score"`
	TopK          *int     `json:"top_k" form:"top_k"`
}

// HandleSearchDatabase scores previously stored resumes against a job
// description. min_match_score and top_k fall back to configured defaults
// when absent.
func (h *MatchHandler) HandleSearchDatabase(c *fiber.Ctx) error {
	var req searchRequest
	if err := c.BodyParser(&req); err != nil {
		return errorResponse(c, apperrors.NewValidation("invalid request body"))
	}

	if strings.TrimSpace(req.JDText) == "" {
		return errorResponse(c, apperrors.NewValidation("jd_text is required"))
	}

	minScore := h.defaults.MinMatchScore
	if req.MinMatchScore != nil {
		minScore = *req.MinMatchScore
	}
	if minScore < 0 || minScore > 100 {
		return errorResponse(c, apperrors.NewValidation(
			fmt.Sprintf("min_match_score must be within [0,100], got %.2f", minScore)))
	}

	topK := h.defaults.TopK
	if req.TopK != nil {
		topK = *req.TopK
	}
	if topK < 1 || topK > 1000 {
		return errorResponse(c, apperrors.NewValidation(
			fmt.Sprintf("top_k must be within [1,1000], got %d", topK)))
	}

	ctx, cancel := context.WithTimeout(c.UserContext(), h.requestTimeout)
	defer cancel()

	response, err := h.matcher.SearchDatabase(ctx, req.JDText, minScore, topK)
	if err != nil {
		return errorResponse(c, err)
	}

	return c.JSON(response)
}

func formValue(form *multipart.Form, key string) string {
	if values, ok := form.Value[key]; ok && len(values) > 0 {
		return values[0]
	}
	return ""
}

// readResumeFiles validates and buffers every uploaded file. Validation
// failures reject the whole request so a partial batch never enters the
// pipeline by accident.
func readResumeFiles(headers []*multipart.FileHeader, maxFileSize int64) ([]services.ResumeFile, error) {
	files := make([]services.ResumeFile, 0, len(headers))

	for _, header := range headers {
		if !strings.EqualFold(filepath.Ext(header.Filename), ".pdf") {
			return nil, apperrors.NewValidation(
				fmt.Sprintf("unsupported file type for %q: only PDF files are accepted", header.Filename))
		}
		if header.Size > maxFileSize {
			return nil, apperrors.NewValidation(
				fmt.Sprintf("file %q is too large: %d bytes, limit is %d", header.Filename, header.Size, maxFileSize))
		}

		f, err := header.Open()
		if err != nil {
			return nil, apperrors.NewValidation("failed to open uploaded file " + header.Filename)
		}

		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			return nil, apperrors.NewValidation("failed to read uploaded file " + header.Filename)
		}

		files = append(files, services.ResumeFile{
			Filename: header.Filename,
			Data:     data,
		})
	}

	return files, nil
}

// errorResponse maps a pipeline error to a structured HTTP error body.
func errorResponse(c *fiber.Ctx, err error) error {
	status := apperrors.HTTPStatus(err)

	if pe, ok := apperrors.As(err); ok {
		return c.Status(status).JSON(fiber.Map{
			"error": pe.Message,
			"code":  pe.Code,
			"stage": pe.Stage,
		})
	}

	return c.Status(status).JSON(fiber.Map{
		"error": err.Error(),
	})
}
