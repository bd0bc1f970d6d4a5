package handlers

import (
	"context"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"

	"resume-matcher/internal/config"
	apperrors "resume-matcher/internal/errors"
	"resume-matcher/internal/services"
)

type StoreHandler struct {
	matcher        services.MatcherService
	uploadLimits   config.UploadConfig
	requestTimeout time.Duration
}

func NewStoreHandler(
	matcher services.MatcherService,
	uploadLimits config.UploadConfig,
	requestTimeout time.Duration,
) *StoreHandler {
	return &StoreHandler{
		matcher:        matcher,
		uploadLimits:   uploadLimits,
		requestTimeout: requestTimeout,
	}
}

// HandleStoreResumes parses and embeds the uploaded resumes and upserts them
// into the vector store for later search-database requests.
func (h *StoreHandler) HandleStoreResumes(c *fiber.Ctx) error {
	form, err := c.MultipartForm()
	if err != nil {
		return errorResponse(c, apperrors.NewValidation("failed to parse multipart form"))
	}

	fileHeaders := form.File["files"]
	if len(fileHeaders) == 0 {
		return errorResponse(c, apperrors.NewValidation("at least one resume file is required"))
	}
	if len(fileHeaders) > h.uploadLimits.MaxStoreFiles {
		return errorResponse(c, apperrors.NewValidation(
			fmt.Sprintf("too many files: %d uploaded, limit is %d", len(fileHeaders), h.uploadLimits.MaxStoreFiles)))
	}

	files, err := readResumeFiles(fileHeaders, h.uploadLimits.MaxFileSize)
	if err != nil {
		return errorResponse(c, err)
	}

	ctx, cancel := context.WithTimeout(c.UserContext(), h.requestTimeout)
	defer cancel()

	response, err := h.matcher.StoreResumes(ctx, files)
	if err != nil {
		return errorResponse(c, err)
	}

	return c.JSON(response)
}
