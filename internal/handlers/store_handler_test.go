package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resume-matcher/internal/models"
	"resume-matcher/internal/services"
)

func newStoreTestApp(matcher services.MatcherService) *fiber.App {
	handler := NewStoreHandler(matcher, testUploadLimits(), time.Minute)
	app := fiber.New()
	app.Post("/api/store-resumes", handler.HandleStoreResumes)
	return app
}

func TestHandleStoreResumes_Success(t *testing.T) {
	matcher := &fakeMatcher{storageResponse: &models.StorageResponse{
		Success:     true,
		TotalFiles:  2,
		StoredCount: 2,
	}}
	app := newStoreTestApp(matcher)

	body, contentType := multipartBody(t, "", "a.pdf", "b.pdf")
	req := httptest.NewRequest(http.MethodPost, "/api/store-resumes", body)
	req.Header.Set("Content-Type", contentType)

	resp, decoded := doRequest(t, app, req)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, decoded["success"])
	assert.Equal(t, float64(2), decoded["stored_count"])
	require.Len(t, matcher.gotFiles, 2)
}

func TestHandleStoreResumes_ValidationFailures(t *testing.T) {
	tests := []struct {
		name      string
		filenames []string
		wantError string
	}{
		{"no files", nil, "at least one resume file"},
		{"non-pdf", []string{"resume.txt"}, "only PDF files"},
		{"too many files", []string{"a.pdf", "b.pdf", "c.pdf", "d.pdf", "e.pdf", "f.pdf"}, "too many files"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			matcher := &fakeMatcher{}
			app := newStoreTestApp(matcher)

			body, contentType := multipartBody(t, "", tt.filenames...)
			req := httptest.NewRequest(http.MethodPost, "/api/store-resumes", body)
			req.Header.Set("Content-Type", contentType)

			resp, decoded := doRequest(t, app, req)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			assert.Contains(t, decoded["error"], tt.wantError)
			assert.Empty(t, matcher.gotFiles)
		})
	}
}
