package main

import (
	"context"
	"flag"
	"log"
	"os"
	"path/filepath"
	"strings"

	"resume-matcher/internal/config"
	applogger "resume-matcher/internal/logger"
	"resume-matcher/internal/services"
)

// Bulk-ingests a directory of resume PDFs into the vector store so the
// search-database endpoint has something to query.
func main() {
	dir := flag.String("dir", "./resumes", "directory containing resume PDF files")
	flag.Parse()

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	logger := applogger.New(cfg.Log.Level, cfg.Log.Format)
	defer logger.Sync()

	geminiService, err := services.NewGeminiService(
		cfg.Gemini.APIKey,
		cfg.Gemini.Model,
		cfg.Gemini.EmbedModel,
		logger,
	)
	if err != nil {
		log.Fatalf("failed to initialize Gemini client: %v", err)
	}

	vectorStore, err := services.NewQdrantService(
		cfg.Qdrant.URL,
		cfg.Qdrant.APIKey,
		cfg.Qdrant.Collection,
		cfg.Matching.EmbeddingDimension,
		logger,
	)
	if err != nil {
		log.Fatalf("failed to initialize Qdrant client: %v", err)
	}

	ctx := context.Background()
	if err := vectorStore.InitCollection(ctx); err != nil {
		log.Fatalf("failed to initialize collection: %v", err)
	}

	retries := cfg.Worker.RetryMaxAttempts
	retryDelay := cfg.Worker.RetryInitialDelay

	pdfParser := services.NewPDFParserService()
	resumeParser := services.NewResumeParserService(geminiService, retries, retryDelay, logger)
	embedder := services.NewEmbeddingService(geminiService, cfg.Matching.EmbeddingDimension, retries, retryDelay, logger)

	entries, err := os.ReadDir(*dir)
	if err != nil {
		log.Fatalf("failed to read directory %s: %v", *dir, err)
	}

	var items []services.ResumeVector
	failed := 0

	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ".pdf") {
			continue
		}
		path := filepath.Join(*dir, entry.Name())
		log.Printf("processing %s", path)

		data, err := os.ReadFile(path)
		if err != nil {
			log.Printf("  failed to read file: %v", err)
			failed++
			continue
		}

		text, err := pdfParser.ExtractTextFromBytes(data)
		if err != nil {
			log.Printf("  failed to extract text: %v", err)
			failed++
			continue
		}

		profile, err := resumeParser.Parse(ctx, text, services.ResumeID(data))
		if err != nil {
			log.Printf("  failed to parse resume: %v", err)
			failed++
			continue
		}
		if profile.CandidateName == "" {
			profile.CandidateName = entry.Name()
		}

		embedding, err := embedder.EmbedCandidate(ctx, profile)
		if err != nil {
			log.Printf("  failed to embed resume: %v", err)
			failed++
			continue
		}

		items = append(items, services.ResumeVector{Profile: profile, Embedding: embedding})
		log.Printf("  parsed %s (%s)", profile.CandidateName, profile.ResumeID)
	}

	if len(items) == 0 {
		log.Fatalf("no resumes to store (failed: %d)", failed)
	}

	stored, failedIDs, err := vectorStore.StoreBatch(ctx, items)
	if err != nil {
		log.Fatalf("failed to store resumes: %v", err)
	}

	log.Printf("done: stored %d, parse failures %d, store failures %d", stored, failed, len(failedIDs))
	if failed > 0 || len(failedIDs) > 0 {
		os.Exit(1)
	}
}
