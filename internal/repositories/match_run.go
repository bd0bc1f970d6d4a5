package repositories

import (
	"fmt"

	"gorm.io/gorm"

	"resume-matcher/internal/models"
)

type MatchRunRepository interface {
	Create(run *models.MatchRun) error
	List(limit, skip int) ([]models.MatchRun, error)
	Statistics() (*MatchStatistics, error)
}

// MatchStatistics aggregates all persisted runs.
type MatchStatistics struct {
	TotalEvaluations      int64   `json:"total_evaluations"`
	TotalResumesProcessed int64   `json:"total_resumes_processed"`
	TotalHighMatches      int64   `json:"total_high_matches"`
	TotalPotentialMatches int64   `json:"total_potential_matches"`
	AvgMatchScore         float64 `json:"avg_match_score"`
}

type matchRunRepository struct {
	db *gorm.DB
}

func NewMatchRunRepository(db *gorm.DB) MatchRunRepository {
	return &matchRunRepository{db: db}
}

// Create implements MatchRunRepository.
func (r *matchRunRepository) Create(run *models.MatchRun) error {
	if err := r.db.Create(run).Error; err != nil {
		return fmt.Errorf("failed to create match run: %w", err)
	}
	return nil
}

// List implements MatchRunRepository. Results are newest-first.
func (r *matchRunRepository) List(limit, skip int) ([]models.MatchRun, error) {
	var runs []models.MatchRun
	err := r.db.
		Order("created_at DESC").
		Offset(skip).
		Limit(limit).
		Find(&runs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list match runs: %w", err)
	}
	return runs, nil
}

// Statistics implements MatchRunRepository.
func (r *matchRunRepository) Statistics() (*MatchStatistics, error) {
	var stats MatchStatistics
	err := r.db.Model(&models.MatchRun{}).
		Select(
			"COUNT(*) AS total_evaluations, " +
				"COALESCE(SUM(total_resumes), 0) AS total_resumes_processed, " +
				"COALESCE(SUM(high_matches), 0) AS total_high_matches, " +
				"COALESCE(SUM(potential_matches), 0) AS total_potential_matches, " +
				"COALESCE(AVG(NULLIF(avg_match_score, 0)), 0) AS avg_match_score",
		).
		Scan(&stats).Error
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate statistics: %w", err)
	}
	return &stats, nil
}
