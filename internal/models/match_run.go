package models

import (
	"time"

	"github.com/google/uuid"
)

type MatchRunMode string

const (
	RunModeUpload MatchRunMode = "upload"
	RunModeSearch MatchRunMode = "search"
)

// MatchRun is one persisted matching run. The full match list is stored as a
// JSON blob; the summary columns are duplicated so statistics can aggregate
// without unmarshalling.
type MatchRun struct {
	ID               uuid.UUID    `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	Mode             MatchRunMode `gorm:"type:text;not null" json:"mode"`
	JobTitle         string       `gorm:"type:text" json:"job_title"`
	JDText           string       `gorm:"type:text" json:"jd_text"`
	Matches          string       `gorm:"type:jsonb" json:"matches"`
	TotalResumes     int          `json:"total_resumes"`
	HighMatches      int          `json:"high_matches"`
	PotentialMatches int          `json:"potential_matches"`
	AvgMatchScore    float64      `json:"avg_match_score"`
	CreatedAt        time.Time    `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
}

func (MatchRun) TableName() string {
	return "match_runs"
}
