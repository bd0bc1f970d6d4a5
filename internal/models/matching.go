package models

// Caps applied to parsed candidate profiles before scoring or storage.
const (
	MaxSkills      = 50
	MaxWorkHistory = 10
	MaxEducation   = 5
)

// Score bands driving recommendation text and skill-gap generation.
const (
	HighMatchThreshold      = 80.0
	PotentialMatchThreshold = 65.0
)

// JobRequirement is the structured form of a free-text job description.
type JobRequirement struct {
	Title              string   `json:"job_title"`
	RequiredSkills     []string `json:"required_skills"`
	MinExperienceYears float64  `json:"experience_years"`
	Qualifications     []string `json:"qualifications"`
	Responsibilities   []string `json:"responsibilities"`
}

// CandidateProfile is the structured form of one resume. In upload mode it
// comes from the resume parser; in search mode it is rebuilt from vector
// store metadata.
type CandidateProfile struct {
	ResumeID        string   `json:"resume_id"`
	CandidateName   string   `json:"candidate_name,omitempty"`
	Email           string   `json:"email,omitempty"`
	Skills          []string `json:"skills"`
	ExperienceYears float64  `json:"experience_years"`
	WorkHistory     []string `json:"work_history"`
	Education       []string `json:"education"`
}

type SkillGapImportance string

const (
	ImportanceHigh   SkillGapImportance = "high"
	ImportanceMedium SkillGapImportance = "medium"
	ImportanceLow    SkillGapImportance = "low"
)

// SkillGap is one missing skill annotated with learning guidance. Only
// produced for candidates in the potential band.
type SkillGap struct {
	MissingSkill  string             `json:"missing_skill"`
	Importance    SkillGapImportance `json:"importance"`
	Reason        string             `json:"reason"`
	LearningPath  string             `json:"learning_path"`
	EstimatedTime string             `json:"estimated_time"`
}

// MatchResult is the scored outcome for one candidate against one job.
type MatchResult struct {
	ResumeID             string     `json:"resume_id"`
	CandidateName        string     `json:"candidate_name,omitempty"`
	MatchScore           float64    `json:"match_score"`
	SkillMatchScore      float64    `json:"skill_match_score"`
	ExperienceMatchScore float64    `json:"experience_match_score"`
	RoleMatchScore       float64    `json:"role_match_score"`
	MatchedSkills        []string   `json:"matched_skills"`
	MissingSkills        []string   `json:"missing_skills"`
	SkillGaps            []SkillGap `json:"skill_gaps"`
	Recommendation       string     `json:"recommendation"`
}

// MatchResponse aggregates one run's results, sorted by score descending.
type MatchResponse struct {
	Matches          []MatchResult `json:"matches"`
	TotalResumes     int           `json:"total_resumes"`
	HighMatches      int           `json:"high_matches"`
	PotentialMatches int           `json:"potential_matches"`
}

// StorageResponse reports the outcome of a bulk store-resumes request.
type StorageResponse struct {
	Success     bool   `json:"success"`
	TotalFiles  int    `json:"total_files"`
	StoredCount int    `json:"stored_count"`
	FailedCount int    `json:"failed_count"`
	Message     string `json:"message"`
}
