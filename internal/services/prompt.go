package services

import (
	"fmt"
	"strings"

	"resume-matcher/internal/models"
)

type PromptBuilder struct{}

func NewPromptBuilder() *PromptBuilder {
	return &PromptBuilder{}
}

// BuildJDExtractionPrompt creates the prompt for structured JD extraction.
func (pb *PromptBuilder) BuildJDExtractionPrompt(jdText string) string {
	return fmt.Sprintf(`You are an expert job description analyzer. Extract the following information from the job description and return it as a valid JSON object.

Job Description:
%s

Extract:
1. job_title: The job title/position name
2. required_skills: List of technical and soft skills required
3. experience_years: Minimum years of experience required (as a number, e.g., 3.0, 5.0)
4. qualifications: Educational and professional qualifications required
5. responsibilities: Key job responsibilities and duties

Return ONLY a valid JSON object with these exact keys. Do not include any markdown formatting or explanations.

Example format:
{
  "job_title": "Senior Software Engineer",
  "required_skills": ["Python", "FastAPI", "MongoDB", "Docker"],
  "experience_years": 5.0,
  "qualifications": ["Bachelor's degree in Computer Science", "Strong problem-solving skills"],
  "responsibilities": ["Design and develop backend systems", "Collaborate with cross-functional teams"]
}`, jdText)
}

// BuildResumeParsePrompt creates the prompt for structured resume parsing.
func (pb *PromptBuilder) BuildResumeParsePrompt(resumeText string) string {
	return fmt.Sprintf(`You are an expert resume parser. Extract the following information from the resume text and return it as a valid JSON object.

Resume Text:
%s

Extract:
1. candidate_name: Full name of the candidate
2. email: Email address (if present)
3. skills: List of all technical and professional skills mentioned
4. experience_years: Total years of professional experience (as a number, e.g., 3.0, 5.0)
5. work_history: List of work experience entries (company, role, duration)
6. education: List of educational qualifications

Return ONLY a valid JSON object with these exact keys. Do not include any markdown formatting or explanations.

Example format:
{
  "candidate_name": "John Doe",
  "email": "john.doe@example.com",
  "skills": ["Python", "FastAPI", "MongoDB", "Docker"],
  "experience_years": 5.0,
  "work_history": ["Senior Developer at TechCorp (2020-2023)", "Developer at StartupXYZ (2018-2020)"],
  "education": ["B.S. Computer Science - MIT (2018)"]
}`, resumeText)
}

// BuildSkillGapPrompt creates the prompt for skill gap recommendations.
func (pb *PromptBuilder) BuildSkillGapPrompt(job *models.JobRequirement, match *models.MatchResult, maxRecommendations int) string {
	return fmt.Sprintf(`You are an expert career advisor. A candidate is being considered for a position but has some skill gaps.

Job Title: %s
Required Skills: %s
Key Responsibilities: %s
Candidate's Matched Skills: %s
Missing Skills: %s
Current Match Score: %.2f%%

Provide actionable recommendations for the TOP %d most important missing skills that would help the candidate reach an 80%%+ match.

For each skill, provide:
1. missing_skill: The skill name
2. importance: "high", "medium", or "low"
3. reason: Why this skill is important for the role (1-2 sentences)
4. learning_path: Specific resources or approach to learn this skill (courses, certifications, practice projects)
5. estimated_time: Realistic time estimate to acquire the skill (e.g., "2-3 months", "6-8 weeks")

Return ONLY a valid JSON array with these recommendations. Do not include markdown formatting or explanations.

Example format:
[
  {
    "missing_skill": "Docker",
    "importance": "high",
    "reason": "Containerization is essential for modern deployment workflows.",
    "learning_path": "Complete a Docker fundamentals course and practice by containerizing a small service.",
    "estimated_time": "2-3 months"
  }
]`,
		job.Title,
		strings.Join(job.RequiredSkills, ", "),
		strings.Join(job.Responsibilities, "; "),
		strings.Join(match.MatchedSkills, ", "),
		strings.Join(match.MissingSkills, ", "),
		match.MatchScore,
		maxRecommendations,
	)
}
