package models

import "time"

type AnalysisRequest struct {
	ResumeText string `json:"resumeText"`
	JobTitle   string `json:"jobTitle,omitempty"`
	Company    string `json:"company,omitempty"`
	// UserID, when set, records the result in the caller's feedback history.
	UserID string `json:"userId,omitempty"`
}

type ResumeFeedback struct {
	Strengths   []string `json:"strengths"`
	Weaknesses  []string `json:"weaknesses"`
	Suggestions []string `json:"suggestions"`
}

type ResumeImprovements struct {
	Content  []string `json:"content"`
	Format   []string `json:"format"`
	Keywords []string `json:"keywords"`
}

// AnalysisResult is the normalized critique returned by the model.
// Score and MatchRate are always within [0, 100].
type AnalysisResult struct {
	Score        int                `json:"score"`
	Feedback     ResumeFeedback     `json:"feedback"`
	Improvements ResumeImprovements `json:"improvements"`
	MatchRate    int                `json:"matchRate"`
	Summary      string             `json:"summary"`
}

type AnalyzeResponse struct {
	Success   bool            `json:"success"`
	Analysis  *AnalysisResult `json:"analysis"`
	Timestamp string          `json:"timestamp"`
}

// Timestamp formats t the way responses report it: UTC RFC 3339 with milliseconds.
func Timestamp(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000Z07:00")
}
