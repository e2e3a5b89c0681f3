package services

import (
	"fmt"
	"strings"

	"rezoomai/resume-api/internal/models"
)

const analysisTemplate = `{
  "score": 85,
  "feedback": {
    "strengths": ["List 3-5 key strengths"],
    "weaknesses": ["List 3-5 areas for improvement"],
    "suggestions": ["List 3-5 actionable suggestions"]
  },
  "improvements": {
    "content": ["Specific content improvements"],
    "format": ["Formatting suggestions"],
    "keywords": ["Missing keywords to add"]
  },
  "matchRate": 78,
  "summary": "Brief 2-3 sentence summary of overall assessment"
}`

type PromptBuilder struct{}

func NewPromptBuilder() *PromptBuilder {
	return &PromptBuilder{}
}

// BuildAnalysisPrompt asks for a critique of the resume in the fixed JSON shape.
// guidance is optional reference material appended after the instructions.
func (pb *PromptBuilder) BuildAnalysisPrompt(req models.AnalysisRequest, guidance string) string {
	var target strings.Builder
	if title := strings.TrimSpace(req.JobTitle); title != "" {
		fmt.Fprintf(&target, "Target Job Title: %s\n", title)
	}
	if company := strings.TrimSpace(req.Company); company != "" {
		fmt.Fprintf(&target, "Target Company: %s\n", company)
	}

	prompt := fmt.Sprintf(`You are an expert resume reviewer and career coach. Analyze the following resume and provide detailed feedback.

Resume Content:
%s

%s
Please provide a comprehensive analysis in the following JSON format:

%s

Focus on:
- Relevance to target role
- Quantifiable achievements
- Action verbs and impact
- Skills alignment
- Professional presentation
- ATS optimization

Score should be 0-100 based on overall quality and relevance.
Match rate should be 0-100 based on alignment with target role.
Respond with the JSON object only.`,
		strings.TrimSpace(req.ResumeText), target.String(), analysisTemplate)

	if guidance = strings.TrimSpace(guidance); guidance != "" {
		prompt += "\n\nReference guidance (use it to inform the critique, do not quote it):\n" + guidance
	}

	return prompt
}

// BuildGuidanceQuery is the text embedded to look up reference guidance.
func (pb *PromptBuilder) BuildGuidanceQuery(req models.AnalysisRequest) string {
	query := "Resume writing guidance"
	if title := strings.TrimSpace(req.JobTitle); title != "" {
		query += " for a " + title + " role"
	}

	text := []rune(strings.TrimSpace(req.ResumeText))
	if len(text) > 2000 {
		text = text[:2000]
	}
	return query + "\n\n" + string(text)
}

// FormatGuidance renders search hits for the prompt. No hits yields "".
func FormatGuidance(results []SearchResult) string {
	var parts []string
	for i, result := range results {
		text := strings.TrimSpace(result.Text)
		if text == "" {
			continue
		}
		parts = append(parts, fmt.Sprintf("--- Guidance %d (score %.2f) ---\n%s", i+1, result.Score, text))
	}
	return strings.Join(parts, "\n\n")
}
