package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"rezoomai/resume-api/internal/logger"
	"rezoomai/resume-api/internal/models"
)

const (
	guidanceTimeout = 10 * time.Second
	replyLogLimit   = 500
)

var fencedJSON = regexp.MustCompile("(?s)```(?:json|JSON)?\\s*(.*?)```")

type Analyzer interface {
	Analyze(ctx context.Context, req models.AnalysisRequest) (*models.AnalysisResult, error)
}

type analyzerService struct {
	generator     TextGenerator
	guidance      GuidanceRetriever
	promptBuilder *PromptBuilder
	timeout       time.Duration
	log           *zap.Logger
}

// NewAnalyzer builds the analysis pipeline. guidance may be nil to skip retrieval.
func NewAnalyzer(generator TextGenerator, guidance GuidanceRetriever, timeout time.Duration, log *zap.Logger) Analyzer {
	return &analyzerService{
		generator:     generator,
		guidance:      guidance,
		promptBuilder: NewPromptBuilder(),
		timeout:       timeout,
		log:           logger.With(log),
	}
}

// Analyze makes exactly one model call, bounded by the configured timeout.
func (a *analyzerService) Analyze(ctx context.Context, req models.AnalysisRequest) (*models.AnalysisResult, error) {
	req.ResumeText = strings.TrimSpace(req.ResumeText)
	if req.ResumeText == "" {
		return nil, newError(KindBadRequest, "Resume text is required", nil)
	}

	prompt := a.promptBuilder.BuildAnalysisPrompt(req, a.retrieveGuidance(ctx, req))
	a.log.Debug("analyzing resume", zap.Int("prompt_chars", len(prompt)))

	modelCtx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	start := time.Now()
	reply, err := a.generator.GenerateText(modelCtx, prompt)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(modelCtx.Err(), context.DeadlineExceeded) {
			a.log.Error("model call timed out", zap.Duration("timeout", a.timeout), zap.Error(err))
			return nil, newError(KindTimeout, "The analysis took too long. Please try again.", err)
		}
		a.log.Error("model call failed", zap.Error(err))
		return nil, newError(KindAnalysisFailed, "Failed to analyze resume", err)
	}
	a.log.Debug("model reply received",
		zap.Duration("latency", time.Since(start)),
		zap.String("reply", logger.Truncate(reply, replyLogLimit)),
	)

	result, err := ParseAnalysis(reply)
	if err != nil {
		a.log.Error("model reply rejected",
			zap.Error(err),
			zap.String("reply", logger.Truncate(reply, replyLogLimit)),
		)
		return nil, err
	}

	return result, nil
}

func (a *analyzerService) retrieveGuidance(ctx context.Context, req models.AnalysisRequest) string {
	if a.guidance == nil {
		return ""
	}

	ctx, cancel := context.WithTimeout(ctx, guidanceTimeout)
	defer cancel()

	results, err := a.guidance.Retrieve(ctx, a.promptBuilder.BuildGuidanceQuery(req))
	if err != nil {
		a.log.Warn("guidance retrieval failed, continuing without it", zap.Error(err))
		return ""
	}
	return FormatGuidance(results)
}

// ParseAnalysis extracts the JSON object from a model reply and normalizes it.
// Candidates are tried in order: the whole reply, a fenced code block, then the
// widest span from the first "{" to the last "}".
func ParseAnalysis(reply string) (*models.AnalysisResult, error) {
	for _, candidate := range jsonCandidates(reply) {
		obj, err := decodeObject(candidate)
		if err != nil {
			continue
		}
		return normalizeAnalysis(obj)
	}
	return nil, newError(KindInvalidModelResponse, "Invalid AI response format", errors.New("no JSON object found in model reply"))
}

func jsonCandidates(reply string) []string {
	reply = strings.TrimSpace(reply)
	candidates := []string{reply}

	if m := fencedJSON.FindStringSubmatch(reply); m != nil {
		candidates = append(candidates, strings.TrimSpace(m[1]))
	}

	start := strings.Index(reply, "{")
	end := strings.LastIndex(reply, "}")
	if start != -1 && end > start {
		candidates = append(candidates, reply[start:end+1])
	}

	return candidates
}

func decodeObject(s string) (map[string]any, error) {
	dec := json.NewDecoder(strings.NewReader(s))
	dec.UseNumber()

	var obj map[string]any
	if err := dec.Decode(&obj); err != nil {
		return nil, err
	}
	if obj == nil {
		return nil, errors.New("not a JSON object")
	}
	if dec.More() {
		return nil, errors.New("trailing data after JSON object")
	}
	return obj, nil
}

func normalizeAnalysis(obj map[string]any) (*models.AnalysisResult, error) {
	var (
		result models.AnalysisResult
		err    error
	)

	if result.Score, err = percentField(obj, "score"); err != nil {
		return nil, invalidShape(err)
	}
	if result.MatchRate, err = percentField(obj, "matchRate"); err != nil {
		return nil, invalidShape(err)
	}
	if result.Summary, err = stringField(obj, "summary"); err != nil {
		return nil, invalidShape(err)
	}

	feedback, err := objectField(obj, "feedback")
	if err != nil {
		return nil, invalidShape(err)
	}
	improvements, err := objectField(obj, "improvements")
	if err != nil {
		return nil, invalidShape(err)
	}

	lists := []struct {
		parent map[string]any
		key    string
		dst    *[]string
	}{
		{feedback, "strengths", &result.Feedback.Strengths},
		{feedback, "weaknesses", &result.Feedback.Weaknesses},
		{feedback, "suggestions", &result.Feedback.Suggestions},
		{improvements, "content", &result.Improvements.Content},
		{improvements, "format", &result.Improvements.Format},
		{improvements, "keywords", &result.Improvements.Keywords},
	}
	for _, l := range lists {
		if *l.dst, err = stringListField(l.parent, l.key); err != nil {
			return nil, invalidShape(err)
		}
	}

	return &result, nil
}

func invalidShape(err error) error {
	return newError(KindInvalidModelResponse, "Invalid AI response format", err)
}

// ClampPercent rounds x to the nearest integer and saturates it into [0, 100].
func ClampPercent(x float64) int {
	r := math.Round(x)
	switch {
	case math.IsNaN(r), r < 0:
		return 0
	case r > 100:
		return 100
	default:
		return int(r)
	}
}

// percentField reads a numeric field, also accepting numeric strings.
// A missing or null field is 0. Magnitudes beyond float64 saturate like any
// other out-of-range value; NaN and infinity literals are rejected.
func percentField(obj map[string]any, key string) (int, error) {
	var text string
	switch v := obj[key].(type) {
	case nil:
		return 0, nil
	case json.Number:
		text = v.String()
	case string:
		text = strings.TrimSpace(v)
	default:
		return 0, fmt.Errorf("%s: expected a number, got %T", key, v)
	}

	x, err := strconv.ParseFloat(text, 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return 0, fmt.Errorf("%s: %q is not a number", key, text)
	}
	if err == nil && (math.IsNaN(x) || math.IsInf(x, 0)) {
		return 0, fmt.Errorf("%s: %v is not finite", key, x)
	}
	return ClampPercent(x), nil
}

func stringField(obj map[string]any, key string) (string, error) {
	switch v := obj[key].(type) {
	case nil:
		return "", nil
	case string:
		return v, nil
	default:
		return "", fmt.Errorf("%s: expected a string, got %T", key, v)
	}
}

func objectField(obj map[string]any, key string) (map[string]any, error) {
	switch v := obj[key].(type) {
	case nil:
		return nil, nil
	case map[string]any:
		return v, nil
	default:
		return nil, fmt.Errorf("%s: expected an object, got %T", key, v)
	}
}

// stringListField never returns nil so the field serializes as [].
func stringListField(obj map[string]any, key string) ([]string, error) {
	out := []string{}

	switch v := obj[key].(type) {
	case nil:
		return out, nil
	case []any:
		for i, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("%s[%d]: expected a string, got %T", key, i, item)
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%s: expected a list of strings, got %T", key, v)
	}
}
