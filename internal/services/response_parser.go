package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"alfredoptarigan/career-coach/internal/apperror"
	"alfredoptarigan/career-coach/internal/models"
)

const defaultImprovementTitle = "Suggestion"

var codeFencePattern = regexp.MustCompile("```[A-Za-z0-9_+-]*")

type rawAnalysis struct {
	Score           json.RawMessage `json:"score"`
	FeedbackSummary string          `json:"feedback_summary"`
	Improvements    json.RawMessage `json:"improvements"`
}

// ParseAnalysisResponse turns raw model output into an AnalysisResult. The
// model may wrap the JSON in code fences or surround it with prose.
func ParseAnalysisResponse(raw string) (*models.AnalysisResult, error) {
	jsonStr, ok := extractJSON(raw)
	if !ok {
		return nil, apperror.MalformedResponse(raw, fmt.Errorf("no JSON object found"))
	}

	var parsed rawAnalysis
	if err := json.Unmarshal([]byte(jsonStr), &parsed); err != nil {
		return nil, apperror.MalformedResponse(raw, fmt.Errorf("failed to unmarshal JSON: %w", err))
	}

	improvements, err := decodeImprovements(parsed.Improvements)
	if err != nil {
		return nil, apperror.MalformedResponse(raw, err)
	}

	result := &models.AnalysisResult{
		FeedbackSummary: strings.TrimSpace(parsed.FeedbackSummary),
		Improvements:    improvements,
	}
	score, warnings := decodeScore(parsed.Score)
	result.Score, result.Warnings = normalizeScore(score)
	result.Warnings = append(warnings, result.Warnings...)

	if result.FeedbackSummary == "" {
		result.Warnings = append(result.Warnings, "model returned no feedback summary")
	}

	if len(result.Improvements) > models.ImprovementCount {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("model returned %d improvements, only the first %d are kept", len(result.Improvements), models.ImprovementCount))
		result.Improvements = result.Improvements[:models.ImprovementCount]
	} else if len(result.Improvements) < models.ImprovementCount {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("model returned %d improvements instead of %d", len(result.Improvements), models.ImprovementCount))
	}

	return result, nil
}

// extractJSON strips code fences and slices from the first '{' to the last '}'.
func extractJSON(text string) (string, bool) {
	text = codeFencePattern.ReplaceAllString(text, "")

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end == -1 || end < start {
		return "", false
	}

	return text[start : end+1], true
}

func decodeImprovements(raw json.RawMessage) ([]models.Improvement, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return []models.Improvement{}, nil
	}

	var structured []models.Improvement
	if err := strictUnmarshal(trimmed, &structured); err == nil {
		return structured, nil
	}

	var plain []string
	if err := json.Unmarshal(trimmed, &plain); err == nil {
		improvements := make([]models.Improvement, 0, len(plain))
		for _, s := range plain {
			improvements = append(improvements, models.Improvement{
				Title:  defaultImprovementTitle,
				Detail: s,
			})
		}
		return improvements, nil
	}

	return nil, fmt.Errorf("improvements must be a list of {title, detail} objects or a list of strings")
}

func strictUnmarshal(data []byte, v any) error {
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.DisallowUnknownFields()
	return decoder.Decode(v)
}

// decodeScore accepts a JSON number or a numeric string. Anything else is
// reported as a warning and treated as a missing score.
func decodeScore(raw json.RawMessage) (*float64, []string) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}

	var number float64
	if err := json.Unmarshal(trimmed, &number); err == nil {
		return &number, nil
	}

	var text string
	if err := json.Unmarshal(trimmed, &text); err == nil {
		if number, err := strconv.ParseFloat(strings.TrimSpace(text), 64); err == nil &&
			!math.IsNaN(number) && !math.IsInf(number, 0) {
			return &number, []string{fmt.Sprintf("score %q was sent as text", text)}
		}
	}

	return nil, []string{fmt.Sprintf("score %s is not a number", trimmed)}
}

func normalizeScore(score *float64) (int, []string) {
	if score == nil {
		return 0, []string{"model returned no score, defaulting to 0"}
	}

	var warnings []string
	value := *score

	if value != math.Trunc(value) {
		warnings = append(warnings, fmt.Sprintf("score %g was rounded", value))
		value = math.Round(value)
	}

	switch {
	case value < 0:
		warnings = append(warnings, fmt.Sprintf("score %g was below 0 and clamped", value))
		value = 0
	case value > 100:
		warnings = append(warnings, fmt.Sprintf("score %g was above 100 and clamped", value))
		value = 100
	}

	return int(value), warnings
}
