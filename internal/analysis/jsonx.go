package analysis

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/takumi-oda/kabusight/pkg/models"
)

// ErrNoJSON is returned when a model completion contains no parseable
// JSON object.
var ErrNoJSON = errors.New("analysis: no JSON object in completion")

// ParseModelJSON extracts the result object from a model completion.
// Providers occasionally wrap the JSON in markdown code fences or
// surround it with prose, so the parser strips fences and cuts the
// text down to the outermost brace pair before unmarshalling.
func ParseModelJSON(message string) (models.AnalysisResult, error) {
	var result models.AnalysisResult

	cleaned := strings.TrimSpace(message)
	if cleaned == "" {
		return result, ErrNoJSON
	}
	if strings.HasPrefix(cleaned, "```") {
		cleaned = strings.TrimPrefix(cleaned, "```json")
		cleaned = strings.TrimPrefix(cleaned, "```JSON")
		cleaned = strings.TrimPrefix(cleaned, "```")
		cleaned = strings.TrimSuffix(strings.TrimSpace(cleaned), "```")
		cleaned = strings.TrimSpace(cleaned)
	}

	start := strings.Index(cleaned, "{")
	end := strings.LastIndex(cleaned, "}")
	if start == -1 || end == -1 || end < start {
		return result, ErrNoJSON
	}
	cleaned = cleaned[start : end+1]

	if err := json.Unmarshal([]byte(cleaned), &result); err != nil {
		return result, fmt.Errorf("analysis: decode completion: %w", err)
	}
	return result, nil
}
