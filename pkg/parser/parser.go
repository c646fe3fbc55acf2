package parser

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/helmcode/gamemodel-ai/pkg/model"
)

// ErrNoJSON means the response holds no JSON object at all.
var ErrNoJSON = errors.New("no JSON object in response")

// ScreenResponse is the decoded answer of the screening prompt.
type ScreenResponse struct {
	HasStrategicInterdependence bool   `json:"has_strategic_interdependence"`
	Rationale                   string `json:"rationale"`
}

func ParseScreenResponse(raw string) (*ScreenResponse, error) {
	body, err := extractObject(raw)
	if err != nil {
		return nil, err
	}
	var resp ScreenResponse
	if err := json.Unmarshal([]byte(body), &resp); err != nil {
		return nil, fmt.Errorf("decode screening response: %w", err)
	}
	return &resp, nil
}

// ParseAnalysis decodes a model proposal. Unlike the screening answer there
// is no fallback: anything that does not decode is returned as an error.
func ParseAnalysis(raw string) (*model.GameAnalysis, error) {
	body, err := extractObject(raw)
	if err != nil {
		return nil, err
	}
	var analysis model.GameAnalysis
	if err := json.Unmarshal([]byte(body), &analysis); err != nil {
		return nil, fmt.Errorf("decode game analysis: %w", err)
	}
	return &analysis, nil
}

// DecodeAnalysis reads a stored analysis document. format is "json" or
// "yaml"; an empty format sniffs the first non-space byte.
func DecodeAnalysis(data []byte, format string) (*model.GameAnalysis, error) {
	format = strings.ToLower(strings.TrimPrefix(format, "."))
	if format == "" {
		if t := bytes.TrimSpace(data); len(t) > 0 && t[0] == '{' {
			format = "json"
		} else {
			format = "yaml"
		}
	}

	var analysis model.GameAnalysis
	switch format {
	case "json":
		if err := json.Unmarshal(data, &analysis); err != nil {
			return nil, fmt.Errorf("decode JSON analysis: %w", err)
		}
	case "yaml", "yml":
		if err := yaml.Unmarshal(data, &analysis); err != nil {
			return nil, fmt.Errorf("decode YAML analysis: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported format %q (supported: json, yaml)", format)
	}
	return &analysis, nil
}

// extractObject strips fences and any prose around the outermost JSON object.
func extractObject(raw string) (string, error) {
	cleaned := stripFences(raw)
	start := strings.Index(cleaned, "{")
	end := strings.LastIndex(cleaned, "}")
	if start < 0 || end < start {
		return "", ErrNoJSON
	}
	return cleaned[start : end+1], nil
}

// stripFences removes markdown code fences such as ```json ... ``` so JSON can be parsed
func stripFences(text string) string {
	return strings.TrimSpace(fenceRe.ReplaceAllString(text, ""))
}

var fenceRe = regexp.MustCompile("```[a-zA-Z]*\n|```")
