package detect

import (
	"encoding/json"
	"fmt"
	"strings"
)

// brandResponse is the strict intermediate schema expected from the model.
// Only brands_detected is required; page_number is advisory.
type brandResponse struct {
	BrandsDetected json.RawMessage `json:"brands_detected"`
	PageNumber     int             `json:"page_number"`
}

// ParseBrands extracts the brand list from a model reply. The reply is
// expected to contain a single top-level JSON object, possibly embedded in
// extra text: the first balanced {...} span is tried first, then the whole
// reply.
func ParseBrands(reply string) ([]string, error) {
	raw := reply
	if span, ok := firstJSONObject(reply); ok {
		raw = span
	}

	var resp brandResponse
	if err := json.Unmarshal([]byte(raw), &resp); err != nil {
		return nil, fmt.Errorf("response is not a JSON object: %w", err)
	}
	if resp.BrandsDetected == nil {
		return nil, fmt.Errorf("response missing required field brands_detected")
	}

	brands, err := coerceBrandList(resp.BrandsDetected)
	if err != nil {
		return nil, err
	}

	out := make([]string, 0, len(brands))
	for _, b := range brands {
		if b = strings.TrimSpace(b); b != "" {
			out = append(out, b)
		}
	}
	return out, nil
}

// coerceBrandList accepts either a list of strings or a single string,
// which some model replies return for one-brand pages.
func coerceBrandList(raw json.RawMessage) ([]string, error) {
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		return list, nil
	}
	var single string
	if err := json.Unmarshal(raw, &single); err == nil {
		if single == "" {
			return nil, nil
		}
		return []string{single}, nil
	}
	return nil, fmt.Errorf("brands_detected is neither a string list nor a string")
}

// firstJSONObject returns the first balanced top-level {...} span in s,
// skipping braces inside JSON string literals.
func firstJSONObject(s string) (string, bool) {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}
	return "", false
}
