package classifier

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
)

var jsonObjectRe = regexp.MustCompile(`\{[\s\S]*\}`)

// ExtractFirstJSONObject pulls the first JSON object out of model output,
// tolerating code fences and surrounding prose. Returns nil when no object
// can be decoded; malformed output is "no suggestion", never a crash.
func ExtractFirstJSONObject(text string) map[string]any {
	if text == "" {
		return nil
	}
	t := strings.TrimSpace(text)
	t = strings.ReplaceAll(t, "```json", "")
	t = strings.ReplaceAll(t, "```", "")
	t = strings.TrimSpace(t)

	var obj map[string]any
	if err := json.Unmarshal([]byte(t), &obj); err == nil {
		return obj
	}
	match := jsonObjectRe.FindString(t)
	if match == "" {
		return nil
	}
	if err := json.Unmarshal([]byte(match), &obj); err != nil {
		return nil
	}
	return obj
}

func safeString(v any) string {
	s, _ := v.(string)
	return strings.TrimSpace(s)
}

func safeInt(v any) int {
	switch val := v.(type) {
	case float64:
		return int(val)
	case string:
		if n, err := strconv.Atoi(strings.TrimSpace(val)); err == nil {
			return n
		}
		if f, err := strconv.ParseFloat(strings.TrimSpace(val), 64); err == nil {
			return int(f)
		}
	case json.Number:
		if n, err := val.Int64(); err == nil {
			return int(n)
		}
	}
	return 0
}

func safeBool(v any) bool {
	b, _ := v.(bool)
	return b
}
