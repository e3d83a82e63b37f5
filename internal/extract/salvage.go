package extract

import (
	"encoding/json"
	"strings"
)

// salvageJSON attempts best-effort recovery of a JSON object from model
// output that failed a strict parse, by taking the largest {...} substring
// (first '{' through last '}') and validating it.
//
// Limits, by design: it recovers a single top-level object only. Top-level
// arrays, multiple concatenated objects, and braces inside strings that
// unbalance the outer pair are not handled; in those cases ok is false and
// the caller degrades to treating the raw output as plain text.
func salvageJSON(s string) (json.RawMessage, bool) {
	first := strings.IndexByte(s, '{')
	last := strings.LastIndexByte(s, '}')
	if first < 0 || last <= first {
		return nil, false
	}

	candidate := []byte(s[first : last+1])
	if !json.Valid(candidate) {
		return nil, false
	}
	return json.RawMessage(candidate), true
}
