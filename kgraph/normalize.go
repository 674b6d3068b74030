package kgraph

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/tidwall/gjson"
)

// wrapperKeys are, in priority order, the top-level keys a local model's
// JSON reply might bury the triple array under instead of returning a bare
// array. Mirrors original_source's lmstudio_client.py recovery loop.
var wrapperKeys = []string{"items", "triples", "data", "results", "extractions"}

var fencePattern = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)\\s*```")

// stripFences returns the trimmed contents of the first Markdown code fence
// in s, dropping any text around it; without a fence it returns s trimmed.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if m := fencePattern.FindStringSubmatch(s); len(m) == 2 {
		return strings.TrimSpace(m[1])
	}
	return s
}

// recoverJSONSubstring returns the span of s from the first '[' to the last
// ']' (or, if there is none, from the first '{' to the last '}'), for
// responses that wrap valid JSON in prose the model refused to omit despite
// instructions. Brackets are not matched for balance.
func recoverJSONSubstring(s string) (string, bool) {
	for _, pair := range []struct{ open, close byte }{{'[', ']'}, {'{', '}'}} {
		start := strings.IndexByte(s, pair.open)
		end := strings.LastIndexByte(s, pair.close)
		if start >= 0 && end > start {
			return s[start : end+1], true
		}
	}
	return "", false
}

// NormalizePayload extracts a JSON array payload from a raw model response,
// tolerating Markdown code fences and a handful of common wrapper-object
// shapes. It returns ErrProviderParse if no JSON array could be recovered.
//
// This is shared by every provider's response path (spec.md §4.3.4):
// hosted responses rarely need it (structured output returns clean JSON),
// but both local-server providers rely on it heavily.
func NormalizePayload(raw string) ([]byte, error) {
	cleaned := stripFences(raw)

	if gjson.Valid(cleaned) {
		result := gjson.Parse(cleaned)
		if result.IsArray() {
			return []byte(result.Raw), nil
		}
		if result.IsObject() {
			for _, key := range wrapperKeys {
				if v := result.Get(key); v.Exists() && v.IsArray() {
					return []byte(v.Raw), nil
				}
			}
			// A single triple-shaped object, not wrapped in an array.
			if result.Get("head").Exists() || result.Get("relation").Exists() {
				return []byte("[" + result.Raw + "]"), nil
			}
		}
	}

	if sub, ok := recoverJSONSubstring(cleaned); ok && gjson.Valid(sub) {
		result := gjson.Parse(sub)
		if result.IsArray() {
			return []byte(result.Raw), nil
		}
		if result.IsObject() {
			for _, key := range wrapperKeys {
				if v := result.Get(key); v.Exists() && v.IsArray() {
					return []byte(v.Raw), nil
				}
			}
		}
	}

	return nil, fmt.Errorf("%w: no JSON array found in response", ErrProviderParse)
}
