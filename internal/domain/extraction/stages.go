package extraction

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"regexp"
	"strings"
)

// Stage is one attempt at reading the response text as JSON. Parse returns the decoded
// array or object and true, or false when this stage cannot recover anything.
type Stage struct {
	Name  string
	Parse func(text string) (any, bool)
}

// Stage names as reported in Result.Stage.
const (
	StageDirect = "direct"
	StageFenced = "fenced"
	StageBounds = "bounds"
)

// Stages is the recovery chain, tried in order until one succeeds.
var Stages = []Stage{
	{Name: StageDirect, Parse: parseDirect},
	{Name: StageFenced, Parse: parseFenced},
	{Name: StageBounds, Parse: parseBounds},
}

var fencedJSONRe = regexp.MustCompile("(?is)```json\\s*(.*?)```")

// parseDirect reads the whole response as JSON.
func parseDirect(text string) (any, bool) {
	return strictParse(text)
}

// parseFenced reads the interior of the first ```json ... ``` block.
func parseFenced(text string) (any, bool) {
	m := fencedJSONRe.FindStringSubmatch(text)
	if m == nil {
		return nil, false
	}
	return strictParse(m[1])
}

// parseBounds reads the text between the first '[' and the last ']'. Only when the text has
// no such pair does it fall back to the first '{' and the last '}'.
func parseBounds(text string) (any, bool) {
	if s, ok := between(text, '[', ']'); ok {
		return strictParse(s)
	}
	if s, ok := between(text, '{', '}'); ok {
		return strictParse(s)
	}
	return nil, false
}

func between(text string, open, close byte) (string, bool) {
	i := strings.IndexByte(text, open)
	j := strings.LastIndexByte(text, close)
	if i < 0 || j <= i {
		return "", false
	}
	return text[i : j+1], true
}

// strictParse decodes exactly one JSON array or object, keeping numbers as json.Number.
// Trailing non-whitespace content is rejected.
func strictParse(s string) (any, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, false
	}
	dec := json.NewDecoder(bytes.NewReader([]byte(s)))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, false
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, false
	}
	switch v.(type) {
	case []any, map[string]any:
		return v, true
	}
	return nil, false
}
