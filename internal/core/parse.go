package core

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"medilearn/pkg"
)

// parse.go turns raw completions into typed records.  Model output is
// only semi-structured: case studies arrive as one markdown blob with
// numbered headers, and the evaluation JSON is usually wrapped in prose
// or code fences.  The parsers tolerate the wrapping but never attempt
// to repair malformed content.

var (
	caseDelimiter   = regexp.MustCompile(`\*\*Case Study \d+:\*\*`)
	emphasisMarkers = regexp.MustCompile(`\*+`)
)

// SplitCaseStudies splits a generation completion on the
// "**Case Study N:**" headers.  The text before the first header is
// discarded, each retained segment is trimmed, and empty segments are
// dropped.  Returns ErrFormat when nothing survives.
func SplitCaseStudies(raw string) ([]pkg.CaseStudy, error) {
	segments := caseDelimiter.Split(raw, -1)
	// The first element is whatever preceded the first header; with no
	// header at all it is the entire text.  Either way it is not a case.
	segments = segments[1:]

	cases := make([]pkg.CaseStudy, 0, len(segments))
	for _, seg := range segments {
		seg = strings.TrimSpace(seg)
		if seg == "" {
			continue
		}
		cases = append(cases, pkg.CaseStudy{
			RawText:     seg,
			DisplayText: StripEmphasis(seg),
		})
	}
	if len(cases) == 0 {
		return nil, fmt.Errorf("%w: completion contains no case studies", ErrFormat)
	}
	return cases, nil
}

// StripEmphasis removes markdown emphasis runs and trims the result.
// Idempotent: stripping an already-stripped text is a no-op.
func StripEmphasis(s string) string {
	return strings.TrimSpace(emphasisMarkers.ReplaceAllString(s, ""))
}

// ParseEvaluation extracts the evaluation JSON object from a completion
// and decodes it.  The object is located with a balanced-brace scan so
// surrounding prose and markdown fences do not matter.  All six category
// keys and Feedback must be present; any absence or JSON error is a
// single ErrFormat with no partial result.
func ParseEvaluation(raw string) (*pkg.Evaluation, error) {
	span, ok := firstBraceSpan(raw)
	if !ok {
		return nil, fmt.Errorf("%w: no JSON object in evaluation reply", ErrFormat)
	}

	var payload map[string]json.RawMessage
	if err := json.Unmarshal([]byte(span), &payload); err != nil {
		return nil, fmt.Errorf("%w: invalid evaluation JSON: %v", ErrFormat, err)
	}

	ev := &pkg.Evaluation{}
	categories := []struct {
		key string
		dst *pkg.Category
	}{
		{"Diagnostic Accuracy", &ev.DiagnosticAccuracy},
		{"Reasoning and Correctness", &ev.ReasoningAndCorrectness},
		{"Patient Management", &ev.PatientManagement},
		{"Communication Skills", &ev.CommunicationSkills},
		{"Time Management", &ev.TimeManagement},
		{"Overall Impression", &ev.OverallImpression},
	}
	for _, c := range categories {
		body, ok := payload[c.key]
		if !ok {
			return nil, fmt.Errorf("%w: evaluation missing %q", ErrFormat, c.key)
		}
		if err := json.Unmarshal(body, c.dst); err != nil {
			return nil, fmt.Errorf("%w: bad %q entry: %v", ErrFormat, c.key, err)
		}
	}

	feedback, ok := payload["Feedback"]
	if !ok {
		return nil, fmt.Errorf("%w: evaluation missing %q", ErrFormat, "Feedback")
	}
	if err := json.Unmarshal(feedback, &ev.Feedback); err != nil {
		return nil, fmt.Errorf("%w: bad %q entry: %v", ErrFormat, "Feedback", err)
	}
	return ev, nil
}

// firstBraceSpan returns the first balanced {...} region of s.  Braces
// inside JSON strings are ignored so the scan does not end early on
// content like {"Comments": "use {caution}"}.
func firstBraceSpan(s string) (string, bool) {
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
