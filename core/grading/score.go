package grading

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/pkg/errors"
)

// Score is the evaluation returned by the generation service for a descriptive answer.
type Score struct {
	Score    int    `json:"score"`
	Feedback string `json:"feedback"`
}

// ParseScore strictly parses text as {"score": <integer>, "feedback": <string>}.
// A surrounding markdown code fence is tolerated; anything else around the object is not.
func ParseScore(text string) (Score, error) {
	body := stripCodeFence(strings.TrimSpace(text))
	if body == "" {
		return Score{}, errors.New("empty evaluation")
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(body), &fields); err != nil {
		return Score{}, errors.Wrap(err, "decoding evaluation")
	}

	var score Score
	rawScore, ok := fields["score"]
	if !ok || isNull(rawScore) {
		return Score{}, errors.New(`missing "score"`)
	}
	if err := json.Unmarshal(rawScore, &score.Score); err != nil {
		return Score{}, errors.Wrap(err, `"score" is not an integer`)
	}

	rawFeedback, ok := fields["feedback"]
	if !ok || isNull(rawFeedback) {
		return Score{}, errors.New(`missing "feedback"`)
	}
	if err := json.Unmarshal(rawFeedback, &score.Feedback); err != nil {
		return Score{}, errors.Wrap(err, `"feedback" is not a string`)
	}
	return score, nil
}

// stripCodeFence removes a ``` or ```json fence wrapping s.
func stripCodeFence(s string) string {
	if !strings.HasPrefix(s, "```") || !strings.HasSuffix(s, "```") || len(s) < 6 {
		return s
	}
	s = strings.TrimSuffix(s, "```")
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	} else {
		s = strings.TrimPrefix(s, "```")
	}
	return strings.TrimSpace(s)
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}
