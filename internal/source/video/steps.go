package video

import "strings"

const (
	minStepLength = 20
	maxSteps      = 20
)

var stepCues = []string{"step", "first", "next", "then", "now", "add", "mix", "cook", "heat"}

// DeriveSteps picks the sentences of a transcript that read like cooking
// instructions: longer than a short fragment and containing a cue word.
func DeriveSteps(transcript string) []string {
	var steps []string
	for _, sentence := range strings.Split(transcript, ".") {
		sentence = strings.TrimSpace(sentence)
		if len(sentence) <= minStepLength || !hasCue(sentence) {
			continue
		}
		steps = append(steps, sentence)
		if len(steps) == maxSteps {
			break
		}
	}
	return steps
}

func hasCue(s string) bool {
	lower := strings.ToLower(s)
	for _, cue := range stepCues {
		if strings.Contains(lower, cue) {
			return true
		}
	}
	return false
}
