package router

import (
	"regexp"
	"strings"
)

// RuleMatcher is the keyword fallback used when the model cannot be reached.
type RuleMatcher struct {
	weatherKeywords map[string]int
	taskKeywords    map[string]int
	memoryKeywords  map[string]int
	recurPattern    *regexp.Regexp
}

// NewRuleMatcher creates a new rule matcher with predefined keyword weights.
func NewRuleMatcher() *RuleMatcher {
	return &RuleMatcher{
		weatherKeywords: map[string]int{
			// Core keywords (+3)
			"weather": 3, "forecast": 3, "temperature": 3,
			// Supporting keywords (+1/+2)
			"rain": 2, "snow": 2, "sunny": 2, "umbrella": 2, "humid": 2,
			"wind": 1, "cold": 1, "hot outside": 1, "degrees": 1,
		},
		taskKeywords: map[string]int{
			"task": 3, "to-do": 3, "todo": 3, "remind me to": 3, "chore": 3,
			"mark": 1, "done": 1, "completed": 2, "due": 2, "finished": 1,
			"clean": 1, "laundry": 2, "mow": 2, "vacuum": 2, "water the": 1,
		},
		memoryKeywords: map[string]int{
			"remember": 3, "recall": 3, "memory": 3, "do you know": 2,
			"what's my": 2, "what is my": 2, "who is my": 2, "my name": 2,
			"birthday": 2, "favorite": 1, "name": 1, "forget": 2,
		},
		recurPattern: regexp.MustCompile(`\bevery\s+(day|week|month|other|monday|tuesday|wednesday|thursday|friday|saturday|sunday)\b`),
	}
}

// Match attempts to classify text using keyword weights.
// Returns: label, confidence, matched (true if a rule matched)
func (m *RuleMatcher) Match(input string) (Label, float32, bool) {
	lower := strings.ToLower(input)

	weatherScore := m.calculateScore(lower, m.weatherKeywords)
	taskScore := m.calculateScore(lower, m.taskKeywords)
	memoryScore := m.calculateScore(lower, m.memoryKeywords)

	// Recurring phrasing only signals a task when something else does too.
	if taskScore > 0 && m.recurPattern.MatchString(lower) {
		taskScore += 2
	}

	best, bestScore := LabelGeneral, 0
	for _, c := range []struct {
		label Label
		score int
	}{
		{LabelWeather, weatherScore},
		{LabelTask, taskScore},
		{LabelMemory, memoryScore},
	} {
		if c.score > bestScore {
			best, bestScore = c.label, c.score
		}
	}

	if bestScore < 2 {
		return LabelGeneral, 0, false
	}
	return best, m.normalizeConfidence(bestScore, 5), true
}

// Route returns the matched label, or general when no rule fires.
func (m *RuleMatcher) Route(input string) Label {
	label, _, _ := m.Match(input)
	return label
}

// calculateScore calculates the weighted score for a keyword set.
func (m *RuleMatcher) calculateScore(input string, keywords map[string]int) int {
	score := 0
	for keyword, weight := range keywords {
		if strings.Contains(input, keyword) {
			score += weight
		}
	}
	return score
}

// normalizeConfidence normalizes score to 0-1 confidence range.
func (m *RuleMatcher) normalizeConfidence(score, maxScore int) float32 {
	if score >= maxScore {
		return 0.95
	}
	return float32(score) / float32(maxScore)
}
