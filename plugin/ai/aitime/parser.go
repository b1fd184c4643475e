package aitime

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Patterns for time parsing
var (
	// Time of day: "7pm", "at 7:30 pm", "19:00"
	meridiemPattern = regexp.MustCompile(`\b(?:at\s+)?(\d{1,2})(?::(\d{2}))?\s*(am|pm|a\.m\.|p\.m\.)`)
	clockPattern    = regexp.MustCompile(`\b(?:at\s+)?([01]?\d|2[0-3]):([0-5]\d)\b`)

	// Relative offsets: "in 3 days", "2 weeks from now"
	inPattern      = regexp.MustCompile(`^in\s+(\w+)\s+(day|days|week|weeks|month|months)$`)
	fromNowPattern = regexp.MustCompile(`^(\w+)\s+(day|days|week|weeks|month|months)\s+from\s+(now|today)$`)

	// Month name with day: "january 28", "jan 28th, 2027"
	monthDayPattern = regexp.MustCompile(`^([a-z]+)\.?\s+(\d{1,2})(?:st|nd|rd|th)?(?:,?\s+(\d{4}))?$`)

	// Leading words that carry no date information.
	fillerPrefix = regexp.MustCompile(`^(?:on|by|due|starting|from|every|each)\s+`)
)

// relDateOffsets maps relative date keywords to day offsets.
var relDateOffsets = map[string]int{
	"today":                  0,
	"tonight":                0,
	"now":                    0,
	"tomorrow":               1,
	"tmrw":                   1,
	"day after tomorrow":     2,
	"the day after tomorrow": 2,
	"yesterday":              -1,
}

// periodHours maps time period keywords to typical hours.
var periodHours = map[string]int{
	"morning":   9,
	"noon":      12,
	"midday":    12,
	"afternoon": 14,
	"evening":   19,
	"tonight":   20,
	"night":     21,
	"midnight":  0,
}

// numberWords maps spelled-out numbers.
var numberWords = map[string]int{
	"a": 1, "an": 1, "one": 1, "two": 2, "three": 3, "four": 4, "five": 5,
	"six": 6, "seven": 7, "eight": 8, "nine": 9, "ten": 10, "couple": 2,
}

var weekdays = map[string]time.Weekday{
	"sunday": time.Sunday, "sun": time.Sunday,
	"monday": time.Monday, "mon": time.Monday,
	"tuesday": time.Tuesday, "tue": time.Tuesday, "tues": time.Tuesday,
	"wednesday": time.Wednesday, "wed": time.Wednesday,
	"thursday": time.Thursday, "thu": time.Thursday, "thur": time.Thursday,
	"friday": time.Friday, "fri": time.Friday,
	"saturday": time.Saturday, "sat": time.Saturday,
}

var months = map[string]time.Month{
	"january": time.January, "jan": time.January,
	"february": time.February, "feb": time.February,
	"march": time.March, "mar": time.March,
	"april": time.April, "apr": time.April,
	"may": time.May,
	"june": time.June, "jun": time.June,
	"july": time.July, "jul": time.July,
	"august": time.August, "aug": time.August,
	"september": time.September, "sep": time.September, "sept": time.September,
	"october": time.October, "oct": time.October,
	"november": time.November, "nov": time.November,
	"december": time.December, "dec": time.December,
}

// standardFormats are tried before any natural-language handling.
var standardFormats = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"2006/01/02",
	"01/02/2006",
	"1/2/2006",
	"January 2, 2006",
	"Jan 2, 2006",
}

// Parser parses natural language time expressions.
type Parser struct {
	timezone *time.Location
	now      func() time.Time
}

// NewParser creates a new time parser with the given timezone.
func NewParser(timezone *time.Location) *Parser {
	if timezone == nil {
		timezone = time.Local
	}
	return &Parser{
		timezone: timezone,
		now:      time.Now,
	}
}

// WithClock returns a parser that resolves relative expressions against now.
func (p *Parser) WithClock(now func() time.Time) *Parser {
	return &Parser{
		timezone: p.timezone,
		now:      now,
	}
}

// Parse parses a time expression and returns the parsed time.
// Date-only expressions resolve to midnight in the parser timezone.
func (p *Parser) Parse(input string) (time.Time, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return time.Time{}, fmt.Errorf("empty input")
	}

	now := p.now().In(p.timezone)

	// Try standard formats first
	if t, ok := p.tryStandardFormats(input); ok {
		return t, nil
	}

	text := normalize(input)
	text, hour, minute, hasTime := extractTimeOfDay(text)

	day, ok := p.parseDate(text, now, hasTime)
	if !ok {
		return time.Time{}, fmt.Errorf("unable to parse date: %q", input)
	}
	if hasTime {
		return time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, p.timezone), nil
	}
	return day, nil
}

func (p *Parser) tryStandardFormats(input string) (time.Time, bool) {
	for _, layout := range standardFormats {
		if t, err := time.ParseInLocation(layout, input, p.timezone); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// parseDate resolves the date part of text to midnight of that day.
func (p *Parser) parseDate(text string, now time.Time, hasTime bool) (time.Time, bool) {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, p.timezone)

	// A bare time of day means today.
	if text == "" {
		return today, hasTime
	}

	if offset, ok := relDateOffsets[text]; ok {
		return today.AddDate(0, 0, offset), true
	}

	if m := inPattern.FindStringSubmatch(text); m != nil {
		return addUnits(today, m[1], m[2])
	}
	if m := fromNowPattern.FindStringSubmatch(text); m != nil {
		return addUnits(today, m[1], m[2])
	}

	switch text {
	case "next week":
		return today.AddDate(0, 0, 7), true
	case "next month":
		return today.AddDate(0, 1, 0), true
	case "next year":
		return today.AddDate(1, 0, 0), true
	case "day", "week", "month", "year", "other week":
		// Recurring phrases without an anchor start today.
		return today, true
	}

	if t, ok := p.parseWeekday(text, today); ok {
		return t, true
	}

	if m := monthDayPattern.FindStringSubmatch(text); m != nil {
		return p.parseMonthDay(m, today)
	}

	return time.Time{}, false
}

// parseWeekday handles "monday", "next monday", "this friday" and "mondays".
// A bare weekday is the next occurrence strictly after today; "this" allows today.
func (p *Parser) parseWeekday(text string, today time.Time) (time.Time, bool) {
	allowToday := false
	switch {
	case strings.HasPrefix(text, "this "):
		text = strings.TrimPrefix(text, "this ")
		allowToday = true
	case strings.HasPrefix(text, "next "):
		text = strings.TrimPrefix(text, "next ")
	case strings.HasPrefix(text, "other "):
		text = strings.TrimPrefix(text, "other ")
	}
	text = strings.TrimSuffix(text, "s")

	wd, ok := weekdays[text]
	if !ok {
		return time.Time{}, false
	}

	days := (int(wd) - int(today.Weekday()) + 7) % 7
	if days == 0 && !allowToday {
		days = 7
	}
	return today.AddDate(0, 0, days), true
}

// parseMonthDay resolves "march 3" to the next such date on or after today
// unless a year is given.
func (p *Parser) parseMonthDay(m []string, today time.Time) (time.Time, bool) {
	month, ok := months[m[1]]
	if !ok {
		return time.Time{}, false
	}
	day, err := strconv.Atoi(m[2])
	if err != nil || day < 1 || day > 31 {
		return time.Time{}, false
	}
	year := today.Year()
	if m[3] != "" {
		year, _ = strconv.Atoi(m[3])
	}
	t := time.Date(year, month, day, 0, 0, 0, 0, p.timezone)
	if t.Month() != month {
		return time.Time{}, false
	}
	if m[3] == "" && t.Before(today) {
		t = t.AddDate(1, 0, 0)
	}
	return t, true
}

func addUnits(today time.Time, amount, unit string) (time.Time, bool) {
	n, ok := numberWords[amount]
	if !ok {
		v, err := strconv.Atoi(amount)
		if err != nil {
			return time.Time{}, false
		}
		n = v
	}
	switch strings.TrimSuffix(unit, "s") {
	case "day":
		return today.AddDate(0, 0, n), true
	case "week":
		return today.AddDate(0, 0, 7*n), true
	case "month":
		return today.AddDate(0, n, 0), true
	}
	return time.Time{}, false
}

// extractTimeOfDay removes a time-of-day phrase from text and returns it.
func extractTimeOfDay(text string) (string, int, int, bool) {
	if m := meridiemPattern.FindStringSubmatchIndex(text); m != nil {
		hour, _ := strconv.Atoi(text[m[2]:m[3]])
		minute := 0
		if m[4] >= 0 {
			minute, _ = strconv.Atoi(text[m[4]:m[5]])
		}
		if hour >= 1 && hour <= 12 && minute < 60 {
			pm := strings.HasPrefix(text[m[6]:m[7]], "p")
			if pm && hour != 12 {
				hour += 12
			}
			if !pm && hour == 12 {
				hour = 0
			}
			return cleanup(text[:m[0]] + text[m[1]:]), hour, minute, true
		}
	}

	if m := clockPattern.FindStringSubmatchIndex(text); m != nil {
		hour, _ := strconv.Atoi(text[m[2]:m[3]])
		minute, _ := strconv.Atoi(text[m[4]:m[5]])
		return cleanup(text[:m[0]] + text[m[1]:]), hour, minute, true
	}

	words := strings.Fields(text)
	for i, w := range words {
		if w == "tonight" {
			// "tonight" keeps its date meaning as well.
			return text, periodHours[w], 0, true
		}
		hour, ok := periodHours[w]
		if !ok {
			continue
		}
		rest := " " + strings.Join(append(append([]string{}, words[:i]...), words[i+1:]...), " ")
		for _, suffix := range []string{" in the", " in", " at", " the"} {
			rest = strings.TrimSuffix(rest, suffix)
		}
		return cleanup(rest), hour, 0, true
	}
	return text, 0, 0, false
}

// normalize lower-cases and strips filler so the date grammar stays small.
func normalize(s string) string {
	s = strings.ToLower(s)
	s = strings.NewReplacer(",", " ", "!", " ", "?", " ").Replace(s)
	s = strings.Join(strings.Fields(s), " ")
	for {
		stripped := fillerPrefix.ReplaceAllString(s, "")
		if stripped == s {
			break
		}
		s = stripped
	}
	return s
}

func cleanup(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	return strings.TrimSpace(fillerPrefix.ReplaceAllString(s, ""))
}

// recurrencePatterns are checked in order; bi-weekly must win over weekly.
var recurrencePatterns = []struct {
	pattern *regexp.Regexp
	value   string
}{
	{regexp.MustCompile(`\b(bi-?weekly|fortnight(ly)?|every\s+(other|second)\s+(week|mon|tue|wed|thu|fri|sat|sun)|every\s+(two|2)\s+weeks)`), "bi-weekly"},
	{regexp.MustCompile(`\b(daily|every\s*day|each\s+day|every\s+(morning|evening|night))\b`), "daily"},
	{regexp.MustCompile(`\b(weekly|every\s+week|each\s+week|(every|each)\s+(monday|tuesday|wednesday|thursday|friday|saturday|sunday)|on\s+(mondays|tuesdays|wednesdays|thursdays|fridays|saturdays|sundays))\b`), "weekly"},
	{regexp.MustCompile(`\b(monthly|every\s+month|each\s+month)\b`), "monthly"},
}

// RecurrenceHint detects recurring phrasing: "daily", "weekly", "monthly",
// "bi-weekly", or "" when none is present.
func RecurrenceHint(input string) string {
	text := strings.ToLower(input)
	for _, rp := range recurrencePatterns {
		if rp.pattern.MatchString(text) {
			return rp.value
		}
	}
	return ""
}
