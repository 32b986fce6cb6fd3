package intent

import (
	"regexp"
	"strconv"
	"strings"
)

// intentRules is an ordered rule table; order matters for tie-breaking when
// two patterns produce the same confidence (first encountered wins).
var intentRules = []struct {
	intent   Type
	patterns []*regexp.Regexp
}{
	{TypeCreateTask, []*regexp.Regexp{
		regexp.MustCompile(`(?i)\b(add|create|make|new)\s+(a\s+|an\s+|the\s+)?(task|todo|to-do|item)\b`),
		regexp.MustCompile(`(?i)\b(want\s+to\s+|need\s+to\s+|should\s+|will)\s+(add|create|make)\b`),
		regexp.MustCompile(`(?i)\b(remind\s+me\s+to|don't\s+forget\s+to)\b`),
	}},
	{TypeUpdateTask, []*regexp.Regexp{
		regexp.MustCompile(`(?i)\b(update|change|modify|edit)\s+(a\s+|an\s+|the\s+)?(task|todo|to-do|item)\b`),
		regexp.MustCompile(`(?i)\b(change\s+(title|description|priority)|update\s+(title|description|priority))\b`),
	}},
	{TypeDeleteTask, []*regexp.Regexp{
		regexp.MustCompile(`(?i)\b(delete|remove|kill|trash)\s+(a\s+|an\s+|the\s+)?(task|todo|to-do|item)\b`),
		regexp.MustCompile(`(?i)\b(remove\s+this|delete\s+this)\b`),
	}},
	{TypeCompleteTask, []*regexp.Regexp{
		regexp.MustCompile(`(?i)\b(complete|finish|done|mark.*complete|check|tick)\s+(a\s+|an\s+|the\s+)?(task|todo|to-do|item)\b`),
		regexp.MustCompile(`(?i)\b(mark.*as\s+(done|complete|completed|finished))\b`),
		regexp.MustCompile(`(?i)\b(done\s+with|finished\s+with)\b`),
	}},
	{TypeListTasks, []*regexp.Regexp{
		regexp.MustCompile(`(?i)\b(list|show|display|view|see|get)\s+(my\s+)?(tasks|todos|to-dos|items)\b`),
		regexp.MustCompile(`(?i)\b(what.*have|what.*need|what.*to\s+do)\b`),
		regexp.MustCompile(`(?i)\b(my\s+)?(tasks|todos|to-dos)\b`),
	}},
	{TypeSearchTasks, []*regexp.Regexp{
		regexp.MustCompile(`(?i)\b(find|look\s+for|search|locate)\s+(a\s+|an\s+|the\s+)?(task|todo|to-do|item)\b`),
		regexp.MustCompile(`(?i)\b(where.*is|where.*are)\b`),
	}},
}

var (
	titlePattern       = regexp.MustCompile(`(?:to\s+|for\s+|that\s+|is\s+)"?([^".]+)"?`)
	descriptionPattern = regexp.MustCompile(`(?i)(?:description|desc|note):\s*(.+)`)
	taskIDPattern      = regexp.MustCompile(`(?i)(?:task\s+id|id|number)\s*(\d+)`)
	priorityPattern    = regexp.MustCompile(`(?i)(?:priority|high|medium|low|prio)\s*(\d|[1-5])`)
	searchPattern      = regexp.MustCompile(`(?i)(?:for|about|regarding)\s+(.+)`)

	completedCue    = regexp.MustCompile(`(?i)(complete|done|finish)`)
	notCompletedCue = regexp.MustCompile(`(?i)(incomplete|not done|not finished)`)

	urduPattern = regexp.MustCompile(`[\x{0600}-\x{06FF}\x{0750}-\x{077F}]`)
)

// Parse determines the intent of the input and extracts entities.
// It is pure: no I/O, no shared state.
func Parse(input string) Result {
	normalized := strings.ToLower(strings.TrimSpace(input))

	var best *struct {
		intent     Type
		confidence float64
	}

	for _, rule := range intentRules {
		for _, pattern := range rule.patterns {
			loc := pattern.FindStringIndex(normalized)
			if loc == nil {
				continue
			}
			confidence := calculateConfidence(pattern, loc[1]-loc[0])
			if best == nil || confidence > best.confidence {
				best = &struct {
					intent     Type
					confidence float64
				}{rule.intent, confidence}
			}
		}
	}

	if best == nil {
		// Fully confident there is no recognizable intent.
		return Result{Intent: TypeUnknown, Entities: Entities{}, Confidence: 1.0}
	}

	return Result{
		Intent:     best.intent,
		Entities:   extractEntities(input, best.intent),
		Confidence: best.confidence,
	}
}

// calculateConfidence scores a match: longer matched spans against
// structurally larger patterns score higher. Deliberately crude and
// monotonic, not a calibrated probability.
func calculateConfidence(pattern *regexp.Regexp, matchLength int) float64 {
	confidence := float64(matchLength*len(pattern.String())) / 1000
	if confidence > 1.0 {
		return 1.0
	}
	return confidence
}

// extractEntities runs every extractor against the original (non-normalized)
// input. Extractors are independent of the matched intent except for the
// post-processing below.
func extractEntities(input string, intentType Type) Entities {
	entities := Entities{}

	if m := titlePattern.FindStringSubmatch(input); m != nil && m[1] != "" {
		title := strings.TrimSpace(m[1])
		entities.Title = &title
	}
	if m := descriptionPattern.FindStringSubmatch(input); m != nil && m[1] != "" {
		desc := strings.TrimSpace(m[1])
		entities.Description = &desc
	}
	if m := taskIDPattern.FindStringSubmatch(input); m != nil && m[1] != "" {
		id := strings.TrimSpace(m[1])
		entities.TaskID = &id
	}
	if m := priorityPattern.FindStringSubmatch(input); m != nil && m[1] != "" {
		if n, err := strconv.Atoi(m[1]); err == nil && n >= 1 && n <= 5 {
			entities.Priority = &n
		}
	}
	if m := searchPattern.FindStringSubmatch(input); m != nil && m[1] != "" {
		query := strings.TrimSpace(m[1])
		entities.SearchQuery = &query
	}

	switch intentType {
	case TypeCompleteTask:
		// The positive cue is checked first; a completion intent defaults
		// to completed=true.
		completed := true
		if completedCue.MatchString(input) {
			completed = true
		} else if notCompletedCue.MatchString(input) {
			completed = false
		}
		entities.Completed = &completed

	case TypeCreateTask:
		// With a title but no description, the text following the title is
		// treated as the description unless it opens a quote.
		if entities.Title != nil && entities.Description == nil {
			titleIndex := strings.Index(strings.ToLower(input), strings.ToLower(*entities.Title))
			if titleIndex != -1 {
				afterTitle := strings.TrimSpace(input[titleIndex+len(*entities.Title):])
				if afterTitle != "" && !strings.HasPrefix(afterTitle, `"`) {
					entities.Description = &afterTitle
				}
			}
		}
	}

	return entities
}

// IsUrdu reports whether the input contains Arabic/Urdu script
// (U+0600-06FF or U+0750-077F). Used only for reply-language selection.
func IsUrdu(input string) bool {
	return urduPattern.MatchString(input)
}
