// Package routing decides which memory-bank files a piece of free text
// belongs in.
//
// All matching is lowercase substring containment: "deploy" matches
// "redeployed" and "rest" matches "arrest". Callers rely on that breadth,
// so it is kept deliberately loose.
package routing

import (
	"errors"
	"slices"
	"strings"
)

// ErrEmptyContent is returned when the text to route is empty or blank.
var ErrEmptyContent = errors.New("routing: content is required")

// Category is a top-level memory-bank area.
type Category string

const (
	CategoryContext     Category = "context"
	CategoryTechSpecs   Category = "tech_specs"
	CategoryDevOps      Category = "devops"
	CategoryDynamicMeta Category = "dynamic_meta"
	CategoryGeneral     Category = "general"
)

// Title renders a category for humans: "dynamic_meta" -> "Dynamic Meta".
func (c Category) Title() string { return titleize(string(c)) }

// ContentType is the coarse kind of text being routed.
type ContentType string

const (
	ContentCode           ContentType = "code"
	ContentDocumentation  ContentType = "documentation"
	ContentMeetingNotes   ContentType = "meeting_notes"
	ContentDecisionRecord ContentType = "decision_record"
	ContentIssueReport    ContentType = "issue_report"
	ContentGeneral        ContentType = "general_content"
)

// Title renders a content type for humans.
func (t ContentType) Title() string { return titleize(string(t)) }

// Priority orders suggestions; lower values sort first.
type Priority int

const (
	PriorityHigh Priority = iota
	PriorityMedium
	PriorityLow
)

func (p Priority) String() string {
	switch p {
	case PriorityHigh:
		return "high"
	case PriorityMedium:
		return "medium"
	default:
		return "low"
	}
}

// MarshalText encodes the priority as its name.
func (p Priority) MarshalText() ([]byte, error) { return []byte(p.String()), nil }

// Suggestion is a memory-bank file the content should be written to.
type Suggestion struct {
	TargetFile string   `json:"target_file"`
	Reason     string   `json:"reason"`
	Priority   Priority `json:"priority"`
}

// CategoryScore is the number of a category's indicators found in the text.
type CategoryScore struct {
	Category Category `json:"category"`
	Score    int      `json:"score"`
}

// Analysis is the full result of routing a piece of text.
type Analysis struct {
	PrimaryCategory Category        `json:"primary_category"`
	Scores          []CategoryScore `json:"scores"`
	Confidence      float64         `json:"confidence"`
	ContentType     ContentType     `json:"content_type"`
	KeyTopics       []string        `json:"key_topics"`
	WordCount       int             `json:"word_count"`
	Suggestions     []Suggestion    `json:"suggestions"`
}

// Route returns the ordered file suggestions for content.
func Route(content string) ([]Suggestion, error) {
	a, err := Analyze(content)
	if err != nil {
		return nil, err
	}
	return a.Suggestions, nil
}

// Analyze scores content against every category, picks the primary one
// (first in declaration order on ties), and derives file suggestions
// deduplicated by target and sorted high to low priority.
func Analyze(content string) (Analysis, error) {
	if strings.TrimSpace(content) == "" {
		return Analysis{}, ErrEmptyContent
	}

	lower := strings.ToLower(content)
	words := strings.Fields(lower)

	a := Analysis{
		PrimaryCategory: CategoryGeneral,
		Scores:          make([]CategoryScore, 0, len(categoryIndicators)),
		WordCount:       len(words),
	}

	best := 0
	for _, ci := range categoryIndicators {
		score := countContained(lower, ci.keywords)
		a.Scores = append(a.Scores, CategoryScore{Category: ci.category, Score: score})
		if score > best {
			best = score
			a.PrimaryCategory = ci.category
		}
	}
	a.Confidence = confidence(best, len(words))
	a.ContentType = detectContentType(lower)
	a.KeyTopics = keyTopics(words)
	a.Suggestions = suggest(a.PrimaryCategory, a.ContentType, lower)
	return a, nil
}

// confidence is score/words as a percentage clamped to [0,100].
func confidence(score, words int) float64 {
	if words == 0 || score == 0 {
		return 0
	}
	c := float64(score) / float64(words) * 100
	if c > 100 {
		return 100
	}
	return c
}

func detectContentType(lower string) ContentType {
	for _, rule := range contentTypeRules {
		if hasAny(lower, rule.keywords...) {
			return rule.contentType
		}
	}
	return ContentGeneral
}

func suggest(primary Category, ct ContentType, lower string) []Suggestion {
	var out []Suggestion
	for _, r := range fileRules[primary] {
		if r.contentType != "" && r.contentType != ct {
			continue
		}
		if len(r.keywords) > 0 && !hasAny(lower, r.keywords...) {
			continue
		}
		out = append(out, r.suggestion())
	}
	for _, r := range contentTypeFileRules {
		if r.contentType == ct {
			out = append(out, r.suggestion())
		}
	}
	return dedupeAndSort(out)
}

// dedupeAndSort keeps the first suggestion per target file, then stable
// sorts by priority so equal priorities keep their discovery order.
func dedupeAndSort(in []Suggestion) []Suggestion {
	seen := make(map[string]bool, len(in))
	out := make([]Suggestion, 0, len(in))
	for _, s := range in {
		if seen[s.TargetFile] {
			continue
		}
		seen[s.TargetFile] = true
		out = append(out, s)
	}
	slices.SortStableFunc(out, func(a, b Suggestion) int {
		return int(a.Priority) - int(b.Priority)
	})
	return out
}

// keyTopics returns up to five topic keywords that appear as whole words.
func keyTopics(words []string) []string {
	set := make(map[string]bool, len(words))
	for _, w := range words {
		set[w] = true
	}
	var topics []string
	for _, t := range topicKeywords {
		if set[t] {
			topics = append(topics, t)
			if len(topics) == maxKeyTopics {
				break
			}
		}
	}
	return topics
}

func countContained(text string, keywords []string) int {
	n := 0
	for _, k := range keywords {
		if strings.Contains(text, k) {
			n++
		}
	}
	return n
}

func hasAny(text string, words ...string) bool {
	for _, w := range words {
		if strings.Contains(text, w) {
			return true
		}
	}
	return false
}

func titleize(s string) string {
	parts := strings.Fields(strings.ReplaceAll(s, "_", " "))
	for i, p := range parts {
		parts[i] = strings.ToUpper(p[:1]) + p[1:]
	}
	return strings.Join(parts, " ")
}
