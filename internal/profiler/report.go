package profiler

import (
	"fmt"
	"slices"
	"time"
)

// Classification buckets a session by its memory adherence ratio.
type Classification string

const (
	MemoryConscious Classification = "Memory-Conscious"
	Balanced        Classification = "Balanced"
	TaskFocused     Classification = "Task-Focused"
	MemoryNegligent Classification = "Memory-Negligent"
)

// Classify maps an adherence ratio to its bucket. Lower bounds are
// inclusive: 0.7 is Memory-Conscious, 0.4 Balanced, 0.2 Task-Focused.
func Classify(ratio float64) Classification {
	switch {
	case ratio >= 0.7:
		return MemoryConscious
	case ratio >= 0.4:
		return Balanced
	case ratio >= 0.2:
		return TaskFocused
	default:
		return MemoryNegligent
	}
}

const (
	topToolsLimit      = 5
	patternExamplesCap = 5
	highUsageCalls     = 50
	lowDiversityTools  = 5
	lowAdherenceRatio  = 0.3
	completenessFloor  = 3
)

// completenessTools are the steps a session should take before it ends
// after changing things.
var completenessTools = []string{
	"auto_detect_project_changes",
	"suggest_files_to_update",
	"update_memory_bank_file",
}

// ToolCount is one row of the most-used tools.
type ToolCount struct {
	Tool  string `json:"tool"`
	Count int    `json:"count"`
}

// Patterns summarizes how often a core tool is immediately followed by a
// memory tool.
type Patterns struct {
	CoreToolUses       int      `json:"core_tool_uses"`
	MemoryFollowUps    int      `json:"memory_follow_ups"`
	MemoryFollowUpRate float64  `json:"memory_follow_up_rate"`
	Examples           []string `json:"examples"`
}

// Completeness records which of the update steps a session performed.
type Completeness struct {
	StepsUsed            []string `json:"steps_used"`
	Score                float64  `json:"score"`
	RequiresMemoryUpdate bool     `json:"requires_memory_update"`
}

// Report is the summary of a session.
type Report struct {
	SessionID       SessionID      `json:"session_id"`
	Start           time.Time      `json:"start"`
	End             time.Time      `json:"end"`
	Duration        time.Duration  `json:"duration"`
	TotalCalls      int            `json:"total_calls"`
	UniqueTools     int            `json:"unique_tools"`
	ToolCounts      map[string]int `json:"tool_counts"`
	MemoryToolCalls int            `json:"memory_tool_calls"`
	CoreToolCalls   int            `json:"core_tool_calls"`
	AdherenceRatio  float64        `json:"memory_adherence_ratio"`
	TopTools        []ToolCount    `json:"top_tools"`
	Classification  Classification `json:"classification,omitempty"`
	Patterns        Patterns       `json:"patterns"`
	Completeness    Completeness   `json:"completeness"`
	Recommendations []string       `json:"recommendations"`
}

// Empty reports whether no calls were recorded.
func (r Report) Empty() bool { return r.TotalCalls == 0 }

// AdherenceRatio is memory / (memory + core), or 0 when both are 0.
func AdherenceRatio(memory, core int) float64 {
	if memory+core == 0 {
		return 0
	}
	return float64(memory) / float64(memory+core)
}

func (p *Profiler) buildReport(s *SessionStats, end time.Time) Report {
	r := Report{
		SessionID:       s.SessionID,
		Start:           s.SessionStart,
		End:             end,
		Duration:        end.Sub(s.SessionStart),
		TotalCalls:      len(s.ToolSequence),
		UniqueTools:     len(s.ToolCounts),
		ToolCounts:      s.ToolCounts,
		MemoryToolCalls: s.MemoryToolCalls,
		CoreToolCalls:   s.CoreToolCalls,
		AdherenceRatio:  AdherenceRatio(s.MemoryToolCalls, s.CoreToolCalls),
		TopTools:        topTools(s),
		Patterns:        p.minePatterns(s.ToolSequence),
		Completeness:    completeness(s),
	}
	r.Classification = Classify(r.AdherenceRatio)
	r.Recommendations = recommendations(r)
	return r
}

// topTools ranks tools by count; ties keep first-use order.
func topTools(s *SessionStats) []ToolCount {
	var out []ToolCount
	seen := make(map[string]bool, len(s.ToolCounts))
	for _, c := range s.ToolSequence {
		if seen[c.Tool] {
			continue
		}
		seen[c.Tool] = true
		out = append(out, ToolCount{Tool: c.Tool, Count: s.ToolCounts[c.Tool]})
	}
	slices.SortStableFunc(out, func(a, b ToolCount) int { return b.Count - a.Count })
	if len(out) > topToolsLimit {
		out = out[:topToolsLimit]
	}
	return out
}

// minePatterns scans adjacent pairs of the call sequence for a core tool
// followed directly by a memory tool.
func (p *Profiler) minePatterns(seq []ToolCall) Patterns {
	var pt Patterns
	for i, c := range seq {
		if p.memoryTools[c.Tool] {
			continue
		}
		pt.CoreToolUses++
		if i+1 < len(seq) && p.memoryTools[seq[i+1].Tool] {
			pt.MemoryFollowUps++
			if len(pt.Examples) < patternExamplesCap {
				pt.Examples = append(pt.Examples, fmt.Sprintf("%s -> %s", c.Tool, seq[i+1].Tool))
			}
		}
	}
	if pt.CoreToolUses > 0 {
		pt.MemoryFollowUpRate = float64(pt.MemoryFollowUps) / float64(pt.CoreToolUses) * 100
	}
	return pt
}

func completeness(s *SessionStats) Completeness {
	var c Completeness
	for _, t := range completenessTools {
		if s.ToolCounts[t] > 0 {
			c.StepsUsed = append(c.StepsUsed, t)
		}
	}
	c.Score = float64(len(c.StepsUsed)) / float64(len(completenessTools))
	c.RequiresMemoryUpdate = len(c.StepsUsed) == 0 && len(s.ToolSequence) > completenessFloor
	return c
}

func recommendations(r Report) []string {
	var recs []string
	if r.AdherenceRatio < lowAdherenceRatio {
		recs = append(recs,
			"Increase usage of memory bank tools for better context retention",
			"Consider calling auto_detect_project_changes more frequently",
		)
	}
	if r.TotalCalls > highUsageCalls {
		recs = append(recs, "High tool usage detected - consider optimizing workflow")
	}
	if r.UniqueTools < lowDiversityTools {
		recs = append(recs, "Limited tool diversity - explore more available tools")
	}
	if len(recs) == 0 {
		recs = append(recs, "Good balance of tool usage and memory adherence")
	}
	return recs
}
