// Package profiler tracks which tools an agent calls during a session and
// summarizes how consistently it keeps the memory bank up to date.
package profiler

import (
	"maps"
	"slices"
	"sync"
	"time"
)

// SessionID identifies a profiled session. It is supplied by the caller.
type SessionID string

// DefaultMemoryTools are the tools that count as memory-bank maintenance.
var DefaultMemoryTools = []string{
	"auto_detect_project_changes",
	"suggest_files_to_update",
	"update_memory_bank_file",
	"intelligent_context_executor",
}

// ToolCall is one entry of a session's call sequence.
type ToolCall struct {
	Tool string    `json:"tool"`
	At   time.Time `json:"at"`
}

// SessionStats is the live state of an active session.
type SessionStats struct {
	SessionID       SessionID
	ToolCounts      map[string]int
	MemoryToolCalls int
	CoreToolCalls   int
	SessionStart    time.Time
	LastActivity    time.Time
	ToolSequence    []ToolCall
}

func (s *SessionStats) clone() *SessionStats {
	c := *s
	c.ToolCounts = maps.Clone(s.ToolCounts)
	c.ToolSequence = slices.Clone(s.ToolSequence)
	return &c
}

// Profiler holds the per-session stats. It is safe for concurrent use.
type Profiler struct {
	mu          sync.Mutex
	sessions    map[SessionID]*SessionStats
	memoryTools map[string]bool
	now         func() time.Time
}

// New creates a Profiler. An empty memoryTools uses DefaultMemoryTools.
func New(memoryTools []string) *Profiler {
	if len(memoryTools) == 0 {
		memoryTools = DefaultMemoryTools
	}
	set := make(map[string]bool, len(memoryTools))
	for _, t := range memoryTools {
		set[t] = true
	}
	return &Profiler{
		sessions:    make(map[SessionID]*SessionStats),
		memoryTools: set,
		now:         time.Now,
	}
}

// IsMemoryTool reports whether calls to tool count as memory maintenance.
func (p *Profiler) IsMemoryTool(tool string) bool {
	return p.memoryTools[tool]
}

// MemoryTools lists the memory tool names, sorted.
func (p *Profiler) MemoryTools() []string {
	out := make([]string, 0, len(p.memoryTools))
	for t := range p.memoryTools {
		out = append(out, t)
	}
	slices.Sort(out)
	return out
}

// RecordToolCall counts a call to tool in session id, starting the session
// if this is its first call.
func (p *Profiler) RecordToolCall(id SessionID, tool string) {
	now := p.now()

	p.mu.Lock()
	defer p.mu.Unlock()

	s, ok := p.sessions[id]
	if !ok {
		s = &SessionStats{
			SessionID:    id,
			ToolCounts:   make(map[string]int),
			SessionStart: now,
		}
		p.sessions[id] = s
	}
	s.ToolCounts[tool]++
	if p.memoryTools[tool] {
		s.MemoryToolCalls++
	} else {
		s.CoreToolCalls++
	}
	s.LastActivity = now
	s.ToolSequence = append(s.ToolSequence, ToolCall{Tool: tool, At: now})
}

// EndSession builds the final report for id and discards its state. An
// unknown id yields an empty report.
func (p *Profiler) EndSession(id SessionID) Report {
	p.mu.Lock()
	s, ok := p.sessions[id]
	delete(p.sessions, id)
	p.mu.Unlock()

	if !ok {
		return Report{SessionID: id}
	}
	return p.buildReport(s, p.now())
}

// Snapshot reports on an active session without ending it.
func (p *Profiler) Snapshot(id SessionID) (Report, bool) {
	p.mu.Lock()
	s, ok := p.sessions[id]
	if ok {
		s = s.clone()
	}
	p.mu.Unlock()

	if !ok {
		return Report{SessionID: id}, false
	}
	return p.buildReport(s, p.now()), true
}

// Stats returns a copy of the live stats for id.
func (p *Profiler) Stats(id SessionID) (*SessionStats, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	s, ok := p.sessions[id]
	if !ok {
		return nil, false
	}
	return s.clone(), true
}

// ActiveSessions lists the sessions with recorded calls, sorted.
func (p *Profiler) ActiveSessions() []SessionID {
	p.mu.Lock()
	out := make([]SessionID, 0, len(p.sessions))
	for id := range p.sessions {
		out = append(out, id)
	}
	p.mu.Unlock()

	slices.Sort(out)
	return out
}
