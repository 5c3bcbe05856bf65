// Package activity observes every tool call the server handles and feeds
// it to the behavior profiler, the activity journal and the metrics.
package activity

import (
	"context"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/HendryAvila/memory-bank/internal/journal"
	"github.com/HendryAvila/memory-bank/internal/logging"
	"github.com/HendryAvila/memory-bank/internal/metrics"
	"github.com/HendryAvila/memory-bank/internal/profiler"
)

// DefaultSession is used when no session can be resolved.
const DefaultSession profiler.SessionID = "default"

// untracked are the session bookkeeping tools. Counting them would skew
// the adherence ratio of every session.
var untracked = map[string]bool{
	"record_tool_call": true,
	"session_start":    true,
	"session_end":      true,
}

// Options carries the optional sinks of a Recorder.
type Options struct {
	Journal *journal.Store   // nil when the journal is disabled
	Metrics *metrics.Metrics // nil disables metrics
	Logger  *logging.Logger
}

// Recorder attributes tool calls to sessions.
type Recorder struct {
	profiler *profiler.Profiler
	journal  *journal.Store
	metrics  *metrics.Metrics
	logger   *logging.Logger
	tracker  Tracker
}

// NewRecorder returns a Recorder feeding p.
func NewRecorder(p *profiler.Profiler, opts Options) *Recorder {
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Recorder{
		profiler: p,
		journal:  opts.Journal,
		metrics:  opts.Metrics,
		logger:   logger.Named("activity"),
	}
}

// Profiler returns the profiler calls are recorded in.
func (r *Recorder) Profiler() *profiler.Profiler { return r.profiler }

// Journal returns the activity journal, or nil when disabled.
func (r *Recorder) Journal() *journal.Store { return r.journal }

// ActiveSession returns the session opened by StartSession, or "".
func (r *Recorder) ActiveSession() string { return r.tracker.Active() }

// ResolveSession picks the session a call belongs to: the session_id
// argument, then the active session, then the MCP client session, then
// DefaultSession.
func (r *Recorder) ResolveSession(ctx context.Context, args map[string]any) profiler.SessionID {
	if id := stringArg(args, "session_id", ""); id != "" {
		return profiler.SessionID(id)
	}
	if id := r.tracker.Active(); id != "" {
		return profiler.SessionID(id)
	}
	if cs := server.ClientSessionFromContext(ctx); cs != nil {
		if id := cs.SessionID(); id != "" {
			return profiler.SessionID(id)
		}
	}
	return DefaultSession
}

// StartSession makes id the active session and journals it.
func (r *Recorder) StartSession(ctx context.Context, id profiler.SessionID, directory string) {
	r.tracker.Start(string(id))
	if r.journal != nil {
		if err := r.journal.StartSession(string(id), directory); err != nil {
			r.logger.Warn(ctx, "journal start session failed", zap.Error(err))
		}
	}
	r.logger.Info(logging.WithSessionID(ctx, string(id)), "session started")
}

// Record counts a call to tool in session id.
func (r *Recorder) Record(ctx context.Context, id profiler.SessionID, tool string, args map[string]any) {
	r.profiler.RecordToolCall(id, tool)
	memory := r.profiler.IsMemoryTool(tool)

	if r.metrics != nil {
		r.metrics.CountTool(tool, memory)
	}

	sanitized := logging.SanitizeArgs(args)
	summary := SemanticSummary(tool, args)
	if r.journal != nil {
		if _, err := r.journal.RecordCall(journal.RecordCallParams{
			SessionID: string(id),
			Tool:      tool,
			Memory:    memory,
			Args:      sanitized,
			Summary:   summary,
		}); err != nil {
			r.logger.Warn(ctx, "journal record failed", zap.String("tool", tool), zap.Error(err))
		}
	}

	ctx = logging.WithSessionID(ctx, string(id))
	fields := []zap.Field{
		zap.String("tool_name", tool),
		zap.Bool("memory_tool", memory),
		zap.Any("args", sanitized),
	}
	if summary != "" {
		fields = append(fields, zap.String("semantic_summary", summary))
	}
	r.logger.Info(ctx, "tool call", fields...)
}

// EndSession finishes session id and returns its report. Non-empty
// reports are saved to the journal.
func (r *Recorder) EndSession(ctx context.Context, id profiler.SessionID) profiler.Report {
	rep := r.profiler.EndSession(id)
	r.tracker.End(string(id))
	if rep.Empty() {
		return rep
	}

	if r.metrics != nil {
		r.metrics.ObserveSessionEnd(string(rep.Classification), rep.AdherenceRatio)
	}
	if r.journal != nil {
		if err := r.journal.EndSession(string(id)); err != nil {
			r.logger.Warn(ctx, "journal end session failed", zap.Error(err))
		}
		if _, err := r.journal.SaveReport(rep); err != nil {
			r.logger.Warn(ctx, "journal save report failed", zap.Error(err))
		}
	}
	ctx = logging.WithSessionID(ctx, string(id))
	r.logger.Info(ctx, "session ended",
		zap.Int("total_calls", rep.TotalCalls),
		zap.Float64("adherence_ratio", rep.AdherenceRatio),
		zap.String("classification", string(rep.Classification)),
	)
	if rep.Completeness.RequiresMemoryUpdate {
		r.logger.Warn(ctx, "session ended without memory-bank updates")
	}
	return rep
}

// Middleware records every tool call before it is handled.
func (r *Recorder) Middleware() server.ToolHandlerMiddleware {
	return func(next server.ToolHandlerFunc) server.ToolHandlerFunc {
		return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			tool := req.Params.Name
			args := req.GetArguments()
			id := r.ResolveSession(ctx, args)
			ctx = logging.WithTool(logging.WithSessionID(ctx, string(id)), tool)

			if !untracked[tool] {
				r.Record(ctx, id, tool, args)
			}

			start := time.Now()
			res, err := next(ctx, req)
			if r.metrics != nil {
				r.metrics.ObserveDuration(tool, time.Since(start))
			}
			switch {
			case err != nil:
				r.logger.Error(ctx, "tool failed", zap.Error(err))
			case res != nil && res.IsError:
				r.logger.Debug(ctx, "tool rejected input")
			}
			return res, err
		}
	}
}
