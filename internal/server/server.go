// Package server wires all MCP components and creates the server instance.
//
// This is the composition root: it creates concrete implementations and
// injects them into the tools, prompts and resources that depend on them.
// No business logic lives here, only wiring.
package server

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/HendryAvila/memory-bank/internal/activity"
	"github.com/HendryAvila/memory-bank/internal/bank"
	"github.com/HendryAvila/memory-bank/internal/changes"
	"github.com/HendryAvila/memory-bank/internal/config"
	"github.com/HendryAvila/memory-bank/internal/journal"
	"github.com/HendryAvila/memory-bank/internal/logging"
	"github.com/HendryAvila/memory-bank/internal/metrics"
	"github.com/HendryAvila/memory-bank/internal/profiler"
	"github.com/HendryAvila/memory-bank/internal/prompts"
	"github.com/HendryAvila/memory-bank/internal/redundancy"
	"github.com/HendryAvila/memory-bank/internal/resources"
	"github.com/HendryAvila/memory-bank/internal/templates"
	"github.com/HendryAvila/memory-bank/internal/tools"
	"github.com/HendryAvila/memory-bank/internal/watcher"
)

// Version is set at build time via ldflags.
var Version = "dev"

// New creates and configures the MCP server with all tools, prompts,
// and resources registered. This is the single place where all
// dependencies are resolved.
//
// The returned cleanup function stops the watcher and the metrics
// endpoint and closes the journal. It is always non-nil and safe to call
// even if New failed.
func New(cfg *config.Config, logger *logging.Logger) (*server.MCPServer, func(), error) {
	if err := cfg.Validate(); err != nil {
		return nil, noop, fmt.Errorf("invalid config: %w", err)
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	closers := []func(){cancel}
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	// --- Create shared dependencies ---

	renderer, err := templates.NewRenderer()
	if err != nil {
		cleanup()
		return nil, noop, fmt.Errorf("creating template renderer: %w", err)
	}
	b := bank.New(cfg.Bank.Root, renderer, cfg.Bank.Contributor)
	m := metrics.NewMetrics()

	index := redundancy.New(b.Root(), redundancy.Options{
		Threshold: cfg.Redundancy.Threshold,
		MinTokens: cfg.Redundancy.MinTokens,
		TTL:       cfg.Redundancy.IndexTTL,
		Logger:    logger,
		OnChange:  m.SetIndexed,
	})
	if err := index.IndexAll(ctx, b.Root()); err != nil {
		logger.Warn(ctx, "initial index build failed", zap.Error(err))
	}

	// --- Optional subsystems ---
	//
	// The watcher, the journal and the metrics endpoint are independent:
	// if one fails to start we log a warning and keep serving without it.

	if cfg.Redundancy.Watch {
		closers = append(closers, startWatcher(ctx, b, index, logger))
	}

	var j *journal.Store
	if cfg.Journal.Enabled {
		j, err = journal.New(journal.DefaultConfig(cfg.Journal.DataDir))
		if err != nil {
			logger.Warn(ctx, "activity journal disabled", zap.Error(err))
			j = nil
		} else {
			closers = append(closers, func() {
				if err := j.Close(); err != nil {
					logger.Warn(context.Background(), "journal close failed", zap.Error(err))
				}
			})
		}
	}

	if cfg.Metrics.Addr != "" {
		go func() {
			if err := metrics.Serve(ctx, cfg.Metrics.Addr, logger); err != nil {
				logger.Warn(ctx, "metrics endpoint disabled", zap.Error(err))
			}
		}()
	}

	recorder := activity.NewRecorder(profiler.New(cfg.Profiler.MemoryTools), activity.Options{
		Journal: j,
		Metrics: m,
		Logger:  logger,
	})

	// --- Create the MCP server ---

	s := server.NewMCPServer(
		"memory-bank",
		Version,
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithPromptCapabilities(true),
		server.WithRecovery(),
		server.WithToolHandlerMiddleware(recorder.Middleware()),
		server.WithInstructions(serverInstructions()),
	)

	// The change detector scans the project the bank documents, which is
	// the bank's parent directory.
	detector := changes.NewDetector(filepath.Dir(b.Root()), logger)

	registerBankTools(s, b, index, m, detector)
	registerActivityTools(s, recorder, j)

	// --- Register prompts ---

	startPrompt := prompts.NewStartPrompt()
	s.AddPrompt(startPrompt.Definition(), startPrompt.Handle)

	reviewPrompt := prompts.NewReviewPrompt()
	s.AddPrompt(reviewPrompt.Definition(), reviewPrompt.Handle)

	// --- Register resources ---

	resourceHandler := resources.NewHandler(b)
	s.AddResourceTemplate(resourceHandler.GuideTemplate(), resourceHandler.HandleGuide)
	s.AddResource(resourceHandler.StructureResource(), resourceHandler.HandleStructure)

	logger.Info(ctx, "memory-bank server ready",
		zap.String("root", b.Root()),
		zap.Int("indexed_documents", index.Len()),
		zap.Bool("journal", j != nil),
	)
	return s, cleanup, nil
}

// noop is a no-op cleanup function returned when New fails.
func noop() {}

// startWatcher keeps the index in sync with edits made outside the
// server. A missing bank is not watched; the index is rebuilt when the
// bank is created through create_memory_bank_structure and on TTL expiry.
func startWatcher(ctx context.Context, b *bank.Bank, index *redundancy.Detector, logger *logging.Logger) func() {
	if !b.Exists() {
		logger.Info(ctx, "memory bank missing, filesystem watcher not started", zap.String("root", b.Root()))
		return noop
	}
	w, err := watcher.New(b.Root(), index, logger)
	if err != nil {
		logger.Warn(ctx, "filesystem watcher disabled", zap.Error(err))
		return noop
	}
	if err := w.Start(ctx); err != nil {
		logger.Warn(ctx, "filesystem watcher disabled", zap.Error(err))
		w.Stop()
		return noop
	}
	return w.Stop
}

// registerBankTools registers the tools that read and write the memory bank.
func registerBankTools(s *server.MCPServer, b *bank.Bank, index *redundancy.Detector, m *metrics.Metrics, d *changes.Detector) {
	// --- Structure ---
	structureTool := tools.NewStructureTool(b)
	s.AddTool(structureTool.Definition(), structureTool.Handle)

	createTool := tools.NewCreateStructureTool(b, index)
	s.AddTool(createTool.Definition(), createTool.Handle)

	templateTool := tools.NewTemplateTool(b, index)
	s.AddTool(templateTool.Definition(), templateTool.Handle)

	// --- Context & analysis ---
	contextTool := tools.NewContextExecutorTool(b)
	s.AddTool(contextTool.Definition(), contextTool.Handle)

	summaryTool := tools.NewProjectSummaryTool(b)
	s.AddTool(summaryTool.Definition(), summaryTool.Handle)

	suggestTool := tools.NewSuggestFilesTool(b)
	s.AddTool(suggestTool.Definition(), suggestTool.Handle)

	routingTool := tools.NewRoutingTool(b, m)
	s.AddTool(routingTool.Definition(), routingTool.Handle)

	changesTool := tools.NewDetectChangesTool(d, b)
	s.AddTool(changesTool.Definition(), changesTool.Handle)

	// --- Writing ---
	redundancyTool := tools.NewRedundancyTool(b, index, m)
	s.AddTool(redundancyTool.Definition(), redundancyTool.Handle)

	updateTool := tools.NewUpdateFileTool(b, index, m)
	s.AddTool(updateTool.Definition(), updateTool.Handle)
}

// registerActivityTools registers the session and journal tools.
func registerActivityTools(s *server.MCPServer, r *activity.Recorder, j *journal.Store) {
	recordTool := tools.NewRecordToolCallTool(r)
	s.AddTool(recordTool.Definition(), recordTool.Handle)

	sessionStart := tools.NewSessionStartTool(r)
	s.AddTool(sessionStart.Definition(), sessionStart.Handle)

	sessionEnd := tools.NewSessionEndTool(r)
	s.AddTool(sessionEnd.Definition(), sessionEnd.Handle)

	reportTool := tools.NewBehaviorReportTool(r)
	s.AddTool(reportTool.Definition(), reportTool.Handle)

	// Registered even without a journal so the agent learns why search
	// is unavailable.
	searchTool := tools.NewSearchActivityTool(j)
	s.AddTool(searchTool.Definition(), searchTool.Handle)
}

// serverInstructions returns the system instructions that tell the AI
// how to use the memory bank effectively.
func serverInstructions() string {
	return `You have access to a Memory Bank: a directory of markdown documents that
holds the durable knowledge of this project (context, technical specs,
devops, decisions and changes). Keeping it current is part of every task.

## WORKFLOW

1. At the start of a task call session_start, then intelligent_context_executor
   with a short description of the task. Read the returned context before
   changing anything.
2. If the memory bank does not exist, call create_memory_bank_structure and
   fill context/overview.md first (analyze_project_summary helps).
3. This server cannot see your own editing tools. After every edit_file,
   search_replace, create_file, delete_file or run_terminal_cmd, call
   record_tool_call with the tool name and its arguments.
4. When the work is done call auto_detect_project_changes and
   suggest_files_to_update, then write the updates with
   update_memory_bank_file. Always add an entry to dynamic_meta/change_log.md
   and record decisions in dynamic_meta/decision_logs.md.
5. Call session_end to get the behavior report.

## WHERE CONTENT GOES

Use smart_project_analysis_and_routing when unsure which document a piece
of information belongs in. Create missing documents with
generate_memory_bank_template.

## AVOID DUPLICATION

Before writing, call check_content_redundancy. When similar documents exist,
link to them with the returned [[see:...]] reference instead of repeating
their content. update_memory_bank_file reports overlaps as well and can skip
the write with skip_if_redundant.

## HISTORY

search_activity searches the tool calls of past sessions. behavior_report
shows the memory adherence of the current session and recent ones.

## CLASSIFICATIONS

The adherence ratio is memory tool calls divided by all tool calls:
- Memory-Conscious: 0.7 or more
- Balanced: 0.4 or more
- Task-Focused: 0.2 or more
- Memory-Negligent: below 0.2
`
}
