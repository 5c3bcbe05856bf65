package logging

import (
	"context"

	"go.uber.org/zap"
)

type sessionCtxKey struct{}
type toolCtxKey struct{}

// WithSessionID attaches a profiler session id to ctx.
func WithSessionID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, sessionCtxKey{}, id)
}

// SessionIDFromContext returns the session id set by WithSessionID.
func SessionIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(sessionCtxKey{}).(string)
	return id
}

// WithTool attaches the name of the MCP tool being served to ctx.
func WithTool(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, toolCtxKey{}, name)
}

// ToolFromContext returns the tool name set by WithTool.
func ToolFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	name, _ := ctx.Value(toolCtxKey{}).(string)
	return name
}

// ContextFields extracts correlation data from ctx.
func ContextFields(ctx context.Context) []zap.Field {
	fields := make([]zap.Field, 0, 2)
	if id := SessionIDFromContext(ctx); id != "" {
		fields = append(fields, zap.String("session.id", id))
	}
	if tool := ToolFromContext(ctx); tool != "" {
		fields = append(fields, zap.String("tool", tool))
	}
	return fields
}
