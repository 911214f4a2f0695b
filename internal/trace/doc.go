// Package trace records the boundaries of snippet operations: CLI commands,
// store calls and per-record codec work. It is meant for finding slow imports
// and exports, not for user-facing logs (those go through zap).
//
// # Usage
//
//	theway export --trace=- --trace-level=store out.json
//
// # Levels
//
//   - LevelOff: no tracing
//   - LevelCommand: one span per CLI command
//   - LevelStore: store operations as well
//   - LevelRecord: every encoded or decoded record
//
// # Context Propagation
//
//	ctx = trace.WithTracer(ctx, tracer)
//	span := trace.Start(ctx, trace.ScopeStore, "store.all")
//	defer span.End("")
package trace
