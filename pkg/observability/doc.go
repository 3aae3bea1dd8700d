// Package observability lets a host attach metrics or tracing to the
// pipeline without the libraries depending on a backend.
//
// Hooks are registered once at startup and default to no-ops:
//
//	observability.SetPipelineHooks(myMetrics)
//	observability.SetCacheHooks(myMetrics)
//
// Instrumented code fetches the current hooks at the call site:
//
//	observability.Pipeline().OnStageStart(ctx, observability.StageCompose)
//
// [LogHooks] is a ready-made implementation that writes every event to a
// charmbracelet logger at debug level; the CLI installs it with --verbose.
package observability
