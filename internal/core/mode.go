// Package core is the orchestration layer.  It composes a target, its
// error sinks and its metrics into a runnable mode and provides a
// builder that assembles that mode from a Config.
//
// Architecture layers (bottom → top):
//
//	resolve/socket  →  target  →  core  →  cmd (CLI)
package core

import "context"

// Mode represents a complete run of netsend.  Each mode owns its target
// from open to close.
type Mode interface {
	Run(ctx context.Context) error
}
