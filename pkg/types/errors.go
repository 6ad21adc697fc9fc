// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "errors"

// Sentinel errors shared across stages. Callers wrap them with %w and test
// with errors.Is.
var (
	// ErrSourceUnavailable means a source adapter failed entirely. It is
	// fatal only when every enabled source failed.
	ErrSourceUnavailable = errors.New("source unavailable")

	// ErrEmptySelection means the merge produced no eligible candidates.
	ErrEmptySelection = errors.New("empty selection")

	// ErrItemResolutionDegraded marks an item that fell through to its
	// degraded substitute. Logged as a warning, never fatal.
	ErrItemResolutionDegraded = errors.New("item resolution degraded")

	// ErrItemResolutionFailed marks an item for which even the degraded
	// substitute could not be produced.
	ErrItemResolutionFailed = errors.New("item resolution failed")

	// ErrPreconditionMissing means an upstream artifact is absent.
	ErrPreconditionMissing = errors.New("precondition missing")

	// ErrNoUsableOutput means a stage finished without a single usable item.
	ErrNoUsableOutput = errors.New("no usable output")
)
