package model

import (
	"time"

	"github.com/rotisserie/eris"
)

// ErrInvalidTransition is returned when a status change violates the item
// lifecycle. Terminal states absorb further transition attempts without
// mutating the item.
var ErrInvalidTransition = eris.New("model: invalid item status transition")

// MarkAnalyzing moves a pending item into the analyzing state. An item is
// dequeued exactly once; re-entry from any other state is rejected.
func (it *AnalysisItem) MarkAnalyzing() error {
	if it.Status != StatusPending {
		return eris.Wrapf(ErrInvalidTransition, "%s -> %s", it.Status, StatusAnalyzing)
	}
	it.Status = StatusAnalyzing
	return nil
}

// MarkCompleted attaches the score result and the analyzed-at timestamp
// atomically with the completed status.
func (it *AnalysisItem) MarkCompleted(result *ScoreResult, at time.Time) error {
	if it.Status != StatusAnalyzing {
		return eris.Wrapf(ErrInvalidTransition, "%s -> %s", it.Status, StatusCompleted)
	}
	it.Status = StatusCompleted
	it.Result = result
	it.AnalyzedAt = &at
	return nil
}

// MarkError records an unrecoverable per-item failure. The analyzed-at
// timestamp is still stamped; no result is attached.
func (it *AnalysisItem) MarkError(at time.Time) error {
	if it.Status != StatusAnalyzing {
		return eris.Wrapf(ErrInvalidTransition, "%s -> %s", it.Status, StatusError)
	}
	it.Status = StatusError
	it.AnalyzedAt = &at
	return nil
}
