// Package pipeline orchestrates the bronze → silver → gold stages.
// Stages run strictly in order, each to completion; the first failure
// aborts the remaining stages.
package pipeline

import (
	"context"

	"github.com/sirupsen/logrus"
)

// Stage is one pipeline step. Each stage reads its predecessor's
// persisted artifact and writes its own, so stages are independently
// re-runnable.
type Stage interface {
	Name() string
	Run(ctx context.Context) error
}

// Runner executes stages in order with fail-fast semantics.
type Runner struct {
	stages []Stage
	log    *logrus.Logger
}

// NewRunner creates a runner over the given stages.
func NewRunner(log *logrus.Logger, stages ...Stage) *Runner {
	return &Runner{stages: stages, log: log}
}

// Run executes all stages in order. On failure it returns a StageError
// naming the failed stage and does not attempt the remaining stages.
func (r *Runner) Run(ctx context.Context) error {
	total := len(r.stages)
	for i, stage := range r.stages {
		r.log.WithFields(logrus.Fields{
			"stage": stage.Name(),
			"step":  i + 1,
			"of":    total,
		}).Info("Starting stage")

		if err := stage.Run(ctx); err != nil {
			r.log.WithFields(logrus.Fields{
				"stage": stage.Name(),
				"error": err,
			}).Error("Stage failed; aborting pipeline")
			return &StageError{Stage: stage.Name(), Err: err}
		}

		r.log.WithField("stage", stage.Name()).Info("Stage completed")
	}
	return nil
}
