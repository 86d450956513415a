package pipeline

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/cv-evaluator/internal/ai"
	"github.com/spigell/cv-evaluator/internal/document"
	"github.com/spigell/cv-evaluator/internal/evaluation"
	"github.com/spigell/cv-evaluator/internal/history"
)

// Stage is a single step of a submission.
type Stage interface {
	Name() string
	Disable(reason string)
	IsEnabled() bool

	Validate(deps Deps) error
	Apply(ctx context.Context, deps Deps, s *Submission) error
}

// Deps aggregates dependencies shared across all stages.
type Deps struct {
	Logger    *zap.Logger
	Extractor *document.Extractor
	Evaluator ai.Evaluator
	History   *history.Cache

	NewID func() string
	Now   func() time.Time
}

// Submission is one résumé moving through the stages. Each stage fills in
// the fields the next one reads.
type Submission struct {
	Document document.UploadedDocument
	JobTitle string
	Language string
	Token    string

	Text     document.ExtractedText
	Request  *evaluation.Request
	Result   *evaluation.Result
	Entry    *history.Entry
	Warnings []error
}

// Status represents runtime information about a stage.
type Status struct {
	Name    string
	Enabled bool
	Reason  string
}

// DisableByName marks the stage with the provided name as disabled while keeping it in the list.
func DisableByName(stages []Stage, name, reason string) {
	for _, stage := range stages {
		if stage.Name() == name {
			stage.Disable(reason)
		}
	}
}

// Run validates every enabled stage and then applies them in order. The first
// failing stage aborts the submission.
func Run(ctx context.Context, deps Deps, stages []Stage, s *Submission) error {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}

	for _, stage := range stages {
		if !stage.IsEnabled() {
			continue
		}
		if err := stage.Validate(deps); err != nil {
			return fmt.Errorf("%s: %w", stage.Name(), err)
		}
	}

	for _, stage := range stages {
		if !stage.IsEnabled() {
			deps.Logger.Debug("stage disabled", zap.String("name", stage.Name()))
			continue
		}

		started := time.Now()
		if err := stage.Apply(ctx, deps, s); err != nil {
			return fmt.Errorf("%s: %w", stage.Name(), err)
		}

		deps.Logger.Debug("stage done",
			zap.String("name", stage.Name()),
			zap.Duration("took", time.Since(started)),
		)
	}

	return nil
}

// Describe returns status entries for the provided stages.
func Describe(stages []Stage) []Status {
	statuses := make([]Status, 0, len(stages))
	for _, stage := range stages {
		status := Status{Name: stage.Name(), Enabled: stage.IsEnabled()}
		if reporter, ok := stage.(interface{ DisabledReason() string }); ok {
			status.Reason = reporter.DisabledReason()
		}
		statuses = append(statuses, status)
	}
	return statuses
}
