package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/cv-evaluator/internal/evaluation"
	"github.com/spigell/cv-evaluator/internal/history"
	"github.com/spigell/cv-evaluator/internal/logger"
)

const (
	StageVerify   = "verify"
	StageExtract  = "extract"
	StageEvaluate = "evaluate"
	StageRecord   = "record"

	maxIDAttempts = 3
)

// ErrExtraction wraps the extractor's message when a document cannot be read.
var ErrExtraction = errors.New("extraction failed")

type toggle struct {
	disabled bool
	reason   string
}

func (t *toggle) Disable(reason string) {
	t.disabled = true
	t.reason = reason
}

func (t *toggle) IsEnabled() bool { return !t.disabled }

func (t *toggle) DisabledReason() string { return t.reason }

// Stages returns verify, extract, evaluate and record in that order.
func Stages() []Stage {
	return []Stage{&verifyStage{}, &extractStage{}, &evaluateStage{}, &recordStage{}}
}

type verifyStage struct{ toggle }

func (s *verifyStage) Name() string { return StageVerify }

func (s *verifyStage) Validate(Deps) error { return nil }

func (s *verifyStage) Apply(_ context.Context, _ Deps, sub *Submission) error {
	if strings.TrimSpace(sub.Token) == "" {
		return evaluation.ErrMissingToken
	}
	return nil
}

type extractStage struct{ toggle }

func (s *extractStage) Name() string { return StageExtract }

func (s *extractStage) Validate(deps Deps) error {
	if deps.Extractor == nil {
		return errors.New("document extractor is not configured")
	}
	return nil
}

func (s *extractStage) Apply(_ context.Context, deps Deps, sub *Submission) error {
	text := deps.Extractor.Extract(sub.Document)
	if text.Failed() {
		return fmt.Errorf("%w: %s", ErrExtraction, text.Error)
	}

	deps.Logger.Info("document extracted",
		append(logger.DocumentFields(text.FileName, text.MediaType), zap.Int("characters", len([]rune(text.Content))))...,
	)

	sub.Text = text
	return nil
}

type evaluateStage struct{ toggle }

func (s *evaluateStage) Name() string { return StageEvaluate }

func (s *evaluateStage) Validate(deps Deps) error {
	if deps.Evaluator == nil {
		return errors.New("evaluator is not configured")
	}
	return nil
}

func (s *evaluateStage) Apply(ctx context.Context, deps Deps, sub *Submission) error {
	req, err := evaluation.NewRequest(sub.Text, sub.JobTitle, sub.Language, sub.Token)
	if err != nil {
		return err
	}

	result, err := deps.Evaluator.Evaluate(ctx, req)
	if err != nil {
		return err
	}

	deps.Logger.Info("evaluation received", zap.Float64("fit_score", result.FitScore))

	sub.Request = req
	sub.Result = result
	return nil
}

type recordStage struct{ toggle }

func (s *recordStage) Name() string { return StageRecord }

func (s *recordStage) Validate(deps Deps) error {
	if deps.History == nil {
		return errors.New("history is not configured")
	}
	if deps.NewID == nil || deps.Now == nil {
		return errors.New("id and clock sources are required")
	}
	return nil
}

func (s *recordStage) Apply(_ context.Context, deps Deps, sub *Submission) error {
	if sub.Result == nil {
		return errors.New("nothing to record")
	}

	entry := &history.Entry{
		FileName:   sub.Text.FileName,
		FileType:   sub.Text.MediaType,
		Date:       deps.Now().UTC(),
		Content:    sub.Text.Content,
		Evaluation: sub.Result,
	}

	var err error
	for attempt := 0; attempt < maxIDAttempts; attempt++ {
		entry.ID = deps.NewID()
		err = deps.History.Add(entry)
		if !errors.Is(err, history.ErrDuplicateID) {
			break
		}
		deps.Logger.Debug("entry id collision, regenerating", zap.String(logger.FieldEntryID, entry.ID))
	}

	var persistErr *history.PersistError
	switch {
	case err == nil:
	case errors.As(err, &persistErr):
		deps.Logger.Warn("evaluation kept in memory but not saved", zap.Error(err))
		sub.Warnings = append(sub.Warnings, err)
	default:
		return err
	}

	deps.Logger.Info("evaluation recorded", zap.String(logger.FieldEntryID, entry.ID))

	sub.Entry = entry
	return nil
}
