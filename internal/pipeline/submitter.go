package pipeline

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spigell/cv-evaluator/internal/document"
	"github.com/spigell/cv-evaluator/internal/history"
)

var ErrSubmissionInProgress = errors.New("a submission is already in progress")

// Submitter runs one submission at a time.
type Submitter struct {
	deps     Deps
	stages   []Stage
	inFlight atomic.Bool
}

// NewSubmitter prepares the default stages. The verify stage only runs when
// requireToken is set, which is the case for the remote evaluation service.
func NewSubmitter(deps Deps, requireToken bool) *Submitter {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.NewID == nil {
		deps.NewID = uuid.NewString
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}

	stages := Stages()
	if !requireToken {
		DisableByName(stages, StageVerify, "evaluator does not use a verification token")
	}

	return &Submitter{deps: deps, stages: stages}
}

// Stages reports the configured stages.
func (s *Submitter) Stages() []Status {
	return Describe(s.stages)
}

// Submit extracts, evaluates and records doc. On success the returned entry is
// already at the front of the history. Non-fatal problems such as a failed
// history write are returned as warnings.
func (s *Submitter) Submit(ctx context.Context, doc document.UploadedDocument, jobTitle, language, token string) (*history.Entry, []error, error) {
	if !s.inFlight.CompareAndSwap(false, true) {
		return nil, nil, ErrSubmissionInProgress
	}
	defer s.inFlight.Store(false)

	sub := &Submission{
		Document: doc,
		JobTitle: jobTitle,
		Language: language,
		Token:    token,
	}

	if err := Run(ctx, s.deps, s.stages, sub); err != nil {
		return nil, nil, err
	}

	return sub.Entry, sub.Warnings, nil
}
