package ai

import (
	"context"

	"github.com/spigell/cv-evaluator/internal/evaluation"
)

// Evaluator scores a résumé against a job title. Implementations call a
// remote service and return a validated result.
type Evaluator interface {
	Evaluate(ctx context.Context, req *evaluation.Request) (*evaluation.Result, error)
}
