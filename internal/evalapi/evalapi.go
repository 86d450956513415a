package evalapi

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/cv-evaluator/internal/evaluation"
)

const (
	DefaultEndpoint = "https://cval-api.pwmkin-dev.workers.dev/api/evaluate"
	userAgent       = "spigell/cv-evaluator"
)

// Client talks to the remote CV evaluation service.
type Client struct {
	logger     *zap.Logger
	HTTPClient *http.Client
	Endpoint   string
	UserAgent  string
}

// New creates a client. An empty endpoint selects DefaultEndpoint. A zero
// timeout leaves the request bounded only by the caller's context.
func New(logger *zap.Logger, endpoint string, timeout time.Duration) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}

	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}

	return &Client{
		logger:     logger,
		Endpoint:   endpoint,
		UserAgent:  userAgent,
		HTTPClient: &http.Client{Timeout: timeout},
	}
}

// Evaluate sends one evaluation request. A missing verification token or an
// invalid request fails before anything is sent.
func (c *Client) Evaluate(ctx context.Context, req *evaluation.Request) (*evaluation.Result, error) {
	if !req.HasToken() {
		return nil, evaluation.ErrMissingToken
	}

	if err := req.Validate(); err != nil {
		return nil, err
	}

	c.logger.Debug("sending evaluation request",
		zap.String("file_name", req.FileName),
		zap.String("file_type", req.FileType),
		zap.String("job_title", req.JobTitle),
		zap.String("language", req.Language),
		zap.Int("text_length", len(req.Text)),
	)

	body, err := c.postJSON(ctx, c.Endpoint, req)
	if err != nil {
		return nil, err
	}

	result, err := evaluation.Decode(body)
	if err != nil {
		return nil, fmt.Errorf("decode evaluation: %w", err)
	}

	c.logger.Debug("got evaluation from service", zap.Float64("fit_score", result.FitScore))

	return result, nil
}
