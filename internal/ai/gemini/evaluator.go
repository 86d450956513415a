package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	_ "embed"

	"go.uber.org/zap"

	"github.com/spigell/cv-evaluator/internal/evaluation"
	"github.com/spigell/cv-evaluator/internal/logger"
	"github.com/spigell/cv-evaluator/internal/utils"
)

// ProviderName identifies this backend in logs and configuration.
const ProviderName = "gemini"

const (
	defaultMaxLogLength = 200
	systemInstruction   = "You are an experienced recruiter evaluating résumés. Answer with JSON only."
)

//go:embed prompt.md
var promptTemplate string

type textGenerator interface {
	GenerateContent(ctx context.Context, system, prompt string) (string, error)
	Model() string
}

// Evaluator scores résumés with a Gemini model. Its output passes the same
// schema validation as the remote evaluation service.
type Evaluator struct {
	generator textGenerator
	logger    *zap.Logger
	maxLogLen int
}

func NewEvaluator(generator textGenerator, log *zap.Logger, maxLogLength int) *Evaluator {
	if maxLogLength <= 0 {
		maxLogLength = defaultMaxLogLength
	}

	model := ""
	if generator != nil {
		model = generator.Model()
	}

	return &Evaluator{
		generator: generator,
		logger:    logger.WithEvaluator(log, ProviderName, model),
		maxLogLen: maxLogLength,
	}
}

func (e *Evaluator) Evaluate(ctx context.Context, req *evaluation.Request) (*evaluation.Result, error) {
	if e.generator == nil {
		return nil, errors.New("gemini generator is not configured")
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	prompt, err := buildPrompt(req)
	if err != nil {
		return nil, err
	}

	e.logger.Debug("gemini generate content request",
		zap.String(logger.FieldFileName, req.FileName),
		zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
		zap.String("prompt_preview", utils.TruncateForLog(prompt, e.maxLogLen)),
	)

	raw, err := e.generator.GenerateContent(ctx, systemInstruction, prompt)
	if err != nil {
		return nil, err
	}

	e.logger.Debug("gemini generate content response",
		zap.Int("response_length", utf8.RuneCountInString(raw)),
		zap.String("response_preview", utils.TruncateForLog(raw, e.maxLogLen)),
	)

	result, err := evaluation.Decode([]byte(extractJSON(raw)))
	if err != nil {
		return nil, fmt.Errorf("parse gemini response: %w", err)
	}

	return result, nil
}

func buildPrompt(req *evaluation.Request) (string, error) {
	schema, err := json.MarshalIndent(evaluation.ResultSchema(), "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal result schema: %w", err)
	}

	language := strings.TrimSpace(req.Language)
	if language == "" {
		language = evaluation.DefaultLanguage
	}

	replacer := strings.NewReplacer(
		"{{JOB_TITLE}}", req.JobTitle,
		"{{LANGUAGE}}", language,
		"{{SCHEMA}}", string(schema),
		"{{RESUME_TEXT}}", req.Text,
	)

	return replacer.Replace(promptTemplate), nil
}

// extractJSON strips markdown code fences some models wrap around JSON.
func extractJSON(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```json")
		raw = strings.TrimPrefix(raw, "```")
		raw = strings.TrimSpace(raw)
		if idx := strings.LastIndex(raw, "```"); idx != -1 {
			raw = raw[:idx]
		}
	}
	raw = strings.Trim(raw, "`")
	return strings.TrimSpace(raw)
}
