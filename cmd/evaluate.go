package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/cv-evaluator/internal/ai"
	"github.com/spigell/cv-evaluator/internal/ai/gemini"
	"github.com/spigell/cv-evaluator/internal/document"
	"github.com/spigell/cv-evaluator/internal/evalapi"
	"github.com/spigell/cv-evaluator/internal/evaluation"
	"github.com/spigell/cv-evaluator/internal/logger"
	"github.com/spigell/cv-evaluator/internal/pipeline"
	"github.com/spigell/cv-evaluator/internal/report"
	"github.com/spigell/cv-evaluator/internal/secrets"
)

var evaluateCmd = &cobra.Command{
	Use:   "evaluate <file>",
	Short: "Evaluate a PDF, DOC or DOCX résumé against a job title",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return evaluate(cmd, args[0])
	},
}

func init() {
	rootCmd.AddCommand(evaluateCmd)

	evaluateCmd.Flags().StringP("job-title", "t", "", "target job title (asked interactively when empty)")
	evaluateCmd.Flags().StringP("language", "l", "", "language of the feedback (default is English)")
	evaluateCmd.Flags().String("token", "", "bot-verification token for the remote evaluation service")
	evaluateCmd.Flags().String("tab", string(report.TabOverview), "report tab: overview, experience, education, skills, languages, format or all")
	evaluateCmd.Flags().String("provider", "", "evaluation backend: remote or gemini")

	viper.BindPFlag("language", evaluateCmd.Flags().Lookup("language"))
	viper.BindPFlag("verification.token", evaluateCmd.Flags().Lookup("token"))
	viper.BindPFlag("evaluator.provider", evaluateCmd.Flags().Lookup("provider"))
}

func evaluate(cmd *cobra.Command, path string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	log, config, err := setup()
	if err != nil {
		return err
	}
	defer log.Sync()

	tab, err := report.ParseTab(cmd.Flag("tab").Value.String())
	if err != nil {
		return err
	}

	log.Info("starting the cv-evaluator", zap.String("version", version))

	extractor := document.NewExtractor(config.Extract.MaxFileSize, log)

	doc, err := readDocument(path, extractor.MaxSize())
	if err != nil {
		return err
	}

	jobTitle, err := resolveJobTitle(cmd.Flag("job-title").Value.String())
	if err != nil {
		return err
	}

	token, err := resolveToken(config.Verification)
	if err != nil {
		return err
	}

	evaluator, requireToken, err := newEvaluator(ctx, config.Evaluator, log)
	if err != nil {
		return err
	}

	cache, closeHistory, err := openHistory(config.History, log)
	if err != nil {
		return err
	}
	defer closeHistory()

	submitter := pipeline.NewSubmitter(pipeline.Deps{
		Logger:    log,
		Extractor: extractor,
		Evaluator: evaluator,
		History:   cache,
	}, requireToken)

	log.Info("evaluating résumé",
		append(logger.DocumentFields(doc.FileName, doc.MediaType), zap.String("job_title", jobTitle))...,
	)

	entry, warnings, err := submitter.Submit(ctx, doc, jobTitle, config.Language, token)
	if err != nil {
		if errors.Is(err, evaluation.ErrMissingToken) {
			log.Error("verification token is required",
				zap.String("hint", "pass --token, set CV_EVALUATOR_TOKEN or verification.token-file"),
			)
		}
		return err
	}

	for _, warning := range warnings {
		log.Warn("evaluation finished with a warning", zap.Error(warning))
	}

	return report.Render(cmd.OutOrStdout(), entry, tab)
}

// readDocument loads at most maxSize+1 bytes so the extractor can reject
// oversized files without reading them fully.
func readDocument(path string, maxSize int64) (document.UploadedDocument, error) {
	f, err := os.Open(path)
	if err != nil {
		return document.UploadedDocument{}, fmt.Errorf("open résumé: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, maxSize+1))
	if err != nil {
		return document.UploadedDocument{}, fmt.Errorf("read résumé: %w", err)
	}

	name := filepath.Base(path)
	return document.UploadedDocument{
		Data:      data,
		MediaType: document.MediaTypeForName(name),
		FileName:  name,
	}, nil
}

func resolveJobTitle(title string) (string, error) {
	if title = strings.TrimSpace(title); title != "" {
		return title, evaluation.ValidateJobTitle(title)
	}

	prompt := promptui.Prompt{
		Label:    "Job title",
		Validate: evaluation.ValidateJobTitle,
	}

	title, err := prompt.Run()
	if err != nil {
		return "", fmt.Errorf("job title prompt: %w", err)
	}

	return strings.TrimSpace(title), nil
}

// resolveToken returns an empty token when none is configured. Whether one
// is required is decided by the evaluation backend.
func resolveToken(cfg *VerificationConfig) (string, error) {
	src := secrets.Source{
		Name:  "verification token",
		Value: cfg.Token,
		File:  cfg.TokenFile,
	}
	if !src.Configured() {
		return "", nil
	}

	return secrets.Load(src)
}

// newEvaluator builds the configured backend and reports whether it needs a
// verification token.
func newEvaluator(ctx context.Context, cfg *EvaluatorConfig, log *zap.Logger) (ai.Evaluator, bool, error) {
	switch provider := strings.ToLower(strings.TrimSpace(cfg.Provider)); provider {
	case "", providerRemote:
		client := evalapi.New(logger.WithEvaluator(log, providerRemote, ""), cfg.Remote.Endpoint, cfg.Remote.Timeout)
		if ua := strings.TrimSpace(cfg.Remote.UserAgent); ua != "" {
			client.UserAgent = ua
		}
		return client, true, nil
	case providerGemini:
		apiKey, err := secrets.Load(secrets.Source{
			Name: "gemini api key",
			File: cfg.Gemini.APIKeyFile,
			Env:  "GEMINI_API_KEY",
		})
		if err != nil {
			return nil, false, fmt.Errorf("%w (set evaluator.gemini.api-key-file, GEMINI_API_KEY_FILE or GEMINI_API_KEY)", err)
		}

		generator, err := gemini.NewGenerator(ctx, apiKey, cfg.Gemini.Model, cfg.Gemini.MaxRetries, logger.WithEvaluator(log, providerGemini, cfg.Gemini.Model))
		if err != nil {
			return nil, false, err
		}

		return gemini.NewEvaluator(generator, log, cfg.Gemini.MaxLogLength), false, nil
	default:
		return nil, false, fmt.Errorf("unsupported evaluator provider: %s", cfg.Provider)
	}
}
