package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/cv-evaluator/internal/document"
	"github.com/spigell/cv-evaluator/internal/evalapi"
	"github.com/spigell/cv-evaluator/internal/evaluation"
	"github.com/spigell/cv-evaluator/internal/history"
	"github.com/spigell/cv-evaluator/internal/logger"
)

const (
	app = "cv-evaluator"

	providerRemote = "remote"
	providerGemini = "gemini"

	backendFile   = "file"
	backendSQLite = "sqlite"
	backendMemory = "memory"
)

type Config struct {
	Language     string              `mapstructure:"language"`
	Extract      *ExtractConfig      `mapstructure:"extract"`
	Verification *VerificationConfig `mapstructure:"verification"`
	Evaluator    *EvaluatorConfig    `mapstructure:"evaluator"`
	History      *HistoryConfig      `mapstructure:"history"`
}

type ExtractConfig struct {
	MaxFileSize int64 `mapstructure:"max-file-size"`
}

type VerificationConfig struct {
	Token     string `mapstructure:"token"`
	TokenFile string `mapstructure:"token-file"`
}

type EvaluatorConfig struct {
	Provider string        `mapstructure:"provider"`
	Remote   *RemoteConfig `mapstructure:"remote"`
	Gemini   *GeminiConfig `mapstructure:"gemini"`
}

type RemoteConfig struct {
	Endpoint  string        `mapstructure:"endpoint"`
	UserAgent string        `mapstructure:"user-agent"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

type GeminiConfig struct {
	APIKeyFile   string `mapstructure:"api-key-file"`
	Model        string `mapstructure:"model"`
	MaxRetries   int    `mapstructure:"max-retries"`
	MaxLogLength int    `mapstructure:"max-log-length"`
}

type HistoryConfig struct {
	Backend string `mapstructure:"backend"`
	Dir     string `mapstructure:"dir"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:           app,
		Short:         "cv-evaluator extracts a résumé, scores it against a job title and keeps a local history of evaluations",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	envBindings := map[string]string{
		"verification.token":           "CV_EVALUATOR_TOKEN",
		"verification.token-file":      "CV_EVALUATOR_TOKEN_FILE",
		"evaluator.gemini.api-key-file": "GEMINI_API_KEY_FILE",
	}
	for key, env := range envBindings {
		if err := viper.BindEnv(key, env); err != nil {
			log.Fatalf("binding %s environment variable: %v", env, err)
		}
	}

	viper.SetEnvPrefix("CV_EVALUATOR")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	viper.SetDefault("language", evaluation.DefaultLanguage)
	viper.SetDefault("extract.max-file-size", document.DefaultMaxSize)
	viper.SetDefault("evaluator.provider", providerRemote)
	viper.SetDefault("evaluator.remote.endpoint", evalapi.DefaultEndpoint)
	viper.SetDefault("evaluator.remote.timeout", time.Duration(0))
	viper.SetDefault("evaluator.gemini.max-retries", 3)
	viper.SetDefault("evaluator.gemini.max-log-length", 200)
	viper.SetDefault("history.backend", backendFile)
	viper.SetDefault("history.dir", defaultHistoryDir())

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is cv-evaluator.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")
	rootCmd.PersistentFlags().String("history-backend", "", "where to keep evaluations: file, sqlite or memory")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
	viper.BindPFlag("history.backend", rootCmd.PersistentFlags().Lookup("history-backend"))
}

func initConfig() {
	// .env is optional and never overrides variables that are already set.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Fatalf("loading .env: %v", err)
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app)
		viper.SetConfigType("yaml")
	}

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile == "" && errors.As(err, &notFound) {
			return
		}
		// We can't proceed if the config file parsed with error.
		log.Fatal(err)
	}
}

func getConfig() (*Config, error) {
	var config *Config
	err := viper.Unmarshal(&config)
	if err != nil {
		return config, err
	}

	if config == nil {
		return nil, errors.New("config is empty")
	}
	if config.Extract == nil {
		config.Extract = &ExtractConfig{}
	}
	if config.Verification == nil {
		config.Verification = &VerificationConfig{}
	}
	if config.Evaluator == nil {
		config.Evaluator = &EvaluatorConfig{}
	}
	if config.Evaluator.Remote == nil {
		config.Evaluator.Remote = &RemoteConfig{}
	}
	if config.Evaluator.Gemini == nil {
		config.Evaluator.Gemini = &GeminiConfig{}
	}
	if config.History == nil {
		config.History = &HistoryConfig{}
	}

	return config, nil
}

// setup builds the logger and reads the config shared by every command.
func setup() (*zap.Logger, *Config, error) {
	log, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		return nil, nil, fmt.Errorf("creating a logger: %w", err)
	}

	config, err := getConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("getting a config: %w", err)
	}

	return log, config, nil
}

// openHistory opens the configured history backend. The returned function
// releases it.
func openHistory(cfg *HistoryConfig, log *zap.Logger) (*history.Cache, func(), error) {
	var (
		storage history.Storage
		closer  = func() {}
	)

	switch backend := strings.ToLower(strings.TrimSpace(cfg.Backend)); backend {
	case "", backendFile:
		storage = history.NewFileStorage(cfg.Dir)
	case backendSQLite:
		if err := os.MkdirAll(cfg.Dir, 0o700); err != nil {
			return nil, nil, fmt.Errorf("create history dir: %w", err)
		}
		db, err := history.OpenSQLite(filepath.Join(cfg.Dir, app+".db"))
		if err != nil {
			return nil, nil, err
		}
		storage = db
		closer = func() {
			if err := db.Close(); err != nil {
				log.Warn("closing history database", zap.Error(err))
			}
		}
	case backendMemory:
		storage = history.NewMemoryStorage()
	default:
		return nil, nil, fmt.Errorf("unsupported history backend: %s", cfg.Backend)
	}

	cache, err := history.New(storage, log)
	if err != nil {
		closer()
		return nil, nil, err
	}

	return cache, closer, nil
}

// warnPersist logs a failed history write without failing the command.
func warnPersist(log *zap.Logger, err error) error {
	var persistErr *history.PersistError
	if errors.As(err, &persistErr) {
		log.Warn("history change is not saved", zap.Error(err))
		return nil
	}
	return err
}

func defaultHistoryDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "."
	}
	return filepath.Join(dir, app)
}
