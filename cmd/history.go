package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/cv-evaluator/internal/history"
	"github.com/spigell/cv-evaluator/internal/logger"
	"github.com/spigell/cv-evaluator/internal/report"
)

const (
	PromptYes = "Yes"
	PromptNo  = "No"
)

var errNoHistory = errors.New("no evaluations in history")

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Browse and manage past evaluations",
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List past evaluations, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withHistory(func(_ *zap.Logger, cache *history.Cache) error {
			sortBy := history.SortBy(strings.ToLower(cmd.Flag("sort").Value.String()))
			if sortBy != history.SortByDate && sortBy != history.SortByScore {
				return fmt.Errorf("unsupported sort order: %s", sortBy)
			}

			entries := cache.Query(history.Query{
				Search: cmd.Flag("search").Value.String(),
				SortBy: sortBy,
			})
			if len(entries) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No evaluations found.")
				return nil
			}

			report.Table(cmd.OutOrStdout(), entries, time.Now())
			return nil
		})
	},
}

var historyShowCmd = &cobra.Command{
	Use:   "show [id]",
	Short: "Show the report of a past evaluation (select interactively without an id)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		tab, err := report.ParseTab(cmd.Flag("tab").Value.String())
		if err != nil {
			return err
		}

		return withHistory(func(_ *zap.Logger, cache *history.Cache) error {
			id := ""
			if len(args) == 1 {
				id = args[0]
			} else if id, err = selectEntry(cache); err != nil {
				return err
			}

			entry, ok := cache.Get(id)
			if !ok {
				return fmt.Errorf("evaluation %s not found", id)
			}

			return report.Render(cmd.OutOrStdout(), entry, tab)
		})
	},
}

var historyRemoveCmd = &cobra.Command{
	Use:   "remove <id>",
	Short: "Remove an evaluation from history",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		return withHistory(func(log *zap.Logger, cache *history.Cache) error {
			if err := warnPersist(log, cache.Remove(args[0])); err != nil {
				return err
			}
			log.Info("evaluation removed", zap.String(logger.FieldEntryID, args[0]))
			return nil
		})
	},
}

var historyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove every evaluation from history",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withHistory(func(log *zap.Logger, cache *history.Cache) error {
			if cmd.Flag("yes").Value.String() != "true" {
				confirm := promptui.Select{
					Label: fmt.Sprintf("Delete %d evaluations?", cache.Len()),
					Items: []string{PromptNo, PromptYes},
				}
				_, answer, err := confirm.Run()
				if err != nil {
					return err
				}
				if answer != PromptYes {
					log.Info("exiting", zap.String("reason", "got no from prompt"))
					return nil
				}
			}

			if err := warnPersist(log, cache.Clear()); err != nil {
				return err
			}
			log.Info("history cleared")
			return nil
		})
	},
}

var historyExportCmd = &cobra.Command{
	Use:   "export <file.xlsx>",
	Short: "Export the history to an Excel workbook",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		return withHistory(func(log *zap.Logger, cache *history.Cache) error {
			entries := cache.List()

			f, err := os.Create(args[0])
			if err != nil {
				return fmt.Errorf("create export file: %w", err)
			}

			if err := report.ExportXLSX(f, entries); err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return fmt.Errorf("close export file: %w", err)
			}

			log.Info("history exported", zap.String("filename", args[0]), zap.Int("count", len(entries)))
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.AddCommand(historyListCmd, historyShowCmd, historyRemoveCmd, historyClearCmd, historyExportCmd)

	historyListCmd.Flags().StringP("search", "s", "", "filter by file name")
	historyListCmd.Flags().String("sort", string(history.SortByDate), "sort order: date or score")
	historyShowCmd.Flags().String("tab", string(report.TabOverview), "report tab: overview, experience, education, skills, languages, format or all")
	historyClearCmd.Flags().BoolP("yes", "y", false, "do not ask for confirmation")
}

func withHistory(fn func(log *zap.Logger, cache *history.Cache) error) error {
	log, config, err := setup()
	if err != nil {
		return err
	}
	defer log.Sync()

	cache, closeHistory, err := openHistory(config.History, log)
	if err != nil {
		return err
	}
	defer closeHistory()

	return fn(log, cache)
}

func selectEntry(cache *history.Cache) (string, error) {
	entries := cache.List()
	if len(entries) == 0 {
		return "", errNoHistory
	}

	items := make([]string, 0, len(entries))
	for _, entry := range entries {
		items = append(items, entryLabel(entry))
	}

	selectPrompt := promptui.Select{
		Label: "Choose an evaluation and press ENTER",
		Items: items,
	}

	idx, _, err := selectPrompt.Run()
	if err != nil {
		return "", err
	}

	return entries[idx].ID, nil
}

func entryLabel(entry *history.Entry) string {
	score := "-"
	if entry.Evaluation != nil {
		score = fmt.Sprintf("%.0f", entry.Evaluation.FitScore)
	}
	return fmt.Sprintf("%s / %s / %s / score %s", entry.ID, entry.FileName, humanize.Time(entry.Date), score)
}
