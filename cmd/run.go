package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/papapumpkin/magnetar/internal/config"
	"github.com/papapumpkin/magnetar/internal/database"
	"github.com/papapumpkin/magnetar/internal/history"
	"github.com/papapumpkin/magnetar/internal/patch"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Test suite run operations",
}

var generateCmd = &cobra.Command{
	Use:   "generate [patches...]",
	Short: "Generate the run description for a change-set",
	Long: "Generate renders the tree's template with the test suites and cases that\n" +
		"cover the source files changed by the given patches. With no patches, the\n" +
		"whole database is selected.",
	RunE: runGenerate,
}

var printTestCasesCmd = &cobra.Command{
	Use:   "print-test-cases [patches...]",
	Short: "Print test cases applicable to the patches",
	RunE:  runPrintTestCases,
}

func init() {
	generateCmd.Flags().StringP("tree", "t", "", "name of the kernel tree to run against (required)")
	generateCmd.Flags().StringP("arch", "a", "", "architecture of the kernel (default from config)")
	generateCmd.Flags().StringP("kernel", "k", "", "kernel location, must be accessible by Beaker (required)")
	generateCmd.Flags().StringP("description", "d", "", "arbitrary text describing the run")
	generateCmd.Flags().StringP("output", "o", "", "path to save the run description, default stdout")
	generateCmd.Flags().Bool("no-lint", false, "do not lint and reformat output XML")
	generateCmd.Flags().Bool("no-history", false, "do not record the run in the history catalog")
	generateCmd.Flags().Bool("watch", false, "regenerate the output when the database changes (requires --output)")
	_ = generateCmd.MarkFlagRequired("tree")
	_ = generateCmd.MarkFlagRequired("kernel")

	runCmd.AddCommand(generateCmd)
	runCmd.AddCommand(printTestCasesCmd)
	rootCmd.AddCommand(runCmd)
}

func runGenerate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger := newLogger(cfg)

	db, err := openDatabase(cfg, logger)
	if err != nil {
		return err
	}

	tree, _ := cmd.Flags().GetString("tree")
	if _, ok := db.Trees[tree]; !ok {
		return fmt.Errorf("tree %q not found; see \"magnetar tree list\"", tree)
	}

	arch, _ := cmd.Flags().GetString("arch")
	if arch == "" {
		arch = cfg.Arch
	}
	kernel, _ := cmd.Flags().GetString("kernel")
	description, _ := cmd.Flags().GetString("description")
	output, _ := cmd.Flags().GetString("output")
	noLint, _ := cmd.Flags().GetBool("no-lint")
	noHistory, _ := cmd.Flags().GetBool("no-history")
	watch, _ := cmd.Flags().GetBool("watch")

	paths, err := changedFiles(args)
	if err != nil {
		return err
	}
	logger.Debug().Strs("paths", paths).Msg("change-set resolved")

	params := database.RunParams{
		Description:    description,
		Tree:           tree,
		Arch:           arch,
		KernelLocation: kernel,
		SourcePaths:    paths,
		Lint:           cfg.Lint && !noLint,
	}

	if err := generateOnce(db, params, output, cfg, noHistory, logger); err != nil {
		return err
	}

	if !watch {
		return nil
	}
	if output == "" {
		return fmt.Errorf("--watch requires --output")
	}
	return watchAndRegenerate(cfg, params, output, noHistory, logger)
}

// generateOnce renders one run description, writes it to the output target
// and records it in the history catalog.
func generateOnce(db *database.Database, params database.RunParams, output string, cfg config.Config, noHistory bool, logger zerolog.Logger) error {
	text, err := db.GenerateRun(params)
	if err != nil {
		return err
	}

	if output == "" {
		if _, err := os.Stdout.WriteString(text); err != nil {
			return err
		}
	} else {
		if err := os.WriteFile(output, []byte(text), 0o644); err != nil {
			return fmt.Errorf("writing run description: %w", err)
		}
	}
	logger.Info().
		Str("tree", params.Tree).
		Str("arch", params.Arch).
		Int("suites", len(db.MatchSuiteSet(params.SourcePaths))).
		Msg("run description generated")

	if cfg.History && !noHistory {
		entry := history.Entry{
			Timestamp:   time.Now(),
			Tree:        params.Tree,
			Arch:        params.Arch,
			Description: params.Description,
			Output:      output,
			SourcePaths: params.SourcePaths,
			Cases:       len(db.MatchCaseSet(params.SourcePaths)),
		}
		if err := history.Append(history.DefaultPath, entry); err != nil {
			// History is an audit convenience; a failure to record must
			// not discard an already-written run.
			logger.Warn().Err(err).Msg("could not record run in history")
		}
	}
	return nil
}

// watchAndRegenerate reloads the database and regenerates the output on
// every document change until interrupted. Load failures leave the previous
// output in place.
func watchAndRegenerate(cfg config.Config, params database.RunParams, output string, noHistory bool, logger zerolog.Logger) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	w, err := database.NewWatcher(cfg.Database)
	if err != nil {
		return fmt.Errorf("watching %s: %w", cfg.Database, err)
	}
	if err := w.Start(); err != nil {
		return fmt.Errorf("watching %s: %w", cfg.Database, err)
	}
	defer w.Stop()
	logger.Info().Str("dir", cfg.Database).Msg("watching database for changes")

	for {
		select {
		case <-ctx.Done():
			return nil
		case change := <-w.Changes:
			logger.Debug().Str("file", change.File).Msg("database changed")
			db, err := database.Load(cfg.Database)
			if err != nil {
				logger.Error().Err(err).Msg("database reload failed; keeping previous output")
				continue
			}
			if err := generateOnce(db, params, output, cfg, noHistory, logger); err != nil {
				logger.Error().Err(err).Msg("regeneration failed; keeping previous output")
			}
		}
	}
}

func runPrintTestCases(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger := newLogger(cfg)

	db, err := openDatabase(cfg, logger)
	if err != nil {
		return err
	}

	paths, err := changedFiles(args)
	if err != nil {
		return err
	}

	names := make(map[string]bool)
	for _, c := range db.MatchCaseSet(paths) {
		names[c.Name] = true
	}
	sorted := make([]string, 0, len(names))
	for name := range names {
		sorted = append(sorted, name)
	}
	sort.Strings(sorted)
	for _, name := range sorted {
		fmt.Fprintln(cmd.OutOrStdout(), name)
	}
	return nil
}

// openDatabase verifies the configured directory is a database and loads it.
func openDatabase(cfg config.Config, logger zerolog.Logger) (*database.Database, error) {
	if !database.IsDir(cfg.Database) {
		return nil, fmt.Errorf("%q is not a database directory", cfg.Database)
	}
	db, err := database.Load(cfg.Database)
	if err != nil {
		return nil, err
	}
	logger.Debug().
		Str("dir", cfg.Database).
		Int("suites", len(db.Suites)).
		Int("trees", len(db.Trees)).
		Msg("database loaded")
	return db, nil
}

// changedFiles resolves patch references (local files or URLs) to the set of
// source paths they modify. No patches means an empty selector, which
// selects everything.
func changedFiles(refs []string) ([]string, error) {
	if len(refs) == 0 {
		return nil, nil
	}

	tmpDir, err := os.MkdirTemp("", "magnetar")
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(tmpDir)

	local, err := patch.Localize(refs, tmpDir)
	if err != nil {
		return nil, err
	}
	return patch.ChangedFiles(local)
}
