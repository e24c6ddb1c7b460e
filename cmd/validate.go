package cmd

import (
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the test database",
	Long: "Validate loads the database, checks that every tree template exists\n" +
		"and reports suspicious but legal constructs such as duplicate case\n" +
		"names and patterns naming no case.",
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger := newLogger(cfg)

	db, err := openDatabase(cfg, logger)
	if err != nil {
		return err
	}

	warnings, err := db.Audit()
	for _, w := range warnings {
		logger.Warn().Msg(w)
	}
	if err != nil {
		return err
	}
	logger.Info().
		Int("suites", len(db.Suites)).
		Int("trees", len(db.Trees)).
		Msg("database is valid")
	return nil
}
