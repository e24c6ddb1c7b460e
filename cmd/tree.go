package cmd

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

var treeCmd = &cobra.Command{
	Use:   "tree",
	Short: "Kernel tree operations",
}

var treeListCmd = &cobra.Command{
	Use:   "list",
	Short: "List kernel trees defined in the database",
	RunE:  runTreeList,
}

func init() {
	treeCmd.AddCommand(treeListCmd)
	rootCmd.AddCommand(treeCmd)
}

func runTreeList(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger := newLogger(cfg)

	db, err := openDatabase(cfg, logger)
	if err != nil {
		return err
	}

	names := make([]string, 0, len(db.Trees))
	for name := range db.Trees {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintln(cmd.OutOrStdout(), name)
	}
	return nil
}
