package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/stereopipe/sgm/internal/store"
)

var resultsDataDir string

var resultsCmd = &cobra.Command{
	Use:   "results",
	Short: "Manage persisted matching runs",
	Long:  `List and delete runs persisted under the data directory.`,
}

var listResultsCmd = &cobra.Command{
	Use:   "list",
	Short: "List all persisted runs",
	RunE:  runListResults,
}

var deleteResultsCmd = &cobra.Command{
	Use:   "delete <run-id>",
	Short: "Delete a persisted run and its artifacts",
	Args:  cobra.ExactArgs(1),
	RunE:  runDeleteResult,
}

func init() {
	rootCmd.AddCommand(resultsCmd)
	resultsCmd.AddCommand(listResultsCmd)
	resultsCmd.AddCommand(deleteResultsCmd)

	resultsCmd.PersistentFlags().StringVar(&resultsDataDir, "data-dir", "", "Base directory for run storage (default from config)")
}

func resultsStore() (*store.FSStore, error) {
	dir := resultsDataDir
	if dir == "" {
		dir = cfg.Output.DataDir
	}
	return store.NewFSStore(dir)
}

func runListResults(cmd *cobra.Command, args []string) error {
	runStore, err := resultsStore()
	if err != nil {
		return fmt.Errorf("failed to open run store: %w", err)
	}

	infos, err := runStore.ListRuns()
	if err != nil {
		return fmt.Errorf("failed to list runs: %w", err)
	}

	if len(infos) == 0 {
		fmt.Println("No runs found.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "RUN ID\tENGINE\tSIZE\tD\tPATHS\tELAPSED\tFINISHED")
	for _, info := range infos {
		fmt.Fprintf(w, "%s\t%s\t%dx%d\t%d\t%d\t%dms\t%s\n",
			info.RunID, info.Engine, info.Width, info.Height,
			info.MaxDisp, info.Paths, info.ElapsedMS,
			info.Timestamp.Format("2006-01-02 15:04:05"))
	}
	return w.Flush()
}

func runDeleteResult(cmd *cobra.Command, args []string) error {
	runStore, err := resultsStore()
	if err != nil {
		return fmt.Errorf("failed to open run store: %w", err)
	}

	if err := runStore.DeleteRun(args[0]); err != nil {
		return fmt.Errorf("failed to delete run: %w", err)
	}
	fmt.Printf("Deleted run %s\n", args[0])
	return nil
}
