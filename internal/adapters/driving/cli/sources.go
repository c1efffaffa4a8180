package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "Manage ingested documents",
	Long:  `List or remove documents from the index.`,
}

var sourcesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List ingested documents",
	RunE:  runSourcesList,
}

var sourcesRemoveCmd = &cobra.Command{
	Use:   "remove [source]",
	Short: "Remove a document and its indexed chunks",
	Args:  cobra.ExactArgs(1),
	RunE:  runSourcesRemove,
}

func init() {
	sourcesCmd.AddCommand(sourcesListCmd)
	sourcesCmd.AddCommand(sourcesRemoveCmd)
	rootCmd.AddCommand(sourcesCmd)
}

func runSourcesList(cmd *cobra.Command, _ []string) error {
	if err := initServices(); err != nil {
		return err
	}

	docs, err := ingestService.List(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to list documents: %w", err)
	}

	if len(docs) == 0 {
		cmd.Println("No documents ingested.")
		return nil
	}

	cmd.Println("Documents:")
	cmd.Println()
	for i := range docs {
		cmd.Printf("  %s\n", docs[i].Source)
		cmd.Printf("    Status:   %s\n", docs[i].Status)
		cmd.Printf("    Chunks:   %d\n", docs[i].ChunkCount)
		cmd.Printf("    Updated:  %s\n", docs[i].UpdatedAt.Format("2006-01-02 15:04:05"))
		cmd.Println()
	}

	cmd.Printf("Total: %d documents\n", len(docs))
	return nil
}

func runSourcesRemove(cmd *cobra.Command, args []string) error {
	if err := initServices(); err != nil {
		return err
	}

	source := args[0]
	if err := ingestService.Remove(cmd.Context(), source); err != nil {
		return fmt.Errorf("failed to remove %s: %w", source, err)
	}

	cmd.Printf("Removed %s.\n", source)
	return nil
}
