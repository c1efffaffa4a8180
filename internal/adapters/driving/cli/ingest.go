package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

var ingestSource string

var ingestCmd = &cobra.Command{
	Use:   "ingest [file...]",
	Short: "Ingest documents into the index",
	Long: `Reads text files, splits them into overlapping chunks, embeds the
chunks and writes them to the vector index. Page boundaries marked
with [[PAGE_n]] markers are preserved in the chunk metadata.

Re-ingesting an existing source replaces its indexed content.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().StringVarP(&ingestSource, "source", "s", "", "source name override (single file only)")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	if ingestSource != "" && len(args) > 1 {
		return errors.New("--source can only be used with a single file")
	}

	if err := initServices(); err != nil {
		return err
	}

	for _, path := range args {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}

		source := ingestSource
		if source == "" {
			source = filepath.Base(path)
		}

		cmd.Printf("Ingesting %s...\n", source)
		if err := ingestService.Ingest(cmd.Context(), string(data), source); err != nil {
			return fmt.Errorf("ingesting %s: %w", source, err)
		}
		cmd.Printf("Ingested %s.\n", source)
	}

	return nil
}
