package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest <path>",
	Short: "OCR a directory of page images (or one image) into a project",
	Long: `Run every configured OCR engine over each page image, align the
results, resolve consensus and store the segments.

A page that fails is reported and does not stop the other pages.
Ingesting the same path again replaces its pages.

Examples:
  lekha ingest ./scans/book
  LEKHA_OCR_ENGINES=tesseract,kraken lekha ingest ./scans/book -o json`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		ingester, err := a.ingester()
		if err != nil {
			return err
		}
		report, ingestErr := ingester.IngestProject(ctx, args[0])
		if report != nil {
			if err := OutputTo(os.Stdout, parseOutputFormat(outputFormat), report); err != nil {
				return err
			}
		}
		return ingestErr
	},
}

var reingestCmd = &cobra.Command{
	Use:   "reingest <project-id> <page-ref>",
	Short: "Rebuild a page's segments from its archived engine runs",
	Long: `Re-run alignment and consensus over the engine output stored for a
page, without running OCR again. Reviewer edits on that page are replaced.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		ingester, err := a.ingester()
		if err != nil {
			return err
		}
		if err := ingester.Reingest(ctx, args[0], args[1]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "reingested %s/%s\n", args[0], args[1])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(ingestCmd)
	rootCmd.AddCommand(reingestCmd)
}
