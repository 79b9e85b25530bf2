package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"lekha/internal/domain"
)

var projectsCmd = &cobra.Command{
	Use:   "projects",
	Short: "List ingested projects",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		projects, err := a.projects.List(ctx)
		if err != nil {
			return err
		}
		return OutputTo(cmd.OutOrStdout(), parseOutputFormat(outputFormat), projects)
	},
}

var pagesCmd = &cobra.Command{
	Use:   "pages <project-id>",
	Short: "List a project's pages with presigned image links",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		pages, err := a.projects.Pages(ctx, args[0])
		if err != nil {
			return err
		}
		return OutputTo(cmd.OutOrStdout(), parseOutputFormat(outputFormat), pages)
	},
}

var (
	exportFormat string
	exportOut    string
)

var exportCmd = &cobra.Command{
	Use:   "export <project-id>",
	Short: "Write the reviewed transcription of a project",
	Long: `Write the current text of every line in project order.

Examples:
  lekha export my-book-1a2b3c4d                  # plain text to stdout
  lekha export my-book-1a2b3c4d -f xlsx --out book.xlsx`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := domain.ParseExportFormat(exportFormat)
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		w := cmd.OutOrStdout()
		if exportOut != "" {
			f, err := os.Create(exportOut)
			if err != nil {
				return err
			}
			defer f.Close()
			w = f
		}
		return a.projects.Export(ctx, args[0], format, w)
	},
}

var deleteAll bool

var deleteCmd = &cobra.Command{
	Use:   "delete <project-id> | --all",
	Short: "Delete a project with its segments and page images",
	Args: func(cmd *cobra.Command, args []string) error {
		if deleteAll && len(args) > 0 {
			return errors.New("pass either a project id or --all")
		}
		if !deleteAll && len(args) != 1 {
			return errors.New("requires a project id or --all")
		}
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		if deleteAll {
			n, err := a.projects.DeleteAll(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %d projects\n", n)
			return nil
		}
		if err := a.projects.Delete(ctx, args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", args[0])
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVarP(&exportFormat, "format", "f", "txt", "export format: txt, csv or xlsx")
	exportCmd.Flags().StringVar(&exportOut, "out", "", "write to a file instead of stdout")
	deleteCmd.Flags().BoolVar(&deleteAll, "all", false, "delete every project")

	rootCmd.AddCommand(projectsCmd)
	rootCmd.AddCommand(pagesCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(deleteCmd)
}
