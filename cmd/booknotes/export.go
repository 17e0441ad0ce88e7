package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/booknotes/internal/export"
)

var (
	exportFormat string
	exportOut    string
)

var exportCmd = &cobra.Command{
	Use:   "export <book-id|index>",
	Short: "Export the notes of a book as text, Markdown or a spreadsheet",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		book, err := resolveBook(a.library, args[0])
		if err != nil {
			return err
		}
		format, err := export.ParseFormat(exportFormat)
		if err != nil {
			return err
		}
		data, err := a.exporter.ExportBook(cmd.Context(), book.ID, format)
		if err != nil {
			return err
		}

		if exportOut == "-" {
			_, err := os.Stdout.Write(data)
			return err
		}
		out := exportOut
		if out == "" {
			out = export.FileName(book, format)
		}
		if err := os.WriteFile(out, data, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", out, err)
		}
		fmt.Printf("Exported %d note(s) to %s\n", a.library.NoteCount(book.ID), out)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVarP(&exportFormat, "format", "f", string(export.FormatText), "Export format: text | md | xlsx")
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "", `Output file ("-" for stdout, default "<title> Notes.<ext>")`)
	rootCmd.AddCommand(exportCmd)
}
