package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/booknotes/internal/common"
	"github.com/joseph-ayodele/booknotes/internal/entity"
	"github.com/joseph-ayodele/booknotes/internal/export"
)

var (
	noteTitle  string
	noteText   string
	notePage   string
	noteFormat string
	noteJSON   bool
	noteAll    bool
	noteIndex  int
	noteDelYes bool
)

var noteCmd = &cobra.Command{
	Use:   "note",
	Short: "Manage notes",
}

var noteListCmd = &cobra.Command{
	Use:   "list [book-id|index]",
	Short: "List notes of a book, newest first",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		var notes []entity.Note
		switch {
		case noteAll || len(args) == 0:
			notes = a.library.AllNotes()
		default:
			book, err := resolveBook(a.library, args[0])
			if err != nil {
				return err
			}
			notes = a.library.NotesForBook(book.ID)
		}

		if noteJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(notes)
		}
		for i, n := range notes {
			printNoteLine(i, n)
		}
		return nil
	},
}

var noteShowCmd = &cobra.Command{
	Use:   "show <note-id>",
	Short: "Print a note as plain text or Markdown",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		id, err := parseNoteID(args[0])
		if err != nil {
			return err
		}
		note, ok := a.library.Note(id)
		if !ok {
			return fmt.Errorf("%w: note %s", common.ErrNotFound, id)
		}
		format, err := export.ParseFormat(noteFormat)
		if err != nil {
			return err
		}
		switch format {
		case export.FormatMarkdown:
			fmt.Println(export.NoteMarkdown(note))
		case export.FormatText:
			fmt.Println(export.NotePlainText(note))
		default:
			return fmt.Errorf("%w: notes can be shown as text or md", common.ErrInvalidInput)
		}
		return nil
	},
}

var noteEditCmd = &cobra.Command{
	Use:   "edit <note-id>",
	Short: "Change the title, text or page of a note",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		id, err := parseNoteID(args[0])
		if err != nil {
			return err
		}
		note, ok := a.library.Note(id)
		if !ok {
			return fmt.Errorf("%w: note %s", common.ErrNotFound, id)
		}
		title, text, page := note.Title, note.ExtractedText, note.PageNumber
		if cmd.Flags().Changed("title") {
			title = noteTitle
		}
		if cmd.Flags().Changed("text") {
			text = noteText
		}
		if cmd.Flags().Changed("page") {
			page = &notePage
		}
		if _, err := a.notes.Edit(cmd.Context(), id, title, text, page); err != nil {
			return err
		}
		fmt.Printf("Note updated: %s\n", id)
		return nil
	},
}

var noteDeleteCmd = &cobra.Command{
	Use:   "delete <note-id> | delete <book-id|index> --index N",
	Short: "Delete a note by ID, or by its position in a book's newest-first list",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		if cmd.Flags().Changed("index") {
			book, err := resolveBook(a.library, args[0])
			if err != nil {
				return err
			}
			if !noteDelYes && !confirm(fmt.Sprintf("Delete note %d of %q?", noteIndex, book.Title)) {
				fmt.Println("Aborted.")
				return nil
			}
			if err := a.library.DeleteNoteAt(cmd.Context(), book.ID, noteIndex-1); err != nil {
				return err
			}
			fmt.Printf("Note %d of %s deleted\n", noteIndex, book.ID)
			return nil
		}

		id, err := parseNoteID(args[0])
		if err != nil {
			return err
		}
		if _, ok := a.library.Note(id); !ok {
			return fmt.Errorf("%w: note %s", common.ErrNotFound, id)
		}
		if !noteDelYes && !confirm("Delete this note?") {
			fmt.Println("Aborted.")
			return nil
		}
		if err := a.library.DeleteNote(cmd.Context(), id); err != nil {
			return err
		}
		fmt.Printf("Note deleted: %s\n", id)
		return nil
	},
}

func printNoteLine(i int, n entity.Note) {
	meta := n.DateCreated.Format(export.DateLayout)
	if n.PageNumber != nil {
		meta += " • Page " + *n.PageNumber
	}
	fmt.Printf("%3d. %s  [%s]  %s\n", i+1, n.Title, meta, n.ID)
}

func confirm(prompt string) bool {
	fmt.Printf("%s [y/N] ", prompt)
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	}
	return false
}

func init() {
	noteListCmd.Flags().BoolVar(&noteAll, "all", false, "List notes of every book")
	noteListCmd.Flags().BoolVar(&noteJSON, "json", false, "Output as JSON")
	noteShowCmd.Flags().StringVar(&noteFormat, "format", "text", "Output format: text | md")
	noteEditCmd.Flags().StringVar(&noteTitle, "title", "", "New title")
	noteEditCmd.Flags().StringVar(&noteText, "text", "", "New text")
	noteEditCmd.Flags().StringVar(&notePage, "page", "", "New page number (empty clears it)")
	noteDeleteCmd.Flags().IntVar(&noteIndex, "index", 0, "1-based position in the book's newest-first note list")
	noteDeleteCmd.Flags().BoolVarP(&noteDelYes, "yes", "y", false, "Do not ask for confirmation")

	noteCmd.AddCommand(noteListCmd, noteShowCmd, noteEditCmd, noteDeleteCmd)
	rootCmd.AddCommand(noteCmd)
}
