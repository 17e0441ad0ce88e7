package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/booknotes/constants"
	"github.com/joseph-ayodele/booknotes/internal/common"
	"github.com/joseph-ayodele/booknotes/internal/entity"
	"github.com/joseph-ayodele/booknotes/internal/repository"
)

var (
	bookAuthor string
	bookTitle  string
	bookYear   string
	bookSort   string
	bookJSON   bool
	deleteYes  bool
)

var bookCmd = &cobra.Command{
	Use:   "book",
	Short: "Manage the books in the library",
}

var bookAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a book",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		book, err := a.notes.AddBook(cmd.Context(), bookAuthor, bookTitle, bookYear)
		if err != nil {
			return err
		}
		fmt.Printf("Book added: %s\n", book.ID)
		return nil
	},
}

var bookListCmd = &cobra.Command{
	Use:   "list",
	Short: "List books",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		opt, ok := constants.ParseSortOption(bookSort)
		if !ok && bookSort != "" {
			return fmt.Errorf("%w: sort must be one of %s", common.ErrInvalidInput, strings.Join(constants.SortOptionsAsStrings(), ", "))
		}
		books := a.library.SortedBooks(opt)

		if bookJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(books)
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tAUTHOR\tTITLE\tYEAR\tNOTES")
		for _, b := range books {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\n", b.ID, b.Author, b.Title, b.Year, a.library.NoteCount(b.ID))
		}
		return w.Flush()
	},
}

var bookShowCmd = &cobra.Command{
	Use:   "show <book-id|index>",
	Short: "Show a book and its notes, newest first",
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
		fmt.Printf("%s\nby %s (%s)\n", book.Title, book.Author, book.Year)
		notes := a.library.NotesForBook(book.ID)
		fmt.Printf("%d note(s)\n", len(notes))
		for i, n := range notes {
			printNoteLine(i, n)
		}
		return nil
	},
}

var bookUpdateCmd = &cobra.Command{
	Use:   "update <book-id|index>",
	Short: "Change author, title or year of a book",
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
		author, title, year := book.Author, book.Title, book.Year
		if cmd.Flags().Changed("author") {
			author = bookAuthor
		}
		if cmd.Flags().Changed("title") {
			title = bookTitle
		}
		if cmd.Flags().Changed("year") {
			year = bookYear
		}
		if _, err := a.notes.EditBook(cmd.Context(), book.ID, author, title, year); err != nil {
			return err
		}
		fmt.Printf("Book updated: %s\n", book.ID)
		return nil
	},
}

var bookDeleteCmd = &cobra.Command{
	Use:   "delete <book-id|index>",
	Short: "Delete a book and all of its notes",
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
		count := a.library.NoteCount(book.ID)
		if !deleteYes && !confirm(fmt.Sprintf("Delete %q and its %d note(s)?", book.Title, count)) {
			fmt.Println("Aborted.")
			return nil
		}
		if err := a.library.DeleteBook(cmd.Context(), book.ID); err != nil {
			return err
		}
		fmt.Printf("Book deleted: %s (%d note(s) removed)\n", book.ID, count)
		return nil
	},
}

// resolveBook accepts a book UUID or a 1-based position in insertion order.
func resolveBook(lib *repository.Library, raw string) (entity.Book, error) {
	if n, err := strconv.Atoi(strings.TrimSpace(raw)); err == nil {
		if book, ok := lib.BookAt(n - 1); ok {
			return book, nil
		}
		return entity.Book{}, fmt.Errorf("%w: no book at position %d", common.ErrNotFound, n)
	}
	id, err := common.ParseID("book_id", raw)
	if err != nil {
		return entity.Book{}, err
	}
	book, ok := lib.Book(id)
	if !ok {
		return entity.Book{}, fmt.Errorf("%w: book %s", common.ErrNotFound, id)
	}
	return book, nil
}

func parseNoteID(raw string) (uuid.UUID, error) {
	return common.ParseID("note_id", raw)
}

func init() {
	bookAddCmd.Flags().StringVar(&bookAuthor, "author", "", "Author (required)")
	bookAddCmd.Flags().StringVar(&bookTitle, "title", "", "Title (required)")
	bookAddCmd.Flags().StringVar(&bookYear, "year", "", "Publication year (required, free-form)")
	bookUpdateCmd.Flags().StringVar(&bookAuthor, "author", "", "New author")
	bookUpdateCmd.Flags().StringVar(&bookTitle, "title", "", "New title")
	bookUpdateCmd.Flags().StringVar(&bookYear, "year", "", "New year")
	bookListCmd.Flags().StringVar(&bookSort, "sort", string(constants.SortByAuthor),
		"Sort by: "+strings.Join(constants.SortOptionsAsStrings(), " | "))
	bookListCmd.Flags().BoolVar(&bookJSON, "json", false, "Output as JSON")
	bookDeleteCmd.Flags().BoolVarP(&deleteYes, "yes", "y", false, "Do not ask for confirmation")

	bookCmd.AddCommand(bookAddCmd, bookListCmd, bookShowCmd, bookUpdateCmd, bookDeleteCmd)
	rootCmd.AddCommand(bookCmd)
}
