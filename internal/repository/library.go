package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/text/language"

	"github.com/joseph-ayodele/booknotes/constants"
	"github.com/joseph-ayodele/booknotes/internal/common"
	"github.com/joseph-ayodele/booknotes/internal/entity"
)

// Storage keys for the two collections.
const (
	BooksKey = "SavedBooks"
	NotesKey = "SavedNotes"

	corruptSuffix = ".corrupt"
)

// CollectionError describes one collection that could not be decoded on load.
type CollectionError struct {
	Key    string
	Backup string // key holding the raw bytes, empty when no backup was written
	Err    error
}

// LoadError is returned by Load when one or more collections were reset to empty.
type LoadError struct {
	Collections []CollectionError
}

func (e *LoadError) Error() string {
	parts := make([]string, 0, len(e.Collections))
	for _, c := range e.Collections {
		parts = append(parts, fmt.Sprintf("%s: %v", c.Key, c.Err))
	}
	return fmt.Sprintf("%v: %s", common.ErrPersistenceCorruption, strings.Join(parts, "; "))
}

func (e *LoadError) Unwrap() error { return common.ErrPersistenceCorruption }

// LibraryOption configures a Library.
type LibraryOption func(*Library)

// WithStrictNoteReferences makes AddNote reject notes whose book does not exist.
func WithStrictNoteReferences(strict bool) LibraryOption {
	return func(l *Library) { l.strict = strict }
}

// WithLocale sets the collation language used by SortedBooks.
func WithLocale(tag language.Tag) LibraryOption {
	return func(l *Library) { l.locale = tag }
}

// WithBackupOnCorruption controls whether undecodable blobs are copied to "<key>.corrupt" on load.
func WithBackupOnCorruption(enabled bool) LibraryOption {
	return func(l *Library) { l.backup = enabled }
}

// Library owns the book and note collections and writes them through to a KVStore.
// It is safe for concurrent use.
type Library struct {
	mu     sync.RWMutex
	books  []entity.Book
	notes  []entity.Note
	kv     KVStore
	codec  Codec
	logger *slog.Logger

	strict bool
	locale language.Tag
	backup bool
}

// NewLibrary returns an empty library. Call Load to read persisted state.
func NewLibrary(kv KVStore, codec Codec, logger *slog.Logger, opts ...LibraryOption) *Library {
	if logger == nil {
		logger = slog.Default()
	}
	l := &Library{
		kv:     kv,
		codec:  codec,
		logger: logger,
		locale: language.English,
		backup: true,
		books:  []entity.Book{},
		notes:  []entity.Note{},
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load replaces in-memory state with what the store holds. Missing keys are empty collections.
// A collection that fails to decode is reset to empty and reported through *LoadError.
func (l *Library) Load(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	var loadErr LoadError

	books, cerr, err := loadCollection(ctx, l, BooksKey, l.codec.DecodeBooks)
	if err != nil {
		return err
	}
	if cerr != nil {
		loadErr.Collections = append(loadErr.Collections, *cerr)
	}

	notes, cerr, err := loadCollection(ctx, l, NotesKey, l.codec.DecodeNotes)
	if err != nil {
		return err
	}
	if cerr != nil {
		loadErr.Collections = append(loadErr.Collections, *cerr)
	}

	l.books, l.notes = books, notes
	l.logger.Info("library loaded", "codec", l.codec.Name(), "books", len(books), "notes", len(notes))
	if len(loadErr.Collections) > 0 {
		return &loadErr
	}
	return nil
}

func loadCollection[T any](ctx context.Context, l *Library, key string, decode func([]byte) ([]T, error)) ([]T, *CollectionError, error) {
	raw, ok, err := l.kv.Get(ctx, key)
	if err != nil {
		return nil, nil, fmt.Errorf("load %s: %w", key, err)
	}
	if !ok || len(raw) == 0 {
		return []T{}, nil, nil
	}
	items, err := decode(raw)
	if err == nil {
		if items == nil {
			items = []T{}
		}
		return items, nil, nil
	}

	cerr := &CollectionError{Key: key, Err: err}
	l.logger.Warn("persisted collection is corrupt, resetting to empty", "key", key, "bytes", len(raw), "error", err)
	if l.backup {
		backupKey := key + corruptSuffix
		if berr := l.kv.PutAll(ctx, map[string][]byte{backupKey: raw}); berr != nil {
			l.logger.Error("failed to back up corrupt collection", "key", backupKey, "error", berr)
		} else {
			cerr.Backup = backupKey
		}
	}
	return []T{}, cerr, nil
}

// change is the next state of the collections; only dirty collections are written.
type change struct {
	books      []entity.Book
	notes      []entity.Note
	booksDirty bool
	notesDirty bool
}

// commit persists c in one KV transaction and swaps it in. Caller holds l.mu.
func (l *Library) commit(ctx context.Context, c change) error {
	entries := make(map[string][]byte, 2)
	if c.booksDirty {
		b, err := l.codec.EncodeBooks(c.books)
		if err != nil {
			return fmt.Errorf("encode books: %w", err)
		}
		entries[BooksKey] = b
	}
	if c.notesDirty {
		b, err := l.codec.EncodeNotes(c.notes)
		if err != nil {
			return fmt.Errorf("encode notes: %w", err)
		}
		entries[NotesKey] = b
	}
	if len(entries) == 0 {
		return nil
	}
	if err := l.kv.PutAll(ctx, entries); err != nil {
		l.logger.Error("failed to persist library", "error", err)
		return fmt.Errorf("persist library: %w", err)
	}
	if c.booksDirty {
		l.books = c.books
	}
	if c.notesDirty {
		l.notes = c.notes
	}
	return nil
}

// AddBook appends book.
func (l *Library) AddBook(ctx context.Context, book entity.Book) error {
	if book.ID == uuid.Nil {
		return common.ValidationError{Field: "id", Message: "is required"}
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.bookIndex(book.ID) >= 0 {
		return fmt.Errorf("%w: book %s already exists", common.ErrInvalidInput, book.ID)
	}
	next := append(cloneBooks(l.books), book)
	if err := l.commit(ctx, change{books: next, booksDirty: true}); err != nil {
		return err
	}
	l.logger.Info("book added", "book_id", book.ID, "title", book.Title)
	return nil
}

// DeleteBook removes the book and every note that references it. Unknown IDs are a no-op.
func (l *Library) DeleteBook(ctx context.Context, id uuid.UUID) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.deleteBookAt(ctx, l.bookIndex(id))
}

// DeleteBookAt removes the book at index in AllBooks order. Out-of-range indexes are a no-op.
func (l *Library) DeleteBookAt(ctx context.Context, index int) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.deleteBookAt(ctx, index)
}

func (l *Library) deleteBookAt(ctx context.Context, index int) error {
	if index < 0 || index >= len(l.books) {
		return nil
	}
	victim := l.books[index]

	books := make([]entity.Book, 0, len(l.books)-1)
	books = append(books, l.books[:index]...)
	books = append(books, l.books[index+1:]...)

	notes := make([]entity.Note, 0, len(l.notes))
	for _, n := range l.notes {
		if n.BookID != victim.ID {
			notes = append(notes, n)
		}
	}
	removed := len(l.notes) - len(notes)

	if err := l.commit(ctx, change{books: books, notes: notes, booksDirty: true, notesDirty: true}); err != nil {
		return err
	}
	l.logger.Info("book deleted", "book_id", victim.ID, "notes_removed", removed)
	return nil
}

// AllBooks returns a copy of the collection in insertion order.
func (l *Library) AllBooks() []entity.Book {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return cloneBooks(l.books)
}

// SortedBooks returns a copy of the collection ordered by opt.
func (l *Library) SortedBooks(opt constants.SortOption) []entity.Book {
	books := l.AllBooks()
	SortBooks(books, opt, l.locale)
	return books
}

func (l *Library) Book(id uuid.UUID) (entity.Book, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if i := l.bookIndex(id); i >= 0 {
		return l.books[i], true
	}
	return entity.Book{}, false
}

func (l *Library) BookAt(index int) (entity.Book, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if index < 0 || index >= len(l.books) {
		return entity.Book{}, false
	}
	return l.books[index], true
}

// UpdateBook replaces author, title and year of the stored book with the same ID. Unknown IDs are a no-op.
func (l *Library) UpdateBook(ctx context.Context, book entity.Book) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	i := l.bookIndex(book.ID)
	if i < 0 {
		return nil
	}
	next := cloneBooks(l.books)
	next[i].Author = book.Author
	next[i].Title = book.Title
	next[i].Year = book.Year
	return l.commit(ctx, change{books: next, booksDirty: true})
}

func (l *Library) BookCount() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.books)
}

// AddNote appends note. With strict references a missing book yields common.ErrNotFound.
func (l *Library) AddNote(ctx context.Context, note entity.Note) error {
	if note.ID == uuid.Nil {
		return common.ValidationError{Field: "id", Message: "is required"}
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.strict && l.bookIndex(note.BookID) < 0 {
		return fmt.Errorf("%w: book %s", common.ErrNotFound, note.BookID)
	}
	if l.noteIndex(note.ID) >= 0 {
		return fmt.Errorf("%w: note %s already exists", common.ErrInvalidInput, note.ID)
	}
	next := append(cloneNotes(l.notes), note.Clone())
	if err := l.commit(ctx, change{notes: next, notesDirty: true}); err != nil {
		return err
	}
	l.logger.Info("note added", "note_id", note.ID, "book_id", note.BookID)
	return nil
}

// DeleteNote removes the note with id. Unknown IDs are a no-op.
func (l *Library) DeleteNote(ctx context.Context, id uuid.UUID) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	i := l.noteIndex(id)
	if i < 0 {
		return nil
	}
	next := make([]entity.Note, 0, len(l.notes)-1)
	next = append(next, l.notes[:i]...)
	next = append(next, l.notes[i+1:]...)
	if err := l.commit(ctx, change{notes: next, notesDirty: true}); err != nil {
		return err
	}
	l.logger.Info("note deleted", "note_id", id)
	return nil
}

// DeleteNoteAt removes the note at index in the NotesForBook(bookID) view.
func (l *Library) DeleteNoteAt(ctx context.Context, bookID uuid.UUID, index int) error {
	view := l.NotesForBook(bookID)
	if index < 0 || index >= len(view) {
		return nil
	}
	return l.DeleteNote(ctx, view[index].ID)
}

// NotesForBook returns the book's notes, newest first.
func (l *Library) NotesForBook(bookID uuid.UUID) []entity.Note {
	l.mu.RLock()
	out := make([]entity.Note, 0)
	for _, n := range l.notes {
		if n.BookID == bookID {
			out = append(out, n.Clone())
		}
	}
	l.mu.RUnlock()
	sortNewestFirst(out)
	return out
}

// AllNotes returns every note, newest first.
func (l *Library) AllNotes() []entity.Note {
	l.mu.RLock()
	out := cloneNotes(l.notes)
	l.mu.RUnlock()
	sortNewestFirst(out)
	return out
}

func (l *Library) Note(id uuid.UUID) (entity.Note, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if i := l.noteIndex(id); i >= 0 {
		return l.notes[i].Clone(), true
	}
	return entity.Note{}, false
}

// UpdateNote replaces title, text and page of the stored note with the same ID. Unknown IDs are a no-op.
func (l *Library) UpdateNote(ctx context.Context, note entity.Note) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	i := l.noteIndex(note.ID)
	if i < 0 {
		return nil
	}
	next := cloneNotes(l.notes)
	next[i].Title = note.Title
	next[i].ExtractedText = note.ExtractedText
	next[i].PageNumber = note.Clone().PageNumber
	return l.commit(ctx, change{notes: next, notesDirty: true})
}

func (l *Library) NoteCount(bookID uuid.UUID) int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	count := 0
	for _, n := range l.notes {
		if n.BookID == bookID {
			count++
		}
	}
	return count
}

// IsCorruption reports whether err came from a corrupt persisted collection.
func IsCorruption(err error) bool {
	return errors.Is(err, common.ErrPersistenceCorruption)
}

func (l *Library) bookIndex(id uuid.UUID) int {
	for i := range l.books {
		if l.books[i].ID == id {
			return i
		}
	}
	return -1
}

func (l *Library) noteIndex(id uuid.UUID) int {
	for i := range l.notes {
		if l.notes[i].ID == id {
			return i
		}
	}
	return -1
}

func sortNewestFirst(notes []entity.Note) {
	sort.SliceStable(notes, func(i, j int) bool {
		return notes[i].DateCreated.After(notes[j].DateCreated)
	})
}

func cloneBooks(in []entity.Book) []entity.Book {
	out := make([]entity.Book, len(in))
	copy(out, in)
	return out
}

func cloneNotes(in []entity.Note) []entity.Note {
	out := make([]entity.Note, len(in))
	for i, n := range in {
		out[i] = n.Clone()
	}
	return out
}
