package repository

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/joseph-ayodele/booknotes/internal/common"
	"github.com/joseph-ayodele/booknotes/internal/entity"
)

// Codec turns a whole collection into one blob and back.
type Codec interface {
	Name() string
	EncodeBooks(books []entity.Book) ([]byte, error)
	DecodeBooks(data []byte) ([]entity.Book, error)
	EncodeNotes(notes []entity.Note) ([]byte, error)
	DecodeNotes(data []byte) ([]entity.Note, error)
}

// NewCodec returns the codec registered under name.
func NewCodec(name string) (Codec, error) {
	switch name {
	case common.CodecJSON, "":
		return NewJSONCodec(), nil
	case common.CodecProto:
		return ProtoCodec{}, nil
	default:
		return nil, fmt.Errorf("%w: unknown codec %q", common.ErrInvalidInput, name)
	}
}

// JSONCodec stores collections as JSON arrays and validates them against a schema before decoding.
type JSONCodec struct {
	once    sync.Once
	books   *jsonschema.Schema
	notes   *jsonschema.Schema
	initErr error
}

func NewJSONCodec() *JSONCodec { return &JSONCodec{} }

func (c *JSONCodec) Name() string { return common.CodecJSON }

func (c *JSONCodec) EncodeBooks(books []entity.Book) ([]byte, error) {
	if books == nil {
		books = []entity.Book{}
	}
	return json.Marshal(books)
}

func (c *JSONCodec) EncodeNotes(notes []entity.Note) ([]byte, error) {
	if notes == nil {
		notes = []entity.Note{}
	}
	return json.Marshal(notes)
}

func (c *JSONCodec) DecodeBooks(data []byte) ([]entity.Book, error) {
	if err := c.compile(); err != nil {
		return nil, err
	}
	if err := validateAgainst(c.books, data); err != nil {
		return nil, err
	}
	var books []entity.Book
	if err := json.Unmarshal(data, &books); err != nil {
		return nil, fmt.Errorf("decode books: %w", err)
	}
	return books, nil
}

func (c *JSONCodec) DecodeNotes(data []byte) ([]entity.Note, error) {
	if err := c.compile(); err != nil {
		return nil, err
	}
	if err := validateAgainst(c.notes, data); err != nil {
		return nil, err
	}
	var notes []entity.Note
	if err := json.Unmarshal(data, &notes); err != nil {
		return nil, fmt.Errorf("decode notes: %w", err)
	}
	return notes, nil
}

func (c *JSONCodec) compile() error {
	c.once.Do(func() {
		c.books, c.initErr = compileSchema("books.json", BuildBooksJSONSchema())
		if c.initErr != nil {
			return
		}
		c.notes, c.initErr = compileSchema("notes.json", BuildNotesJSONSchema())
	})
	return c.initErr
}

// BuildBooksJSONSchema returns the JSON-Schema for the persisted book collection.
func BuildBooksJSONSchema() map[string]any {
	return arrayOf(map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"id":           uuidProp(),
			"author":       map[string]any{"type": "string"},
			"title":        map[string]any{"type": "string"},
			"year":         map[string]any{"type": "string"},
			"date_created": timestampProp(),
		},
		"required": []string{"id", "author", "title", "year", "date_created"},
	})
}

// BuildNotesJSONSchema returns the JSON-Schema for the persisted note collection.
func BuildNotesJSONSchema() map[string]any {
	return arrayOf(map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"id":             uuidProp(),
			"book_id":        uuidProp(),
			"extracted_text": map[string]any{"type": "string"},
			"title":          map[string]any{"type": "string"},
			"page_number":    map[string]any{"type": []string{"string", "null"}},
			"date_created":   timestampProp(),
		},
		"required": []string{"id", "book_id", "extracted_text", "title", "date_created"},
	})
}

func arrayOf(item map[string]any) map[string]any {
	return map[string]any{"type": "array", "items": item}
}

func uuidProp() map[string]any {
	return map[string]any{"type": "string", "format": "uuid"}
}

func timestampProp() map[string]any {
	return map[string]any{"type": "string", "format": "date-time"}
}

func compileSchema(name string, schemaMap map[string]any) (*jsonschema.Schema, error) {
	b, err := json.Marshal(schemaMap)
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	compiler.AssertFormat = true
	if err := compiler.AddResource(name, bytes.NewReader(b)); err != nil {
		return nil, fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile(name)
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return schema, nil
}

func validateAgainst(schema *jsonschema.Schema, data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("unmarshal data: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("json does not match schema: %w", err)
	}
	return nil
}
