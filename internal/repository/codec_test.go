package repository

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/booknotes/internal/common"
	"github.com/joseph-ayodele/booknotes/internal/entity"
)

func sampleCollections() ([]entity.Book, []entity.Note) {
	created := time.Date(2024, 5, 17, 9, 30, 15, 123456789, time.UTC)
	book := entity.Book{ID: uuid.New(), Author: "Borges", Title: "Ficciones", Year: "1944", DateCreated: created}
	page := "42"
	notes := []entity.Note{
		{ID: uuid.New(), BookID: book.ID, ExtractedText: "the garden\n\nof forking paths", Title: "Garden", PageNumber: &page, DateCreated: created.Add(time.Second)},
		{ID: uuid.New(), BookID: book.ID, ExtractedText: "Tlön", Title: "Note 5/17/24, 9:30 AM", DateCreated: created.Add(-time.Nanosecond)},
	}
	return []entity.Book{book}, notes
}

func TestCodecs_RoundTrip(t *testing.T) {
	for _, name := range []string{common.CodecJSON, common.CodecProto} {
		t.Run(name, func(t *testing.T) {
			codec, err := NewCodec(name)
			require.NoError(t, err)
			assert.Equal(t, name, codec.Name())

			books, notes := sampleCollections()

			bb, err := codec.EncodeBooks(books)
			require.NoError(t, err)
			gotBooks, err := codec.DecodeBooks(bb)
			require.NoError(t, err)
			require.Len(t, gotBooks, 1)
			assert.Equal(t, books[0].ID, gotBooks[0].ID)
			assert.Equal(t, books[0].Year, gotBooks[0].Year)
			assert.True(t, books[0].DateCreated.Equal(gotBooks[0].DateCreated))

			nb, err := codec.EncodeNotes(notes)
			require.NoError(t, err)
			gotNotes, err := codec.DecodeNotes(nb)
			require.NoError(t, err)
			require.Len(t, gotNotes, 2)

			assert.Equal(t, "42", gotNotes[0].Page())
			assert.Nil(t, gotNotes[1].PageNumber)
			assert.Equal(t, notes[0].ExtractedText, gotNotes[0].ExtractedText)
			assert.Equal(t, notes[1].BookID, gotNotes[1].BookID)
			for i := range notes {
				assert.True(t, notes[i].DateCreated.Equal(gotNotes[i].DateCreated))
			}
			assert.True(t, gotNotes[0].DateCreated.After(gotNotes[1].DateCreated))
		})
	}
}

func TestCodecs_EmptyCollections(t *testing.T) {
	for _, name := range []string{common.CodecJSON, common.CodecProto} {
		t.Run(name, func(t *testing.T) {
			codec, err := NewCodec(name)
			require.NoError(t, err)

			data, err := codec.EncodeBooks(nil)
			require.NoError(t, err)
			books, err := codec.DecodeBooks(data)
			require.NoError(t, err)
			assert.NotNil(t, books)
			assert.Empty(t, books)
		})
	}
}

func TestJSONCodec_EncodesEmptyAsArray(t *testing.T) {
	data, err := NewJSONCodec().EncodeNotes(nil)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(data))
}

func TestJSONCodec_RejectsSchemaViolations(t *testing.T) {
	codec := NewJSONCodec()
	tests := map[string]string{
		"not an array":   `{"id":"x"}`,
		"bad uuid":       `[{"id":"nope","author":"a","title":"t","year":"y","date_created":"2024-01-01T00:00:00Z"}]`,
		"missing author": `[{"id":"7d444840-9dc0-11d1-b245-5ffdce74fad2","title":"t","year":"y","date_created":"2024-01-01T00:00:00Z"}]`,
		"bad timestamp":  `[{"id":"7d444840-9dc0-11d1-b245-5ffdce74fad2","author":"a","title":"t","year":"y","date_created":"yesterday"}]`,
		"not json":       `[{`,
	}
	for name, input := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := codec.DecodeBooks([]byte(input))
			assert.Error(t, err)
		})
	}
}

func TestProtoCodec_RejectsTruncatedInput(t *testing.T) {
	books, _ := sampleCollections()
	data, err := ProtoCodec{}.EncodeBooks(books)
	require.NoError(t, err)

	_, err = ProtoCodec{}.DecodeBooks(data[:len(data)-3])
	assert.Error(t, err)
}

func TestNewCodec_Unknown(t *testing.T) {
	_, err := NewCodec("yaml")
	assert.ErrorIs(t, err, common.ErrInvalidInput)
}
