package repository

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"google.golang.org/protobuf/encoding/protowire"

	"github.com/joseph-ayodele/booknotes/internal/common"
	"github.com/joseph-ayodele/booknotes/internal/entity"
)

// ProtoCodec writes collections in protobuf wire format:
//
//	collection { repeated record = 1; }
//	book { bytes id = 1; string author = 2; string title = 3; string year = 4; sint64 date_created = 5; }
//	note { bytes id = 1; bytes book_id = 2; string extracted_text = 3; string title = 4;
//	       optional string page_number = 5; sint64 date_created = 6; }
//
// Timestamps are unix nanoseconds.
type ProtoCodec struct{}

const fieldRecord protowire.Number = 1

func (ProtoCodec) Name() string { return common.CodecProto }

func (ProtoCodec) EncodeBooks(books []entity.Book) ([]byte, error) {
	var out []byte
	for _, b := range books {
		var rec []byte
		rec = appendUUID(rec, 1, b.ID)
		rec = appendString(rec, 2, b.Author)
		rec = appendString(rec, 3, b.Title)
		rec = appendString(rec, 4, b.Year)
		rec = appendTime(rec, 5, b.DateCreated)
		out = protowire.AppendTag(out, fieldRecord, protowire.BytesType)
		out = protowire.AppendBytes(out, rec)
	}
	return out, nil
}

func (ProtoCodec) EncodeNotes(notes []entity.Note) ([]byte, error) {
	var out []byte
	for _, n := range notes {
		var rec []byte
		rec = appendUUID(rec, 1, n.ID)
		rec = appendUUID(rec, 2, n.BookID)
		rec = appendString(rec, 3, n.ExtractedText)
		rec = appendString(rec, 4, n.Title)
		if n.PageNumber != nil {
			rec = appendString(rec, 5, *n.PageNumber)
		}
		rec = appendTime(rec, 6, n.DateCreated)
		out = protowire.AppendTag(out, fieldRecord, protowire.BytesType)
		out = protowire.AppendBytes(out, rec)
	}
	return out, nil
}

func (ProtoCodec) DecodeBooks(data []byte) ([]entity.Book, error) {
	books := []entity.Book{}
	err := eachRecord(data, func(rec []byte) error {
		var b entity.Book
		err := eachField(rec, func(num protowire.Number, typ protowire.Type, v fieldValue) error {
			var err error
			switch num {
			case 1:
				b.ID, err = v.uuid(typ)
			case 2:
				b.Author, err = v.str(typ)
			case 3:
				b.Title, err = v.str(typ)
			case 4:
				b.Year, err = v.str(typ)
			case 5:
				b.DateCreated, err = v.time(typ)
			}
			return err
		})
		if err != nil {
			return err
		}
		books = append(books, b)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("decode books: %w", err)
	}
	return books, nil
}

func (ProtoCodec) DecodeNotes(data []byte) ([]entity.Note, error) {
	notes := []entity.Note{}
	err := eachRecord(data, func(rec []byte) error {
		var n entity.Note
		err := eachField(rec, func(num protowire.Number, typ protowire.Type, v fieldValue) error {
			var err error
			switch num {
			case 1:
				n.ID, err = v.uuid(typ)
			case 2:
				n.BookID, err = v.uuid(typ)
			case 3:
				n.ExtractedText, err = v.str(typ)
			case 4:
				n.Title, err = v.str(typ)
			case 5:
				var p string
				if p, err = v.str(typ); err == nil {
					n.PageNumber = &p
				}
			case 6:
				n.DateCreated, err = v.time(typ)
			}
			return err
		})
		if err != nil {
			return err
		}
		notes = append(notes, n)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("decode notes: %w", err)
	}
	return notes, nil
}

func appendUUID(b []byte, num protowire.Number, id uuid.UUID) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, id[:])
}

func appendString(b []byte, num protowire.Number, s string) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendString(b, s)
}

func appendTime(b []byte, num protowire.Number, t time.Time) []byte {
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, protowire.EncodeZigZag(t.UnixNano()))
}

func eachRecord(data []byte, fn func(rec []byte) error) error {
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return protowire.ParseError(n)
		}
		data = data[n:]
		if num != fieldRecord || typ != protowire.BytesType {
			n = protowire.ConsumeFieldValue(num, typ, data)
			if n < 0 {
				return protowire.ParseError(n)
			}
			data = data[n:]
			continue
		}
		rec, n := protowire.ConsumeBytes(data)
		if n < 0 {
			return protowire.ParseError(n)
		}
		data = data[n:]
		if err := fn(rec); err != nil {
			return err
		}
	}
	return nil
}

// fieldValue is the undecoded remainder of a record positioned at a field's value.
type fieldValue struct {
	buf []byte
}

func eachField(rec []byte, fn func(num protowire.Number, typ protowire.Type, v fieldValue) error) error {
	for len(rec) > 0 {
		num, typ, n := protowire.ConsumeTag(rec)
		if n < 0 {
			return protowire.ParseError(n)
		}
		rec = rec[n:]
		n = protowire.ConsumeFieldValue(num, typ, rec)
		if n < 0 {
			return protowire.ParseError(n)
		}
		if err := fn(num, typ, fieldValue{buf: rec[:n]}); err != nil {
			return fmt.Errorf("field %d: %w", num, err)
		}
		rec = rec[n:]
	}
	return nil
}

func (v fieldValue) bytes(typ protowire.Type) ([]byte, error) {
	if typ != protowire.BytesType {
		return nil, fmt.Errorf("unexpected wire type %d", typ)
	}
	b, n := protowire.ConsumeBytes(v.buf)
	if n < 0 {
		return nil, protowire.ParseError(n)
	}
	return b, nil
}

func (v fieldValue) str(typ protowire.Type) (string, error) {
	b, err := v.bytes(typ)
	return string(b), err
}

func (v fieldValue) uuid(typ protowire.Type) (uuid.UUID, error) {
	b, err := v.bytes(typ)
	if err != nil {
		return uuid.Nil, err
	}
	return uuid.FromBytes(b)
}

func (v fieldValue) time(typ protowire.Type) (time.Time, error) {
	if typ != protowire.VarintType {
		return time.Time{}, fmt.Errorf("unexpected wire type %d", typ)
	}
	x, n := protowire.ConsumeVarint(v.buf)
	if n < 0 {
		return time.Time{}, protowire.ParseError(n)
	}
	return time.Unix(0, protowire.DecodeZigZag(x)), nil
}
