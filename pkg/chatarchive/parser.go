package chatarchive

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"time"
)

// Conversation is one normalized row derived from a raw archive record.
// Missing or malformed string fields are "", a missing or unparseable
// create_time is nil. Rows are immutable once produced.
type Conversation struct {
	ConversationID string     `json:"conversation_id"`
	Title          string     `json:"title"`
	CreateTime     *time.Time `json:"create_time"`
	ModelSlug      string     `json:"model_slug"`
	HasVoice       bool       `json:"has_voice"`
	MessageCount   int        `json:"message_count"`
}

// Record is one raw entry from the archive's top-level sequence. Every field
// is untyped so a single bad field can never fail the record: normalization
// downgrades whatever doesn't fit to null/zero instead.
type Record struct {
	ConversationID any `json:"conversation_id"`
	Title          any `json:"title"`
	CreateTime     any `json:"create_time"`
	ModelSlug      any `json:"default_model_slug"`
	Voice          any `json:"voice"`
	Mapping        any `json:"mapping"`
}

// ParseError indicates the archive itself could not be processed (the top
// level was not a sequence of record-like objects). Individual field problems
// are never a ParseError.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("cannot process archive %s: %v", e.Path, e.Err)
	}
	return fmt.Sprintf("cannot process archive: %v", e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Normalize converts raw records to rows. Pure: output order matches input
// order and output length equals input length, whatever the records contain.
func Normalize(records []Record) []Conversation {
	rows := make([]Conversation, len(records))
	for i, rec := range records {
		rows[i] = normalizeRecord(rec)
	}
	return rows
}

func normalizeRecord(rec Record) Conversation {
	return Conversation{
		ConversationID: stringField(rec.ConversationID),
		Title:          stringField(rec.Title),
		CreateTime:     epochTime(rec.CreateTime),
		ModelSlug:      stringField(rec.ModelSlug),
		HasVoice:       rec.Voice != nil,
		MessageCount:   mappingCount(rec.Mapping),
	}
}

func stringField(v any) string {
	s, _ := v.(string)
	return s
}

// epochTime converts Unix epoch seconds (fractional allowed) to a UTC
// timestamp. Anything non-numeric, NaN, or infinite becomes nil.
func epochTime(v any) *time.Time {
	var f float64
	switch n := v.(type) {
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return nil
		}
		f = parsed
	case float64:
		f = n
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	default:
		return nil
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	sec, frac := math.Modf(f)
	t := time.Unix(int64(sec), int64(frac*1e9)).UTC()
	return &t
}

func mappingCount(v any) int {
	m, ok := v.(map[string]any)
	if !ok {
		return 0
	}
	return len(m)
}

// Parse reads an exported conversations archive and returns normalized rows.
//
// The input is expected to be either:
//   - a top-level JSON array: [ { ...record... }, ... ]
//   - a top-level JSON object containing the record array
//     (e.g. { "conversations": [ ... ] })
//
// It streams the document and never holds the raw form in memory. Any other
// top-level shape is a *ParseError.
func Parse(r io.Reader) ([]Conversation, error) {
	// Exports are typically one huge line; use a larger buffer than default.
	dec := json.NewDecoder(bufio.NewReaderSize(r, 1<<20))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return nil, &ParseError{Err: fmt.Errorf("read first token: %w", err)}
	}

	delim, ok := tok.(json.Delim)
	if !ok {
		return nil, &ParseError{Err: fmt.Errorf("expected JSON array or object, got %T", tok)}
	}

	switch delim {
	case '[':
		rows, err := decodeRecords(dec)
		if err != nil {
			return nil, err
		}
		// Consume the closing ']'.
		if tok, err := dec.Token(); err != nil {
			return nil, &ParseError{Err: fmt.Errorf("read closing array token: %w", err)}
		} else if d, ok := tok.(json.Delim); !ok || d != ']' {
			return nil, &ParseError{Err: fmt.Errorf("expected closing ']', got %v", tok)}
		}
		return rows, nil
	case '{':
		// Some exports wrap the records in an object; scan for the first
		// array-valued field and treat it as the record sequence.
		for dec.More() {
			keyTok, err := dec.Token()
			if err != nil {
				return nil, &ParseError{Err: fmt.Errorf("read object key: %w", err)}
			}
			key, ok := keyTok.(string)
			if !ok {
				return nil, &ParseError{Err: fmt.Errorf("expected string key, got %T", keyTok)}
			}

			valTok, err := dec.Token()
			if err != nil {
				return nil, &ParseError{Err: fmt.Errorf("read value for key %q: %w", key, err)}
			}

			if d, ok := valTok.(json.Delim); ok && d == '[' {
				rows, err := decodeRecords(dec)
				if err != nil {
					return nil, err
				}
				// Consume the closing ']'; the remaining wrapper fields
				// carry nothing we need.
				if tok, err := dec.Token(); err != nil {
					return nil, &ParseError{Err: fmt.Errorf("read closing array token: %w", err)}
				} else if d, ok := tok.(json.Delim); !ok || d != ']' {
					return nil, &ParseError{Err: fmt.Errorf("expected closing ']', got %v", tok)}
				}
				return rows, nil
			}

			if err := skipValue(dec, valTok); err != nil {
				return nil, &ParseError{Err: fmt.Errorf("skip key %q value: %w", key, err)}
			}
		}
		return nil, &ParseError{Err: errors.New("no record array found in top-level object")}
	default:
		return nil, &ParseError{Err: fmt.Errorf("unsupported top-level delimiter %q", delim)}
	}
}

// ParseFile parses an archive from disk, attaching the path to any
// *ParseError it returns.
func ParseFile(path string) (rows []Conversation, err error) {
	f, ferr := os.Open(path)
	if ferr != nil {
		return nil, fmt.Errorf("failed to open archive: %w", ferr)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close archive: %w", cerr)
		}
	}()

	rows, err = Parse(f)
	if err != nil {
		var perr *ParseError
		if errors.As(err, &perr) {
			perr.Path = path
		}
		return nil, err
	}
	return rows, nil
}

func decodeRecords(dec *json.Decoder) ([]Conversation, error) {
	rows := make([]Conversation, 0, 256)
	for dec.More() {
		var rec Record
		if err := dec.Decode(&rec); err != nil {
			return nil, &ParseError{Err: fmt.Errorf("decode record %d: %w", len(rows), err)}
		}
		rows = append(rows, normalizeRecord(rec))
	}
	return rows, nil
}

// skipValue consumes the remainder of a value whose first token has already
// been read.
func skipValue(dec *json.Decoder, first json.Token) error {
	d, ok := first.(json.Delim)
	if !ok {
		// Primitive: already fully consumed.
		return nil
	}

	switch d {
	case '{', '[':
	default:
		return fmt.Errorf("unexpected delimiter %q", d)
	}

	depth := 1
	for depth > 0 {
		tok, err := dec.Token()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return io.ErrUnexpectedEOF
			}
			return err
		}
		if dd, ok := tok.(json.Delim); ok {
			switch dd {
			case '{', '[':
				depth++
			case '}', ']':
				depth--
			}
		}
	}
	return nil
}
