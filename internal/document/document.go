// Package document reads and writes the persisted abilities document.
package document

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/tidwall/gjson"

	"github.com/cory-johannsen/abilitygen/internal/ability"
)

// DefaultVersion is the document format version.
const DefaultVersion = "1.0.0"

// DefaultPath is where the document lives relative to the project root.
const DefaultPath = "assets/pokemon/abilities.json"

// ErrMissingDocument is returned when the prior document does not exist.
var ErrMissingDocument = errors.New("prior document not found")

// ErrMalformedDocument is returned when the prior document cannot seed
// effect text.
var ErrMalformedDocument = errors.New("malformed prior document")

// Document is the persisted abilities file.
type Document struct {
	Version   string            `json:"version" jsonschema:"title=Document version"`
	Total     int               `json:"total" jsonschema:"title=Record count,minimum=0"`
	Abilities []ability.Ability `json:"abilities" jsonschema:"title=Abilities ascending by id"`
}

// NewDocument wraps records in a Document, filling Total.
//
// Postcondition: Total == len(Abilities) and Abilities is never nil.
func NewDocument(version string, records []ability.Ability) Document {
	if records == nil {
		records = []ability.Ability{}
	}
	return Document{Version: version, Total: len(records), Abilities: records}
}

// Encode writes doc as two-space indented JSON with non-ASCII and HTML
// characters kept literal, followed by a newline.
func Encode(w io.Writer, doc Document) error {
	if doc.Abilities == nil {
		doc.Abilities = []ability.Ability{}
	}
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encoding document: %w", err)
	}
	return nil
}

// Write encodes doc and replaces the file at path.
//
// Postcondition: on error the file at path is unchanged.
func Write(path string, doc Document) error {
	var buf bytes.Buffer
	if err := Encode(&buf, doc); err != nil {
		return err
	}
	return WriteAtomic(path, buf.Bytes())
}

// WriteAtomic writes data to path+".tmp" and renames it over path, creating
// the parent directory when needed.
func WriteAtomic(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating directory %s: %w", dir, err)
		}
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("replacing %s: %w", path, err)
	}
	return nil
}

// Read decodes the full document at path.
//
// Postcondition: the returned Document has Total == len(Abilities).
func Read(path string) (Document, error) {
	data, err := readFile(path)
	if err != nil {
		return Document{}, err
	}
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return Document{}, fmt.Errorf("decoding %s: %w", path, err)
	}
	if doc.Total != len(doc.Abilities) {
		return Document{}, fmt.Errorf("%s: total %d does not match %d abilities", path, doc.Total, len(doc.Abilities))
	}
	return doc, nil
}

// LoadEffects returns id -> effect text from the document at path. The
// document must carry an abilities array whose entries each have a positive
// integer id and a string effect.
//
// Postcondition: returns ErrMissingDocument when path does not exist, and
// ErrMalformedDocument when the layout above is violated.
func LoadEffects(path string) (map[int]string, error) {
	data, err := readFile(path)
	if err != nil {
		return nil, err
	}
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("%w: %s: not valid JSON", ErrMalformedDocument, path)
	}
	root := gjson.ParseBytes(data)
	if !root.IsObject() {
		return nil, fmt.Errorf("%w: %s: document is not an object", ErrMalformedDocument, path)
	}
	abilities := root.Get("abilities")
	if !abilities.IsArray() {
		return nil, fmt.Errorf("%w: %s: abilities is missing or not an array", ErrMalformedDocument, path)
	}

	effects := make(map[int]string)

	var entryErr error
	abilities.ForEach(func(key, entry gjson.Result) bool {
		id := entry.Get("id")
		if id.Type != gjson.Number || id.Int() <= 0 || float64(id.Int()) != id.Num {
			entryErr = fmt.Errorf("%w: %s: abilities[%d]: id is not a positive integer", ErrMalformedDocument, path, key.Int())
			return false
		}
		effect := entry.Get("effect")
		if effect.Type != gjson.String {
			entryErr = fmt.Errorf("%w: %s: abilities[%d]: effect is missing or not a string", ErrMalformedDocument, path, key.Int())
			return false
		}
		effects[int(id.Int())] = effect.Str
		return true
	})
	if entryErr != nil {
		return nil, entryErr
	}
	return effects, nil
}

func readFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrMissingDocument, path)
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return data, nil
}
