package ability

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"
)

// Catalog looks up the curated trigger descriptor for an ability id.
// A missing entry is normal: the catalog covers a curated subset.
type Catalog interface {
	Lookup(id int) (Descriptor, bool)
}

// Registry is an in-memory Catalog keyed by ability id.
type Registry struct {
	version string
	entries map[int]Descriptor
}

// NewRegistry creates an empty Registry tagged with version.
func NewRegistry(version string) *Registry {
	return &Registry{version: version, entries: make(map[int]Descriptor)}
}

// Register sets the descriptor for id, replacing any existing entry.
// Precondition: id > 0 and d != nil.
func (r *Registry) Register(id int, d Descriptor) {
	r.entries[id] = d
}

// Lookup implements Catalog.
func (r *Registry) Lookup(id int) (Descriptor, bool) {
	d, ok := r.entries[id]
	return d, ok
}

// Len returns the number of curated entries.
func (r *Registry) Len() int { return len(r.entries) }

// Version returns the catalog version.
func (r *Registry) Version() string { return r.version }

// IDs returns every curated id in ascending order.
func (r *Registry) IDs() []int {
	ids := make([]int, 0, len(r.entries))
	for id := range r.entries {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// Clone returns an independent copy of r.
func (r *Registry) Clone() *Registry {
	out := NewRegistry(r.version)
	for id, d := range r.entries {
		out.entries[id] = d
	}
	return out
}

// Overlay returns a new Registry holding base's entries with extra's entries
// replacing them by id.
func Overlay(base, extra *Registry) *Registry {
	out := base.Clone()
	if extra.version != "" {
		out.version = base.version + "+" + extra.version
	}
	for id, d := range extra.entries {
		out.entries[id] = d
	}
	return out
}

//go:embed catalog.yaml
var embeddedCatalog []byte

// defaultCatalog is loaded on first use so the validation tables in
// trigger.go are initialized before any entry is checked.
var defaultCatalog = sync.OnceValue(mustLoadEmbedded)

func mustLoadEmbedded() *Registry {
	reg, err := LoadCatalog(bytes.NewReader(embeddedCatalog))
	if err != nil {
		panic(fmt.Sprintf("embedded ability catalog: %v", err))
	}
	return reg
}

// DefaultCatalog returns a copy of the curated catalog compiled into the
// binary.
func DefaultCatalog() *Registry {
	return defaultCatalog().Clone()
}

// catalogFile is the on-disk catalog layout. Each entry is a mapping with
// an id, a trigger, and the trigger's attributes.
type catalogFile struct {
	Version   string      `yaml:"version"`
	Abilities []yaml.Node `yaml:"abilities"`
}

// LoadCatalogFile parses the catalog at path.
//
// Precondition: path must name a readable YAML file.
// Postcondition: Returns a populated Registry, or an error naming the first
// invalid entry.
func LoadCatalogFile(path string) (*Registry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening catalog %q: %w", path, err)
	}
	defer f.Close()

	reg, err := LoadCatalog(f)
	if err != nil {
		return nil, fmt.Errorf("catalog %q: %w", path, err)
	}
	return reg, nil
}

// LoadCatalog parses a YAML catalog. Unknown top-level keys, unknown
// triggers, attributes foreign to an entry's trigger, invalid values and
// duplicate ids are all errors.
func LoadCatalog(r io.Reader) (*Registry, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var file catalogFile
	if err := dec.Decode(&file); err != nil {
		if errors.Is(err, io.EOF) {
			return NewRegistry(""), nil
		}
		return nil, fmt.Errorf("parsing catalog: %w", err)
	}

	reg := NewRegistry(file.Version)
	for i := range file.Abilities {
		id, d, err := decodeEntry(&file.Abilities[i])
		if err != nil {
			return nil, fmt.Errorf("entry %d (line %d): %w", i, file.Abilities[i].Line, err)
		}
		if _, dup := reg.entries[id]; dup {
			return nil, fmt.Errorf("entry %d (line %d): duplicate id %d", i, file.Abilities[i].Line, id)
		}
		reg.Register(id, d)
	}
	return reg, nil
}

// decodeEntry splits id and trigger off the entry mapping and strictly
// decodes the remaining keys into the trigger's variant.
func decodeEntry(node *yaml.Node) (int, Descriptor, error) {
	if node.Kind != yaml.MappingNode {
		return 0, nil, fmt.Errorf("entry must be a mapping")
	}

	var (
		id      int
		kind    Kind
		hasID   bool
		hasKind bool
	)
	rest := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, value := node.Content[i], node.Content[i+1]
		switch key.Value {
		case "id":
			if err := value.Decode(&id); err != nil {
				return 0, nil, fmt.Errorf("id: %w", err)
			}
			hasID = true
		case "trigger":
			if err := value.Decode(&kind); err != nil {
				return 0, nil, fmt.Errorf("trigger: %w", err)
			}
			hasKind = true
		default:
			rest.Content = append(rest.Content, key, value)
		}
	}
	if !hasID || id <= 0 {
		return 0, nil, fmt.Errorf("entry requires a positive id")
	}
	if !hasKind {
		return id, nil, fmt.Errorf("ability %d: %w: missing trigger", id, ErrInvalidDescriptor)
	}

	body, err := yaml.Marshal(rest)
	if err != nil {
		return id, nil, fmt.Errorf("ability %d: %w", id, err)
	}
	d, err := decodeDescriptor(kind, func(v any) error {
		dec := yaml.NewDecoder(bytes.NewReader(body))
		dec.KnownFields(true)
		return dec.Decode(v)
	})
	if err != nil {
		return id, nil, fmt.Errorf("ability %d: %w", id, err)
	}
	return id, d, nil
}
