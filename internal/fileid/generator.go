package fileid

import (
	"path/filepath"
	"sort"
)

// Generator assigns sequential IDs to resolved paths, starting at its base (0 by default).
// The mapping lives only as long as the Generator; use Seed or WithKnown to continue
// from assignments made by an earlier process.
type Generator struct {
	ids  map[string]int
	next int
}

// Option configures a Generator.
type Option func(*Generator)

// WithBase sets the first ID handed out. It never goes below an ID already known.
func WithBase(base int) Option {
	return func(g *Generator) {
		g.next = base
		for _, id := range g.ids {
			if id >= g.next {
				g.next = id + 1
			}
		}
	}
}

// WithKnown seeds the generator with earlier assignments. See Seed.
func WithKnown(known map[string]int) Option {
	return func(g *Generator) { g.Seed(known) }
}

// Seeder is implemented by assigners that can take over earlier assignments.
type Seeder interface {
	Seed(known map[string]int)
}

// Seed records known path to ID assignments. Known paths keep their IDs and new
// paths are numbered above the highest known ID.
func (g *Generator) Seed(known map[string]int) {
	for path, id := range known {
		g.ids[filepath.Clean(path)] = id
		if id >= g.next {
			g.next = id + 1
		}
	}
}

// NewGenerator returns an empty Generator.
func NewGenerator(opts ...Option) *Generator {
	g := &Generator{ids: make(map[string]int)}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// IDFromPath returns the ID for p, assigning the next unused one on first sight.
// Two expressions that resolve to the same file share an ID. Hard links resolve to
// distinct paths and get distinct IDs; the content strategy merges them.
func (g *Generator) IDFromPath(p Path) (int, error) {
	resolved, err := resolve(p)
	if err != nil {
		return 0, err
	}
	if id, ok := g.ids[resolved]; ok {
		return id, nil
	}
	id := g.next
	g.ids[resolved] = id
	g.next++
	return id, nil
}

// Len returns the number of paths assigned so far.
func (g *Generator) Len() int {
	return len(g.ids)
}

// Records returns every assignment ordered by ID.
func (g *Generator) Records() []FileRecord {
	return sortedRecords(g.ids)
}

func sortedRecords(ids map[string]int) []FileRecord {
	out := make([]FileRecord, 0, len(ids))
	for path, id := range ids {
		out = append(out, FileRecord{Path: path, ID: id})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ID != out[j].ID {
			return out[i].ID < out[j].ID
		}
		return out[i].Path < out[j].Path
	})
	return out
}
