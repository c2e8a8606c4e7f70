package episodes

import (
	"sort"
	"strings"

	"github.com/sahilm/fuzzy"
)

const (
	idPrefix     = "Episode"
	untitledName = "Untitled Episode"
)

// Directory holds episode metadata by canonical id. It is filled once by Load
// and only read afterwards.
type Directory struct {
	byID map[string]Episode
}

func NewDirectory() *Directory {
	return &Directory{byID: make(map[string]Episode)}
}

// NormalizeID trims raw and prefixes it with "Episode" unless it already has
// that prefix, so "5" and "Episode5" both become "Episode5".
func NormalizeID(raw string) string {
	id := strings.TrimSpace(raw)
	if strings.HasPrefix(id, idPrefix) {
		return id
	}
	return idPrefix + id
}

// Load stores every raw entry under its canonical id. Later duplicates replace
// earlier ones.
func (d *Directory) Load(raw []Raw) {
	for _, r := range raw {
		ep := Episode{
			ID:    NormalizeID(string(r.ID)),
			URL:   string(r.URL),
			Title: string(r.Title),
		}
		if ep.Title == "" {
			ep.Title = untitledName
		}
		d.byID[ep.ID] = ep
	}
}

// Lookup returns the episode stored under a canonical id.
func (d *Directory) Lookup(id string) (Episode, bool) {
	ep, ok := d.byID[id]
	return ep, ok
}

func (d *Directory) Len() int {
	return len(d.byID)
}

// All returns every episode ordered by canonical id.
func (d *Directory) All() []Episode {
	all := make([]Episode, 0, len(d.byID))
	for _, ep := range d.byID {
		all = append(all, ep)
	}
	sort.Slice(all, func(i, j int) bool {
		return all[i].ID < all[j].ID
	})
	return all
}

// titleSource adapts a slice of episodes to fuzzy.Source.
type titleSource []Episode

func (s titleSource) String(i int) string { return s[i].Title }
func (s titleSource) Len() int            { return len(s) }

// Find returns episodes whose title fuzzily matches pattern, best match first.
// An empty pattern returns All.
func (d *Directory) Find(pattern string) []Episode {
	all := d.All()
	pattern = strings.TrimSpace(pattern)
	if pattern == "" {
		return all
	}

	matches := fuzzy.FindFrom(pattern, titleSource(all))
	found := make([]Episode, 0, len(matches))
	for _, m := range matches {
		found = append(found, all[m.Index])
	}
	return found
}
