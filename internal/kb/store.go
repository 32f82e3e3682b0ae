package kb

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"conduit/internal/connector"
)

// Store is a process-local, mutex-guarded KB atom store implementing the KB
// connector contract from §6. It holds the system's only KB implementation
// in this module; a production deployment would put a real database behind
// the same interface (see DESIGN.md for why no database driver from the
// pack was wired here).
type Store struct {
	mu       sync.RWMutex
	atoms    map[string]*Atom
	byCode   map[string][]string // fault code -> atom ids
	byVendor map[string][]string // vendor|partNumber -> atom ids
	connected bool
}

// NewStore constructs an empty KB store.
func NewStore() *Store {
	return &Store{
		atoms:    map[string]*Atom{},
		byCode:   map[string][]string{},
		byVendor: map[string][]string{},
	}
}

func (s *Store) Name() string { return "kb" }

func (s *Store) Connect(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.connected = true
	return nil
}

func (s *Store) Disconnect(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.connected = false
	return nil
}

func (s *Store) HealthCheck(ctx context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.connected {
		return &connector.Unavailable{Connector: "kb", Reason: "not connected"}
	}
	return nil
}

// Seed inserts an atom directly, bypassing provenance bookkeeping; used at
// startup to load a static KB snapshot and by tests.
func (s *Store) Seed(a *Atom) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	s.atoms[a.ID] = a
	s.indexLocked(a)
}

func (s *Store) indexLocked(a *Atom) {
	if a.Type == TypeFaultCode || a.Type == TypeFault {
		for _, kw := range keysOf(a.Keywords) {
			up := strings.ToUpper(kw)
			s.byCode[up] = appendUnique(s.byCode[up], a.ID)
		}
	}
	if a.Vendor != "" && a.PartNumber != "" {
		key := strings.ToLower(a.Vendor) + "|" + strings.ToLower(a.PartNumber)
		s.byVendor[key] = appendUnique(s.byVendor[key], a.ID)
	}
}

func keysOf(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}

func appendUnique(ids []string, id string) []string {
	for _, existing := range ids {
		if existing == id {
			return ids
		}
	}
	return append(ids, id)
}

// SearchByFaultCode returns atoms indexed under the given fault code, e.g.
// "E001".
func (s *Store) SearchByFaultCode(ctx context.Context, code string, limit int) ([]*Atom, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := s.byCode[strings.ToUpper(code)]
	return s.collect(ids, limit, 1.0), nil
}

// Search runs a full-text fallback search over title/summary/content/keywords
// using bespoke token-overlap scoring (no suitable fuzzy-match library was
// wired in; see DESIGN.md).
func (s *Store) Search(ctx context.Context, query string, limit int) ([]*Atom, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	terms := tokenize(query)
	if len(terms) == 0 {
		return nil, nil
	}
	type scored struct {
		atom  *Atom
		score float64
	}
	var results []scored
	for _, a := range s.atoms {
		score := scoreAtom(a, terms)
		if score > 0 {
			results = append(results, scored{a, score})
		}
	}
	sort.Slice(results, func(i, j int) bool { return results[i].score > results[j].score })
	out := make([]*Atom, 0, limit)
	for _, r := range results {
		if len(out) >= limit && limit > 0 {
			break
		}
		cp := *r.atom
		cp.Score = r.score
		out = append(out, &cp)
	}
	return out, nil
}

// SearchBySymptoms is an alias for Search used by DIAGNOSE's fallback path
// when direct fault-code lookup misses.
func (s *Store) SearchBySymptoms(ctx context.Context, text string, limit int) ([]*Atom, error) {
	return s.Search(ctx, text, limit)
}

// GetByType returns up to limit atoms of the given type.
func (s *Store) GetByType(ctx context.Context, t AtomType, limit int) ([]*Atom, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*Atom
	for _, a := range s.atoms {
		if a.Type == t {
			cp := *a
			out = append(out, &cp)
			if limit > 0 && len(out) >= limit {
				break
			}
		}
	}
	return out, nil
}

// FindByPart looks up an exact vendor+part-number match for the enrichment
// pipeline's Augment stage.
func (s *Store) FindByPart(ctx context.Context, vendor, partNumber string) (*Atom, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	key := strings.ToLower(vendor) + "|" + strings.ToLower(partNumber)
	ids := s.byVendor[key]
	if len(ids) == 0 {
		return nil, nil
	}
	a := s.atoms[ids[0]]
	if a == nil {
		return nil, nil
	}
	cp := *a
	return &cp, nil
}

// InsertAtom adds a new atom and returns its assigned id.
func (s *Store) InsertAtom(ctx context.Context, a *Atom) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	s.atoms[a.ID] = a
	s.indexLocked(a)
	return a.ID, nil
}

// UpdateAtom merges fields into an existing atom, appends a provenance
// entry, and sets needsReview if requested by the caller (conflict
// detected during synthesis). Returns a plain error if the atom id is
// unknown; the enrichment pipeline reports that error in its Result and
// does not insert a new atom.
func (s *Store) UpdateAtom(ctx context.Context, id string, fields map[string]any, prov Provenance, conflict bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.atoms[id]
	if !ok {
		return fmt.Errorf("kb: unknown atom id %q", id)
	}
	applyFields(a, fields)
	a.Provenance = append(a.Provenance, prov)
	if conflict {
		a.NeedsReview = true
	}
	return nil
}

func applyFields(a *Atom, fields map[string]any) {
	if v, ok := fields["title"].(string); ok && v != "" {
		a.Title = v
	}
	if v, ok := fields["summary"].(string); ok && v != "" {
		a.Summary = v
	}
	if v, ok := fields["content"].(string); ok && v != "" {
		a.Content = v
	}
	if v, ok := fields["wiring_model"].(map[string]any); ok && v != nil {
		a.WiringModel = v
	}
	if v, ok := fields["manual_refs"].([]string); ok {
		a.ManualRefs = mergeUnique(a.ManualRefs, v)
	}
	if v, ok := fields["keywords"].(map[string]struct{}); ok {
		if a.Keywords == nil {
			a.Keywords = map[string]struct{}{}
		}
		for k := range v {
			a.Keywords[k] = struct{}{}
		}
	}
}

func mergeUnique(existing, add []string) []string {
	seen := map[string]struct{}{}
	for _, e := range existing {
		seen[e] = struct{}{}
	}
	out := append([]string{}, existing...)
	for _, a := range add {
		if _, ok := seen[a]; !ok {
			out = append(out, a)
			seen[a] = struct{}{}
		}
	}
	return out
}

func (s *Store) collect(ids []string, limit int, score float64) []*Atom {
	out := make([]*Atom, 0, len(ids))
	for _, id := range ids {
		if a, ok := s.atoms[id]; ok {
			cp := *a
			cp.Score = score
			out = append(out, &cp)
			if limit > 0 && len(out) >= limit {
				break
			}
		}
	}
	return out
}

func tokenize(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9')
	})
	return fields
}

func scoreAtom(a *Atom, terms []string) float64 {
	haystack := strings.ToLower(a.Title + " " + a.Summary + " " + a.Content)
	for kw := range a.Keywords {
		haystack += " " + strings.ToLower(kw)
	}
	hits := 0
	for _, term := range terms {
		if strings.Contains(haystack, term) {
			hits++
		}
	}
	if hits == 0 {
		return 0
	}
	return float64(hits) / float64(len(terms))
}
