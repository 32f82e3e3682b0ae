// Package kb implements the knowledge-base connector: atom storage, search
// (exact and full-text fallback), and the four-stage photo-enrichment
// pipeline.
package kb

import "time"

// AtomType is the closed tag set for a KBAtom's kind.
type AtomType string

const (
	TypeSpec           AtomType = "spec"
	TypeFault          AtomType = "fault"
	TypePattern        AtomType = "pattern"
	TypeConcept        AtomType = "concept"
	TypeProcedure      AtomType = "procedure"
	TypeChecklist      AtomType = "checklist"
	TypeTroubleshooting AtomType = "troubleshooting"
	TypeFaultCode      AtomType = "fault_code"
)

// Provenance records one contribution to an atom's content.
type Provenance struct {
	Source  string
	PhotoID string
	At      time.Time
}

// Atom is a unit of knowledge stored in the KB.
type Atom struct {
	ID           string
	Type         AtomType
	Vendor       string
	Product      string
	PartNumber   string
	Title        string
	Summary      string
	Content      string
	Keywords     map[string]struct{}
	WiringModel  map[string]any
	ManualRefs   []string
	Provenance   []Provenance
	NeedsReview  bool

	// Steps/Fixes back the Layer-0 short-circuit's "concrete steps or
	// fixes" requirement; either may be populated depending on atom type.
	Steps []string
	Fixes []string

	// Score is populated by search results only, not persisted on the
	// stored atom itself.
	Score float64
}

// Actionable reports whether the atom carries concrete steps or fixes, the
// requirement for a Layer-0 short-circuit answer.
func (a *Atom) Actionable() bool {
	return len(a.Steps) > 0 || len(a.Fixes) > 0
}

// layer0Types is the set of atom types the DIAGNOSE skill's Layer-0
// short-circuit will accept.
var layer0Types = map[AtomType]struct{}{
	TypeProcedure:      {},
	TypeFaultCode:      {},
	TypeChecklist:      {},
	TypeTroubleshooting: {},
}

// EligibleForLayer0 reports whether the atom's type belongs to the Layer-0
// whitelist.
func (a *Atom) EligibleForLayer0() bool {
	_, ok := layer0Types[a.Type]
	return ok
}
