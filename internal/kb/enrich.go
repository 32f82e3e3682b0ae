package kb

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"conduit/internal/llmprovider"
)

// VisionCaller is the narrow slice of the router this pipeline needs: one
// vision-capable completion call per provider attempt. Kept as an interface
// here (rather than depending on the router package directly) to avoid an
// import cycle, matching the teacher's habit of depending on the smallest
// capability interface at each call site.
type VisionCaller interface {
	CompleteVision(ctx context.Context, providerOrder []string, prompt string, image llmprovider.Image) (llmprovider.Response, error)
}

// NameplateData is the fixed JSON schema the Ingest stage demands from the
// vision LLM.
type NameplateData struct {
	Vendor        string         `json:"vendor"`
	Product       string         `json:"product"`
	PartNumber    string         `json:"part_number"`
	ComponentType string         `json:"component_type"`
	Ratings       map[string]any `json:"ratings"`
	Terminals     []string       `json:"terminals"`
	WiringDiagram map[string]any `json:"wiring_diagram"`
	Confidence    string         `json:"confidence"`
}

const ingestPrompt = `Identify this electrical/mechanical component from the photo. Respond with ONLY a JSON object with these exact keys: vendor, product, part_number, component_type, ratings (object), terminals (array of strings), wiring_diagram (object describing printed wiring if visible), confidence (one of "high","medium","low","" ).`

var ingestProviderOrder = []string{"vision-primary", "vision-fallback"}

// Pipeline runs the four enrichment stages: Ingest, Augment, Synthesize,
// Upsert.
type Pipeline struct {
	store  *Store
	vision VisionCaller
}

// NewPipeline constructs an enrichment pipeline over store using vision for
// the Ingest stage.
func NewPipeline(store *Store, vision VisionCaller) *Pipeline {
	return &Pipeline{store: store, vision: vision}
}

// Result is what the PHOTO skill's asynchronous enrichment task reports back
// through the notification sink.
type Result struct {
	AtomID      string
	Inserted    bool
	NeedsReview bool
	Title       string
	Err         error
}

// Run executes all four stages for one photograph + optional tag hint. It
// never panics the caller's goroutine on a malformed vision reply; ingest
// failures degrade to an empty skeleton rather than aborting the pipeline,
// and upsert failures are reported in Result.Err rather than raised, so a
// best-effort summary can still reach the user.
func (p *Pipeline) Run(ctx context.Context, photoID string, image llmprovider.Image, tagHint string) Result {
	nameplate := p.ingest(ctx, image)
	candidate := p.augment(ctx, nameplate)
	atom, insert, conflict := synthesize(nameplate, candidate, photoID)

	if insert {
		id, err := p.store.InsertAtom(ctx, atom)
		if err != nil {
			return Result{Err: fmt.Errorf("kb enrichment: insert: %w", err)}
		}
		return Result{AtomID: id, Inserted: true, NeedsReview: atom.NeedsReview, Title: atom.Title}
	}

	fields := map[string]any{
		"title":        atom.Title,
		"summary":      atom.Summary,
		"content":      atom.Content,
		"wiring_model": atom.WiringModel,
		"manual_refs":  atom.ManualRefs,
		"keywords":     atom.Keywords,
	}
	prov := Provenance{Source: "photo", PhotoID: photoID, At: time.Now()}
	if err := p.store.UpdateAtom(ctx, candidate.ID, fields, prov, conflict); err != nil {
		// Upsert failures do not raise past this boundary (§4.8); the
		// caller still gets a best-effort summary.
		return Result{Title: atom.Title, NeedsReview: atom.NeedsReview, Err: err}
	}
	return Result{AtomID: candidate.ID, Inserted: false, NeedsReview: atom.NeedsReview || conflict, Title: atom.Title}
}

// ingest runs the vision stage, applying the JSON-repair routine on parse
// failure before giving up and returning an empty skeleton.
func (p *Pipeline) ingest(ctx context.Context, image llmprovider.Image) NameplateData {
	if p.vision == nil {
		return NameplateData{}
	}
	resp, err := p.vision.CompleteVision(ctx, ingestProviderOrder, ingestPrompt, image)
	if err != nil {
		return NameplateData{}
	}
	var data NameplateData
	if err := json.Unmarshal([]byte(resp.Text), &data); err == nil {
		return data
	}
	repaired := repairJSON(resp.Text)
	if err := json.Unmarshal([]byte(repaired), &data); err == nil {
		return data
	}
	return NameplateData{}
}

// repairJSON strips common LLM JSON-mode mistakes: code fences, single
// quotes in place of double quotes, and leading/trailing prose around the
// outermost object.
func repairJSON(text string) string {
	s := strings.TrimSpace(text)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	s = strings.TrimSpace(s)
	if start := strings.Index(s, "{"); start >= 0 {
		if end := strings.LastIndex(s, "}"); end > start {
			s = s[start : end+1]
		}
	}
	s = strings.ReplaceAll(s, "'", `"`)
	return s
}

// augment looks up exact vendor+part-number matches when known, otherwise
// falls back to full-text search; returns nil if nothing is found.
func (p *Pipeline) augment(ctx context.Context, n NameplateData) *Atom {
	if n.Vendor != "" && n.PartNumber != "" {
		if a, err := p.store.FindByPart(ctx, n.Vendor, n.PartNumber); err == nil && a != nil {
			return a
		}
	}
	query := strings.TrimSpace(n.Vendor + " " + n.Product + " " + n.ComponentType)
	if query == "" {
		return nil
	}
	results, err := p.store.Search(ctx, query, 1)
	if err != nil || len(results) == 0 {
		return nil
	}
	return results[0]
}

// synthesize merges vision data with the best KB candidate per §4.8's merge
// rules. Returns the built atom, whether it should be inserted (vs. updated
// in place against candidate.ID), and whether a conflict was detected.
func synthesize(n NameplateData, candidate *Atom, photoID string) (*Atom, bool, bool) {
	conflict := false
	atom := &Atom{
		Type:     TypeSpec,
		Keywords: map[string]struct{}{},
	}
	if candidate != nil {
		*atom = *candidate
		atom.Score = 0
	}

	// Nameplate fields override KB only when vision confidence is
	// non-empty.
	if n.Confidence != "" {
		if n.Vendor != "" {
			atom.Vendor = n.Vendor
		}
		if n.Product != "" {
			atom.Product = n.Product
		}
		if n.PartNumber != "" {
			atom.PartNumber = n.PartNumber
		}
	} else if candidate == nil {
		atom.Vendor, atom.Product, atom.PartNumber = n.Vendor, n.Product, n.PartNumber
	}

	// Terminal layouts from KB win only when vision has none.
	if len(n.Terminals) > 0 {
		atom.ManualRefs = mergeUnique(atom.ManualRefs, n.Terminals)
	}

	// Conflicting wiring models do not auto-merge.
	if len(n.WiringDiagram) > 0 {
		if candidate != nil && len(candidate.WiringModel) > 0 && !wiringEqual(candidate.WiringModel, n.WiringDiagram) {
			conflict = true
		} else if candidate == nil || len(candidate.WiringModel) == 0 {
			atom.WiringModel = n.WiringDiagram
		}
	}

	title := strings.TrimSpace(n.Vendor + " " + n.Product)
	if title == "" && candidate != nil {
		title = candidate.Title
	}
	if title == "" {
		title = "Unidentified component"
	}
	atom.Title = title
	atom.Summary = fmt.Sprintf("%s (%s), confidence=%s", title, n.ComponentType, orDefault(n.Confidence, "unknown"))
	atom.Content = buildContent(n, candidate)
	for _, kw := range strings.Fields(strings.ToLower(title + " " + n.ComponentType)) {
		atom.Keywords[kw] = struct{}{}
	}
	atom.Provenance = append(atom.Provenance, Provenance{Source: "photo", PhotoID: photoID, At: time.Now()})
	atom.NeedsReview = atom.NeedsReview || conflict

	insert := candidate == nil
	return atom, insert, conflict
}

func wiringEqual(a, b map[string]any) bool {
	ab, _ := json.Marshal(a)
	bb, _ := json.Marshal(b)
	return string(ab) == string(bb)
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

func buildContent(n NameplateData, candidate *Atom) string {
	var b strings.Builder
	if candidate != nil && candidate.Content != "" {
		b.WriteString(candidate.Content)
		b.WriteString("\n\n---\n")
	}
	b.WriteString(fmt.Sprintf("Vendor: %s\nProduct: %s\nPart number: %s\nComponent type: %s\n", n.Vendor, n.Product, n.PartNumber, n.ComponentType))
	if len(n.Terminals) > 0 {
		b.WriteString("Terminals: " + strings.Join(n.Terminals, ", ") + "\n")
	}
	return b.String()
}
