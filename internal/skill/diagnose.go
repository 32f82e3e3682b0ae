package skill

import (
	"context"
	"fmt"
	"strings"

	"conduit/internal/fault"
	"conduit/internal/intent"
	"conduit/internal/kb"
	"conduit/internal/llmprovider"
	"conduit/internal/message"
	"conduit/internal/router"
)

// Diagnose implements the DIAGNOSE skill: read the latest PLC tags, run the
// fault detector, attempt a Layer-0 KB short-circuit, and otherwise ask the
// router for a narrative diagnosis grounded in the KB atoms found.
type Diagnose struct{}

func NewDiagnose() *Diagnose { return &Diagnose{} }

func (*Diagnose) Name() string            { return "diagnose" }
func (*Diagnose) Intents() []intent.Intent { return []intent.Intent{intent.Diagnose} }

func (d *Diagnose) Handle(ctx context.Context, in *message.Inbound, sc *Context) message.Outbound {
	tags, err := sc.readTags(ctx, in.NodeID)
	if err != nil {
		return message.NewOutbound(in, "I couldn't read the current telemetry for that equipment, so I can't diagnose it right now.")
	}

	diagnoses := fault.Detect(tags)
	top := diagnoses[0]

	atoms, _ := sc.KB.SearchByFaultCode(ctx, top.FaultCode, 3)
	if len(atoms) == 0 {
		atoms, _ = sc.KB.SearchBySymptoms(ctx, top.Title, 3)
	}

	if a := layer0Candidate(top, atoms); a != nil {
		return message.NewOutbound(in, layer0Answer(top, a))
	}

	messages := buildDiagnosisPrompt(in, top, diagnoses, atoms)
	resp, err := sc.Router.Route(ctx, intent.Diagnose, messages, sc.SystemPrompt, router.CallOptions{MaxTokens: 700, Temperature: 0.2})
	if err != nil {
		return message.NewOutbound(in, fallbackDiagnosis(top, atoms))
	}
	footer := fmt.Sprintf("\n\n_%s, %dms_", resp.Provider, resp.LatencyMS)
	return message.NewOutbound(in, resp.Text+sourcesBlock(atoms)+footer)
}

// layer0FaultCodes is the whitelist of fault codes eligible for the
// no-LLM-call short-circuit answer (§4.6).
var layer0FaultCodes = map[string]struct{}{
	"E001": {}, "M001": {}, "M002": {}, "T001": {}, "C001": {},
}

// layer0Candidate returns the single atom qualifying for the Layer-0
// short-circuit, or nil if the LLM path must be taken: the fault code must
// be whitelisted, exactly one candidate atom must be of an eligible type,
// carry concrete steps or fixes, and either score above 0.85 or carry no
// score at all (SearchByFaultCode gives exact fault-code hits a score of
// 1.0).
func layer0Candidate(d *fault.Diagnosis, atoms []*kb.Atom) *kb.Atom {
	if _, ok := layer0FaultCodes[d.FaultCode]; !ok {
		return nil
	}
	if len(atoms) != 1 {
		return nil
	}
	a := atoms[0]
	if !a.EligibleForLayer0() || !a.Actionable() {
		return nil
	}
	if a.Score != 0 && a.Score <= 0.85 {
		return nil
	}
	return a
}

func layer0Answer(d *fault.Diagnosis, a *kb.Atom) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s (%s): %s\n\n", d.FaultCode, d.Severity, d.Title)
	if len(a.Steps) > 0 {
		b.WriteString("Steps:\n")
		for i, s := range a.Steps {
			fmt.Fprintf(&b, "%d. %s\n", i+1, s)
		}
	}
	if len(a.Fixes) > 0 {
		b.WriteString("Known fixes:\n")
		for _, f := range a.Fixes {
			fmt.Fprintf(&b, "- %s\n", f)
		}
	}
	fmt.Fprintf(&b, "\nSource: %s\n\n_Layer 0 (KB direct)_", a.Title)
	return b.String()
}

func fallbackDiagnosis(d *fault.Diagnosis, atoms []*kb.Atom) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s (%s): %s\n%s\n", d.FaultCode, d.Severity, d.Title, d.Description)
	if len(d.SuggestedChecks) > 0 {
		b.WriteString("\nSuggested checks:\n")
		for _, c := range d.SuggestedChecks {
			fmt.Fprintf(&b, "- %s\n", c)
		}
	}
	b.WriteString(sourcesBlock(atoms))
	return b.String()
}

func buildDiagnosisPrompt(in *message.Inbound, top *fault.Diagnosis, all []*fault.Diagnosis, atoms []*kb.Atom) []llmprovider.Message {
	var b strings.Builder
	b.WriteString("Telemetry diagnosis request.\n\n")
	fmt.Fprintf(&b, "Primary fault: %s (%s) - %s\n%s\n", top.FaultCode, top.Severity, top.Title, top.Description)
	if len(all) > 1 {
		b.WriteString("Other conditions observed:\n")
		for _, d := range all[1:] {
			fmt.Fprintf(&b, "- %s (%s): %s\n", d.FaultCode, d.Severity, d.Title)
		}
	}
	if len(atoms) > 0 {
		b.WriteString("\nRelevant knowledge base entries:\n")
		for _, a := range atoms {
			fmt.Fprintf(&b, "- %s: %s\n", a.Title, a.Summary)
		}
	}
	if in.Text != "" {
		fmt.Fprintf(&b, "\nTechnician's question: %s\n", in.Text)
	}
	b.WriteString("\nWrite a concise maintenance diagnosis: likely cause, safety notes if applicable, and concrete next steps.")

	var messages []llmprovider.Message
	for _, h := range in.History() {
		messages = append(messages, llmprovider.Message{Role: llmprovider.Role(h.Role), Content: h.Content})
	}
	messages = append(messages, llmprovider.Message{Role: llmprovider.RoleUser, Content: b.String()})
	return messages
}

func sourcesBlock(atoms []*kb.Atom) string {
	if len(atoms) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("\n\nSources:\n")
	for _, a := range atoms {
		fmt.Fprintf(&b, "- %s\n", a.Title)
	}
	return b.String()
}
