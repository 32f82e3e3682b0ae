// Package intent defines the closed Intent set and the deterministic
// classifier that assigns one to an inbound message.
package intent

// Intent is a closed tagged set; UNKNOWN is the sentinel the classifier
// never fails to produce.
type Intent string

const (
	Diagnose  Intent = "DIAGNOSE"
	Status    Intent = "STATUS"
	Photo     Intent = "PHOTO"
	WorkOrder Intent = "WORK_ORDER"
	Chat      Intent = "CHAT"
	Admin     Intent = "ADMIN"
	Help      Intent = "HELP"
	Search    Intent = "SEARCH"
	Shell     Intent = "SHELL"
	Diagram   Intent = "DIAGRAM"
	Gist      Intent = "GIST"
	Project   Intent = "PROJECT"
	Unknown   Intent = "UNKNOWN"

	// Pipeline-internal tags: never produced by Classify and not
	// referenced elsewhere in this module.
	WiringReconstruct Intent = "WIRING_RECONSTRUCT"
	KBEnrich          Intent = "KB_ENRICH"
)

// All lists every user-facing intent the classifier can produce besides
// UNKNOWN. The ADMIN skill does not use it; it lists the registry's
// intents in alphabetical order.
var All = []Intent{Diagnose, Status, Photo, WorkOrder, Chat, Admin, Help, Search, Shell, Diagram, Gist, Project}
