package intent

import (
	"regexp"
	"strings"

	"conduit/internal/message"
)

// commandTable maps a leading slash-command token to its Intent. Mirrors the
// declarative action-registry style used for Genesis's os_control tool
// (pkg/tools/os_tool.go), generalized from one flat map to intent dispatch.
var commandTable = map[string]Intent{
	"/diagnose":   Diagnose,
	"/status":     Status,
	"/photo":      Photo,
	"/wo":         WorkOrder,
	"/workorder":  WorkOrder,
	"/admin":      Admin,
	"/health":     Admin,
	"/help":       Help,
	"/start":      Help,
	"/search":     Search,
	"/run":        Shell,
	"/diagram":    Diagram,
	"/wiring":     Diagram,
	"/gist":       Gist,
	"/project":    Project,
}

// pattern pairs a compiled regex with the Intent it signals. Order is
// specificity-first: the earliest matching pattern wins.
type pattern struct {
	intent Intent
	re     *regexp.Regexp
}

var patterns = []pattern{
	{WorkOrder, regexp.MustCompile(`(?i)\b(create|open|file|make)\b.{0,20}\bwork\s*order\b`)},
	{Diagram, regexp.MustCompile(`(?i)\b(wiring\s*diagram|schematic|circuit\s*diagram)\b`)},
	{Project, regexp.MustCompile(`(?i)\b(scaffold|bootstrap)\b.{0,20}\bproject\b`)},
	{Gist, regexp.MustCompile(`(?i)\b(generate|write|draft)\b.{0,20}\b(document|report|gist)\b`)},
	{Diagnose, regexp.MustCompile(`(?i)\b(fault|faulty|broken|malfunction|error\s*code)\b`)},
	{Diagnose, regexp.MustCompile(`(?i)\bwhy\b[^.?!]{0,30}\b(stopped|fault|down)\b`)},
	{Diagnose, regexp.MustCompile(`(?i)\b(conveyor|motor|pump|compressor|plc|machine|line)\b[^.?!]{0,15}\b(stopped|down)\b`)},
	{Diagnose, regexp.MustCompile(`(?i)\b(stopped|down)\b[^.?!]{0,15}\b(conveyor|motor|pump|compressor|plc|machine|line)\b`)},
	{Status, regexp.MustCompile(`(?i)\b(status|current\s*state|io\s*state|tag\s*values?)\b`)},
	{WorkOrder, regexp.MustCompile(`(?i)\bwork\s*order\b`)},
	{Admin, regexp.MustCompile(`(?i)\b(admin|providers?|budget|circuit\s*breaker)\b`)},
	{Help, regexp.MustCompile(`(?i)\b(help|how\s+do\s+i|what\s+can\s+you\s+do)\b`)},
	{Search, regexp.MustCompile(`(?i)\b(search|look\s*up|find\s+(a|an|the)\b)`)},
	{Shell, regexp.MustCompile(`^\s*\$\s`)},
	{Shell, regexp.MustCompile(`(?i)\b(run|execute|shell)\b`)},
}

// Classify implements the deterministic, total classification function. It
// never fails; UNKNOWN is returned only for empty or whitespace-only text
// with no image, and text that matches no rule is CHAT.
func Classify(m *message.Inbound) Intent {
	if m.HasImage() {
		return Photo
	}
	text := strings.TrimSpace(m.Text)
	if text == "" {
		return Unknown
	}
	if strings.HasPrefix(text, "/") {
		fields := strings.Fields(text)
		cmd := strings.ToLower(fields[0])
		if in, ok := commandTable[cmd]; ok {
			return in
		}
		// Unknown slash command falls through to the regex/default rules
		// below rather than failing classification.
	}
	for _, p := range patterns {
		if p.re.MatchString(text) {
			return p.intent
		}
	}
	return Chat
}
