package router

import (
	jsoniter "github.com/json-iterator/go"

	"conduit/internal/intent"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// rawRoute is the wire shape of one entry in config.json's routing section.
type rawRoute struct {
	Intent    string   `json:"intent"`
	Primary   string   `json:"primary"`
	Fallbacks []string `json:"fallbacks"`
}

// rawTable is the wire shape of config.json's routing section: a list of per-intent routes
// plus a default route used for any intent without its own entry.
type rawTable struct {
	Routes  []rawRoute `json:"routes"`
	Default rawRoute   `json:"default"`
}

// LoadTable parses config.json's routing section into a Table. Per the Design Notes
// ("intentionally ambiguous"), the table is always loaded from configurable
// data, never hard-coded, so a config reload can swap it out wholesale.
func LoadTable(raw jsoniter.RawMessage) (*Table, error) {
	var rt rawTable
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &rt); err != nil {
			return nil, err
		}
	}
	table := &Table{
		Routes:  map[intent.Intent]Route{},
		Default: Route{Primary: rt.Default.Primary, Fallbacks: rt.Default.Fallbacks},
	}
	for _, r := range rt.Routes {
		table.Routes[intent.Intent(r.Intent)] = Route{Primary: r.Primary, Fallbacks: r.Fallbacks}
	}
	return table, nil
}
