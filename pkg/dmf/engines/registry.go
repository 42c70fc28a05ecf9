package engines

import (
	"fmt"
	"sort"
	"strings"

	"github.com/james-see/dmf2midi/pkg/dmf"
)

// Info describes a registered engine.
type Info struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

type entry struct {
	info Info
	new  func() dmf.Engine
}

var registry = map[string]entry{
	HokutoID: {
		info: Info{
			ID:          HokutoID,
			Name:        "Hokuto no Ken",
			Description: "Hokuto no Ken - Seikimatsu Kyuuseishu Densetsu [SLPS-02993]",
		},
		new: func() dmf.Engine { return NewHokuto() },
	},
}

// New returns a fresh engine for the given title id. Ids are case
// insensitive.
func New(id string) (dmf.Engine, error) {
	e, ok := registry[strings.ToLower(strings.TrimSpace(id))]
	if !ok {
		return nil, fmt.Errorf("%w: %q (available: %s)", dmf.ErrNoEngine, id, strings.Join(IDs(), ", "))
	}
	return e.new(), nil
}

// IDs returns the registered engine ids in sorted order.
func IDs() []string {
	ids := make([]string, 0, len(registry))
	for id := range registry {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// List returns the registered engines sorted by id.
func List() []Info {
	infos := make([]Info, 0, len(registry))
	for _, id := range IDs() {
		infos = append(infos, registry[id].info)
	}
	return infos
}
