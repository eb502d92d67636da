// Package layout loads platform layouts from YAML files and applies them to
// a Deck. Documents are validated against an embedded JSON schema before
// they are decoded.
package layout

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/golang/geo/r3"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/platforms/internal/sockets"
	"github.com/mesh-intelligence/platforms/pkg/types"
)

//go:embed layout.schema.json
var schemaJSON string

const schemaURL = "layout.schema.json"

// ErrInvalidLayout is returned for documents that fail schema validation or
// decoding.
var ErrInvalidLayout = errors.New("invalid layout")

var (
	schemaOnce sync.Once
	schema     *jsonschema.Schema
	schemaErr  error
)

func compiled() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		schema, schemaErr = jsonschema.CompileString(schemaURL, schemaJSON)
	})
	return schema, schemaErr
}

// Layout is a set of platforms to place on a fresh Deck.
type Layout struct {
	Modules []Module `yaml:"modules" json:"modules"`
}

// Module describes one platform. Auto railings bind an edge decoration to
// every socket and a corner decoration across every perimeter corner.
type Module struct {
	ID           string             `yaml:"id" json:"id"`
	Width        int                `yaml:"width" json:"width"`
	Length       int                `yaml:"length" json:"length"`
	Position     []float64          `yaml:"position,omitempty" json:"position,omitempty"`
	Yaw          float64            `yaml:"yaw,omitempty" json:"yaw,omitempty"`
	Scale        float64            `yaml:"scale,omitempty" json:"scale,omitempty"`
	PickedUp     bool               `yaml:"picked_up,omitempty" json:"picked_up,omitempty"`
	AutoRailings bool               `yaml:"auto_railings,omitempty" json:"auto_railings,omitempty"`
	Locked       []int              `yaml:"locked,omitempty" json:"locked,omitempty"`
	Disabled     []int              `yaml:"disabled,omitempty" json:"disabled,omitempty"`
	Decorations  []types.Decoration `yaml:"decorations,omitempty" json:"decorations,omitempty"`
}

// Footprint returns the declared footprint.
func (m Module) Footprint() types.Footprint {
	return types.Footprint{Width: m.Width, Length: m.Length}
}

// Pose returns the declared pose.
func (m Module) Pose() types.Pose {
	p := types.Pose{Yaw: m.Yaw, Scale: m.Scale}
	if len(m.Position) == 3 {
		p.Position = r3.Vector{X: m.Position[0], Y: m.Position[1], Z: m.Position[2]}
	}
	return p
}

// RailingID names the auto railing on socket i of module id.
func RailingID(id string, i int) string {
	return fmt.Sprintf("%s/rail-%d", id, i)
}

// PostID names the auto corner post between sockets a and b of module id.
func PostID(id string, a, b int) string {
	return fmt.Sprintf("%s/post-%d-%d", id, a, b)
}

// Load reads and validates the layout at path.
func Load(path string) (Layout, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Layout{}, fmt.Errorf("read layout: %w", err)
	}
	l, err := Parse(data)
	if err != nil {
		return Layout{}, fmt.Errorf("%s: %w", path, err)
	}
	return l, nil
}

// Parse validates a YAML layout document and decodes it.
func Parse(data []byte) (Layout, error) {
	s, err := compiled()
	if err != nil {
		return Layout{}, fmt.Errorf("compile layout schema: %w", err)
	}

	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return Layout{}, fmt.Errorf("%w: %v", ErrInvalidLayout, err)
	}
	// The validator expects encoding/json values.
	raw, err := json.Marshal(doc)
	if err != nil {
		return Layout{}, fmt.Errorf("%w: %v", ErrInvalidLayout, err)
	}
	var generic any
	if err := json.Unmarshal(raw, &generic); err != nil {
		return Layout{}, fmt.Errorf("%w: %v", ErrInvalidLayout, err)
	}
	if err := s.Validate(generic); err != nil {
		return Layout{}, fmt.Errorf("%w: %v", ErrInvalidLayout, err)
	}

	var l Layout
	if err := yaml.Unmarshal(data, &l); err != nil {
		return Layout{}, fmt.Errorf("%w: %v", ErrInvalidLayout, err)
	}
	if err := l.Validate(); err != nil {
		return Layout{}, err
	}
	return l, nil
}

// Validate checks cross-field rules the schema cannot express.
func (l Layout) Validate() error {
	seen := make(map[string]bool, len(l.Modules))
	for _, m := range l.Modules {
		id := strings.TrimSpace(m.ID)
		if seen[id] {
			return fmt.Errorf("%w: duplicate module %q", ErrInvalidLayout, id)
		}
		seen[id] = true
		fp, _ := m.Footprint().Clamped()
		for _, d := range m.Decorations {
			if err := d.Validate(fp.Perimeter()); err != nil {
				return fmt.Errorf("%w: module %q decoration %q: %v", ErrInvalidLayout, id, d.ID, err)
			}
		}
	}
	return nil
}

// Apply places every module of l on d, binds its decorations and pins its
// locked and disabled sockets. Picked-up modules are placed and then picked
// up. It stops at the first error.
func Apply(d types.Deck, l Layout) error {
	for _, m := range l.Modules {
		id, err := d.Place(m.ID, m.Footprint(), m.Pose())
		if err != nil {
			return fmt.Errorf("place %s: %w", m.ID, err)
		}
		if m.AutoRailings {
			if err := railings(d, id, m.Footprint()); err != nil {
				return err
			}
		}
		for _, dec := range m.Decorations {
			if _, err := d.RegisterDecoration(id, dec); err != nil {
				return fmt.Errorf("decoration %s on %s: %w", dec.ID, id, err)
			}
		}
		for _, pin := range []struct {
			status  types.Status
			indices []int
		}{{types.StatusLocked, m.Locked}, {types.StatusDisabled, m.Disabled}} {
			for _, i := range pin.indices {
				if err := d.SetSocketStatus(id, i, pin.status); err != nil {
					return fmt.Errorf("%s socket %d on %s: %w", pin.status, i, id, err)
				}
			}
		}
		if m.PickedUp {
			if err := d.PickUp(id); err != nil {
				return fmt.Errorf("pick up %s: %w", id, err)
			}
		}
	}
	return nil
}

func railings(d types.Deck, id string, fp types.Footprint) error {
	n := d.SocketCount(id)
	for i := 0; i < n; i++ {
		dec := types.Decoration{ID: RailingID(id, i), Kind: types.DecorationEdge, Sockets: []int{i}}
		if _, err := d.RegisterDecoration(id, dec); err != nil {
			return fmt.Errorf("railing %d on %s: %w", i, id, err)
		}
	}
	for _, c := range sockets.CornerPairs(fp) {
		if c[0] == c[1] {
			continue
		}
		dec := types.Decoration{ID: PostID(id, c[0], c[1]), Kind: types.DecorationCorner, Sockets: []int{c[0], c[1]}}
		if _, err := d.RegisterDecoration(id, dec); err != nil {
			return fmt.Errorf("post %d-%d on %s: %w", c[0], c[1], id, err)
		}
	}
	return nil
}
