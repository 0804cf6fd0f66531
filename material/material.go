// Package material implements the immutable-after-init material registry
// (spec §6, §9 "Dynamic dispatch"): a table of value records plus a
// precomputed tag index, never virtual dispatch. Movement behaviour is a
// match over PhysicalState, exactly as spec §9 prescribes.
package material

import "fmt"

// ID indexes into a Registry. 0 is reserved for Void and never has a
// registered Material.
type ID = uint8

// PhysicalState is the coarse state a material's movement rule is chosen
// from.
type PhysicalState uint8

const (
	StateSolid PhysicalState = iota
	StatePowder
	StateLiquid
	StateGas
)

// Tag is a free-form label used to look up groups of materials in O(1)
// (spec §6: "a tag index is precomputed for O(1) tag → material list
// lookup").
type Tag string

// EffectKind is the instruction a per-tag/per-material interaction entry
// carries out on an adjacent pixel pair (spec §6, §4.4 "material
// interactions").
type EffectKind uint8

const (
	EffectNone EffectKind = iota
	EffectCorrode
	EffectIgnite
	EffectTransform
	EffectDiffuse
	EffectDisplace
)

// Interaction describes what happens when this material is adjacent to
// another material or tag.
type Interaction struct {
	Kind   EffectKind
	Rate   float32 // corrode rate / diffuse rate, kind-dependent
	Chance float32 // ignite chance, kind-dependent
	Target ID      // transform target / displace target, kind-dependent
}

// Material is a single immutable registry entry (spec §6).
type Material struct {
	Name       string
	State      PhysicalState
	Density    uint8
	Dispersion uint8

	PaletteStart uint8
	PaletteEnd   uint8

	DamageThreshold    uint8
	DestructionProduct ID

	DecayChance float32
	DecayProduct ID

	IgnitionThreshold uint8
	MeltingThreshold  uint8
	MeltProduct       ID

	BaseTemperature uint8
	ParticleGravity float32

	Tags []Tag

	// Interactions keyed by the other pixel's material id.
	ByMaterial map[ID]Interaction
	// Interactions keyed by one of the other pixel's material's tags.
	ByTag map[Tag]Interaction
}

// Registry is the immutable, shared material table. Build once with
// NewRegistry and never mutate afterwards (spec §9 "Global mutable state").
type Registry struct {
	materials [256]Material
	present   [256]bool
	tagIndex  map[Tag][]ID
}

// NewRegistry builds a registry from id->Material entries. Entry 0 (Void)
// must not be supplied; it is implicit and always empty. tileSize clamps
// every entry's Dispersion to tileSize/2: spec §4.4's "read radius is
// bounded by T/2" is an invariant the engine must uphold, not merely
// assume about the data it's handed, since a side-flow reach beyond T/2
// lets two same-phase tiles (never adjacent, but both bordering the
// same neighbor) write into one another's territory.
func NewRegistry(entries map[ID]Material, tileSize int) (*Registry, error) {
	if _, ok := entries[0]; ok {
		return nil, fmt.Errorf("material: id 0 is reserved for void")
	}
	maxDispersion := uint8(tileSize / 2)
	r := &Registry{tagIndex: make(map[Tag][]ID)}
	for id, m := range entries {
		if m.Dispersion > maxDispersion {
			m.Dispersion = maxDispersion
		}
		r.materials[id] = m
		r.present[id] = true
		for _, t := range m.Tags {
			r.tagIndex[t] = append(r.tagIndex[t], id)
		}
	}
	return r, nil
}

// Get returns the material for id, or the zero Material if id is void or
// unregistered.
func (r *Registry) Get(id ID) Material {
	if id == 0 || !r.present[id] {
		return Material{}
	}
	return r.materials[id]
}

// Present reports whether id names a registered, non-void material.
func (r *Registry) Present(id ID) bool {
	return id != 0 && r.present[id]
}

// ByTag returns every material id carrying tag, in O(1) amortized (a single
// map lookup; the slice itself was built once at construction).
func (r *Registry) ByTag(tag Tag) []ID {
	return r.tagIndex[tag]
}

// Interaction resolves what should happen when a pixel of material `self`
// is adjacent to a pixel of material `other`. Per-material entries take
// priority over per-tag entries.
func (r *Registry) Interaction(self, other ID) (Interaction, bool) {
	m := r.Get(self)
	if eff, ok := m.ByMaterial[other]; ok {
		return eff, true
	}
	otherMat := r.Get(other)
	for _, t := range otherMat.Tags {
		if eff, ok := m.ByTag[t]; ok {
			return eff, true
		}
	}
	return Interaction{}, false
}
