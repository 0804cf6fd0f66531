package sim

import (
	"github.com/api-haus/pixelworld/chunk"
	"github.com/api-haus/pixelworld/material"
	"github.com/api-haus/pixelworld/pixel"
)

// runAuxiliaryPasses is pass 7 (spec §4.4): heat propagation, decay, and
// material interactions, each ticked at its own fixed rate independent of
// the CA phase rate. The accumulate-then-step-once-per-interval shape is
// the teacher's ca_ecs.go caStepSystem pattern (cv._accum += dt; if
// cv._accum < target return; cv._accum = 0) applied per auxiliary pass
// instead of per cellular-volume entity.
func (s *Scheduler) runAuxiliaryPasses(dt float64) {
	if s.cfg.HeatRateHz > 0 {
		s.heatAccum += dt
		target := 1.0 / s.cfg.HeatRateHz
		if s.heatAccum >= target {
			s.heatAccum = 0
			s.stepHeat()
		}
	}

	if s.cfg.DecayRateHz > 0 {
		s.decayAccum += dt
		target := 1.0 / s.cfg.DecayRateHz
		if s.decayAccum >= target {
			s.decayAccum = 0
			s.stepDecay()
		}
	}

	s.stepMaterialInteractions()
}

// stepHeat diffuses the chunk's downsampled heat grid with a cooling
// factor, sourced from burning pixels and each material's base
// temperature (spec §4.4 Auxiliary passes).
func (s *Scheduler) stepHeat() {
	for _, c := range s.Canvas.Chunks() {
		if len(c.Heat) == 0 {
			continue
		}
		side := c.Size / 4
		next := make([]uint8, len(c.Heat))
		for y := 0; y < side; y++ {
			for x := 0; x < side; x++ {
				i := y*side + x
				sum := int(c.Heat[i]) * 4
				n := 4
				for _, d := range [4][2]int{{1, 0}, {-1, 0}, {0, 1}, {0, -1}} {
					nx, ny := x+d[0], y+d[1]
					if nx < 0 || ny < 0 || nx >= side || ny >= side {
						continue
					}
					sum += int(c.Heat[ny*side+nx])
					n++
				}
				avg := sum / n
				cooled := int(float32(avg) * (1 - s.cfg.CoolingFactor))
				if cooled < 0 {
					cooled = 0
				}
				if cooled > 255 {
					cooled = 255
				}
				next[i] = uint8(cooled)
			}
		}

		// Burning pixels and each material's base temperature feed heat back
		// into their downsampled cell.
		for ly := 0; ly < c.Size; ly++ {
			for lx := 0; lx < c.Size; lx++ {
				p := c.Get(lx, ly)
				if p.IsVoid() {
					continue
				}
				mat := s.Materials.Get(p.Material)
				heatIdx := (ly/4)*side + lx/4
				if heatIdx < 0 || heatIdx >= len(next) {
					continue
				}
				src := mat.BaseTemperature
				if p.Burning() && s.cfg.BurningHeat > src {
					src = s.cfg.BurningHeat
				}
				if src > next[heatIdx] {
					next[heatIdx] = src
				}
			}
		}

		copy(c.Heat, next)
	}
}

// stepDecay applies probabilistic decay to every non-void pixel whose
// material has a DecayChance, ignoring the dirty-rect discipline per spec
// §4.4 ("decay ... ignores dirty rect").
func (s *Scheduler) stepDecay() {
	tick := s.tick
	for _, c := range s.Canvas.Chunks() {
		for ly := 0; ly < c.Size; ly++ {
			for lx := 0; lx < c.Size; lx++ {
				p := c.Get(lx, ly)
				if p.IsVoid() {
					continue
				}
				mat := s.Materials.Get(p.Material)
				if mat.DecayChance <= 0 {
					continue
				}
				if pixel.HashFloat01(int64(lx), int64(ly), tick) < float64(mat.DecayChance)+s.cfg.DecayChanceBias {
					c.Set(lx, ly, pixel.Pixel{Material: mat.DecayProduct})
				}
			}
		}
	}
}

// stepMaterialInteractions resolves adjacent-pixel effects (corrode,
// ignite, transform, diffuse, displace) via the tag-indexed material
// registry lookup (spec §4.4 Auxiliary passes).
func (s *Scheduler) stepMaterialInteractions() {
	for _, c := range s.Canvas.Chunks() {
		for ly := 0; ly < c.Size; ly++ {
			for lx := 0; lx < c.Size; lx++ {
				p := c.Get(lx, ly)
				if p.IsVoid() {
					continue
				}
				for _, d := range [4][2]int{{1, 0}, {-1, 0}, {0, 1}, {0, -1}} {
					nx, ny := lx+d[0], ly+d[1]
					if nx < 0 || ny < 0 || nx >= c.Size || ny >= c.Size {
						continue
					}
					other := c.Get(nx, ny)
					if other.IsVoid() {
						continue
					}
					eff, ok := s.Materials.Interaction(p.Material, other.Material)
					if !ok {
						continue
					}
					s.applyInteraction(c, lx, ly, p, eff)
				}
			}
		}
	}
}

// applyInteraction carries out one resolved Interaction against the pixel
// at chunk-local (lx, ly) (spec §4.4 "material interactions between
// adjacent pixels (corrode/ignite/transform...)"). Only corrode, ignite
// and transform are applied; Diffuse and Displace effects are resolved
// but change nothing, here or in the movement passes.
func (s *Scheduler) applyInteraction(c *chunk.Chunk, lx, ly int, p pixel.Pixel, eff material.Interaction) {
	tick := s.tick
	switch eff.Kind {
	case material.EffectCorrode:
		if pixel.HashFloat01(int64(lx), int64(ly), tick) < float64(eff.Rate) {
			c.Set(lx, ly, pixel.Pixel{Material: pixel.Void})
		}
	case material.EffectIgnite:
		if pixel.HashFloat01(int64(lx), int64(ly), tick) < float64(eff.Chance) {
			c.Set(lx, ly, p.WithFlag(pixel.FlagBurning, true))
		}
	case material.EffectTransform:
		c.Set(lx, ly, pixel.Pixel{Material: eff.Target, Color: p.Color, Flags: p.Flags})
	}
}
