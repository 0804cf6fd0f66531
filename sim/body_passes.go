package sim

import (
	"github.com/api-haus/pixelworld/body"
	"github.com/api-haus/pixelworld/pixel"
)

// blitBodies is pass 1 (spec §4.4): for each live body, write its pixels
// into the Canvas using inverse transform sampling so rotation can never
// leave gaps. last_blit_transform is snapshotted before the write so
// readback/clear (passes 3-4) can find exactly this tick's footprint even
// if current_transform moves again before the next tick.
func (s *Scheduler) blitBodies() {
	for _, b := range s.Bodies.All() {
		b.LastBlitTransform = b.CurrentTransform
		minX, minY, maxX, maxY := b.WorldAABB(b.CurrentTransform)
		for wy := minY; wy <= maxY; wy++ {
			for wx := minX; wx <= maxX; wx++ {
				lx, ly := body.WorldToLocal(b.CurrentTransform, b.OriginOffsetX, b.OriginOffsetY, float32(wx), float32(wy))
				if lx < 0 || ly < 0 || lx >= b.Width || ly >= b.Height || !b.MaskBit(lx, ly) {
					continue
				}
				dest, ok := s.Canvas.Get(wx, wy)
				if !ok {
					continue
				}
				if !dest.IsVoid() && !dest.PixelBody() {
					// Occupied by higher-priority terrain; this body pixel does
					// not land here this tick.
					continue
				}
				src := b.Pixels[ly*b.Width+lx]
				src = src.WithFlag(pixel.FlagPixelBody, true).WithFlag(pixel.FlagDirty, true)
				s.Canvas.Set(wx, wy, src)
			}
		}
	}
}

// readbackBodies is pass 3 (spec §4.4): detect pixels destroyed (mask said
// solid, canvas now void) or dislodged (mask-solid cell now holds a
// non-body pixel) and clear the corresponding mask bits. Bodies with any
// bit cleared this tick are recorded for the split pass.
func (s *Scheduler) readbackBodies() {
	s.dirtyBodies = s.dirtyBodies[:0]
	for _, b := range s.Bodies.All() {
		changed := false
		for ly := 0; ly < b.Height; ly++ {
			for lx := 0; lx < b.Width; lx++ {
				if !b.MaskBit(lx, ly) {
					continue
				}
				w := body.LocalToWorld(b.LastBlitTransform, b.OriginOffsetX, b.OriginOffsetY, lx, ly)
				wx, wy := roundCoord(w.X()), roundCoord(w.Y())
				p, ok := s.Canvas.Get(wx, wy)
				destroyed := !ok || p.IsVoid()
				dislodged := ok && !p.IsVoid() && !p.PixelBody()
				if destroyed || dislodged {
					b.SetMaskBit(lx, ly, false)
					b.Pixels[ly*b.Width+lx] = pixel.Pixel{}
					changed = true
					continue
				}
				if ok && p.PixelBody() {
					// Still owned and intact: keep mask bit, refresh cached pixel
					// value in case terrain interactions touched its color/damage.
					b.Pixels[ly*b.Width+lx] = p
				}
			}
		}
		if changed {
			s.dirtyBodies = append(s.dirtyBodies, b.ID)
		}
	}
}

// clearBodies is pass 4 (spec §4.4): wipe this tick's blit footprint (at
// last_blit_transform, not the possibly-already-moved current_transform)
// so the next blit starts from a clean canvas and no stale body pixel
// survives a body moving away (prevention of ghost pixels).
func (s *Scheduler) clearBodies() {
	for _, b := range s.Bodies.All() {
		minX, minY, maxX, maxY := b.WorldAABB(b.LastBlitTransform)
		for wy := minY; wy <= maxY; wy++ {
			for wx := minX; wx <= maxX; wx++ {
				lx, ly := body.WorldToLocal(b.LastBlitTransform, b.OriginOffsetX, b.OriginOffsetY, float32(wx), float32(wy))
				if lx < 0 || ly < 0 || lx >= b.Width || ly >= b.Height {
					continue
				}
				p, ok := s.Canvas.Get(wx, wy)
				if !ok || !p.PixelBody() {
					continue
				}
				if b.MaskBit(lx, ly) {
					// Still alive this tick; the next blit will repaint it, but it
					// must not be left behind if the body moves before then.
					s.Canvas.Set(wx, wy, pixel.Pixel{})
				}
			}
		}
	}
}

// splitBodies is pass 5 (spec §4.4): 4-connectivity analysis on any body
// whose mask changed this tick during readback.
func (s *Scheduler) splitBodies() {
	for _, id := range s.dirtyBodies {
		b := s.Bodies.Get(id)
		if b == nil {
			continue
		}
		pieces := body.Split(b)
		for _, piece := range pieces {
			s.Bodies.Spawn(piece.Width, piece.Height, piece.Pixels, piece.Mask, piece.OriginOffsetX, piece.OriginOffsetY, b.CurrentTransform, b.Persistable)
		}
	}
}

func roundCoord(f float32) int {
	if f >= 0 {
		return int(f + 0.5)
	}
	return int(f - 0.5)
}
