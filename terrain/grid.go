// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package terrain

import (
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/ironclad-games/flotilla/world"
)

// Size is the width and height of the grid, in terrain-space pixels.
const Size = 2048

const regenPeriod = 30 * time.Minute

// Grid is a dense, mutex-protected implementation of Terrain.
//
// Unlike a lazily generated chunked field, Grid generates its entire
// extent once at construction from a Source and keeps the whole thing
// resident; sculpting (C9's dredging) mutates cells in place and Repair
// nudges sculpted cells back toward the originally generated height.
type Grid struct {
	mu        sync.RWMutex
	cells     []byte // Size*Size, row-major
	generated []byte // pristine copy produced at construction, for Repair
	source    Source
	nextRegen time.Time
}

// New creates a Grid by sampling source over the grid's full extent.
func New(source Source) *Grid {
	cells := source.Generate(-Size/2, -Size/2, Size, Size)
	generated := make([]byte, len(cells))
	copy(generated, cells)

	return &Grid{
		cells:     cells,
		generated: generated,
		source:    source,
		nextRegen: time.Now().Add(regenPeriod),
	}
}

func toIndex(x, y int) (int, bool) {
	x += Size / 2
	y += Size / 2
	if x < 0 || y < 0 || x >= Size || y >= Size {
		return 0, false
	}
	return y*Size + x, true
}

func (g *Grid) at(x, y int) byte {
	i, ok := toIndex(x, y)
	if !ok {
		return 0
	}
	g.mu.RLock()
	v := g.cells[i]
	g.mu.RUnlock()
	return v
}

// Clamp clamps a bounding box to the grid's represented extent.
func (t *Grid) Clamp(aabb world.AABB) world.AABB {
	p := aabb.Vec2f.Mul(1.0 / Scale).Floor()
	s := world.Vec2f{X: aabb.Width, Y: aabb.Height}.Mul(1.0 / Scale).Ceil()

	x := clampInt(int(p.X), -Size/2, Size/2)
	y := clampInt(int(p.Y), -Size/2, Size/2)
	width := clampInt(int(s.X)+2, 0, Size/2-x)
	height := clampInt(int(s.Y)+2, 0, Size/2-y)

	return world.AABB{
		Vec2f:  world.Vec2f{X: float32(x), Y: float32(y)}.Mul(Scale),
		Width:  float32(width) * Scale,
		Height: float32(height) * Scale,
	}
}

// At returns the heightmap data covering aabb, clamped to the grid extent.
func (t *Grid) At(aabb world.AABB) *Data {
	clamped := t.Clamp(aabb)

	x := int(clamped.Vec2f.X / Scale)
	y := int(clamped.Vec2f.Y / Scale)
	width := int(clamped.Width / Scale)
	height := int(clamped.Height / Scale)

	data := NewData()
	buf := data.Data[:0]
	for j := y; j < y+height; j++ {
		for i := x; i < x+width; i++ {
			buf = append(buf, t.at(i, j))
		}
	}

	data.AABB = clamped
	data.Data = buf
	data.Stride = width
	data.Length = width * height
	return data
}

// Decode is a no-op for Grid: At already returns raw bytes.
func (t *Grid) Decode(data *Data) ([]byte, error) {
	return data.Data, nil
}

// AtPos samples the height at a world position using bilinear interpolation.
func (t *Grid) AtPos(pos world.Vec2f) byte {
	pos = pos.Mul(1.0 / Scale)
	fPos := pos.Floor()
	fx, fy := int(fPos.X), int(fPos.Y)

	c00 := t.at(fx, fy)
	c10 := t.at(fx+1, fy)
	c01 := t.at(fx, fy+1)
	c11 := t.at(fx+1, fy+1)

	delta := pos.Sub(fPos)
	return blerp(c00, c10, c01, c11, delta.X, delta.Y)
}

// AltitudeAt returns altitude (in meters) above sea level.
func (t *Grid) AltitudeAt(pos world.Vec2f) float32 {
	return (float32(t.AtPos(pos)) - SandLevel) * 0.3
}

// LandAt returns whether pos lies in land (sand or higher).
func (t *Grid) LandAt(pos world.Vec2f) bool {
	return t.AtPos(pos) >= SandLevel
}

// Collides returns whether an entity collides with the terrain over the
// next `seconds` of travel (negative seconds requests a conservative,
// stationary check).
func (t *Grid) Collides(entity *world.Entity, seconds float32) bool {
	data := entity.Data()
	threshold := byte(OceanLevel) - 6
	if entity.Altitude() > 0 {
		threshold = SandLevel
	}

	normal := entity.Direction.Vec2f()
	tangent := normal.Rot90()

	position := entity.Position
	dimensions := world.Vec2f{X: data.Length, Y: data.Width}
	dx := minF(Scale*2.0/3.0, dimensions.X*0.499)
	dy := minF(Scale*2.0/3.0, dimensions.Y*0.499)

	conservative := seconds < 0
	if conservative {
		dimensions = dimensions.Mul(2)
		dx *= 0.25
		dy *= 0.25
	} else {
		sweep := seconds * entity.Velocity.Float()
		dimensions.X += sweep
		position = position.AddScaled(normal, sweep*0.5)
	}

	const graceMargin = 0.9
	dimensions = dimensions.Mul(0.5 * graceMargin)

	if dimensions.X <= Scale/5 && dimensions.Y <= Scale/5 {
		return t.AtPos(entity.Position) > threshold
	}

	for l := -dimensions.X; l <= dimensions.X; l += dx {
		for w := -dimensions.Y; w <= dimensions.Y; w += dy {
			if t.AtPos(position.AddScaled(normal, l).AddScaled(tangent, w)) > threshold {
				return true
			}
		}
	}

	return false
}

// Sculpt adds or removes material in a small disc around pos, used by
// fired dredger armaments and by moving dredger boats.
func (t *Grid) Sculpt(pos world.Vec2f, amount float32) {
	pos = pos.Mul(1.0 / Scale)
	fPos := pos.Floor()
	fx, fy := int(fPos.X), int(fPos.Y)

	delta := pos.Sub(fPos)
	amount *= 0.5

	t.mu.Lock()
	defer t.mu.Unlock()

	t.adjust(fx, fy, amount*(2-delta.X-delta.Y))
	t.adjust(fx+1, fy, amount*(1+delta.X-delta.Y))
	t.adjust(fx, fy+1, amount*(1-delta.X+delta.Y))
	t.adjust(fx+1, fy+1, amount*(delta.X+delta.Y))
}

// adjust must be called with t.mu held.
func (t *Grid) adjust(x, y int, delta float32) {
	i, ok := toIndex(x, y)
	if !ok {
		return
	}
	v := float32(t.cells[i]) + delta
	t.cells[i] = clampToGrassByte(v)
}

// Repair nudges any cell that has drifted from its pristine generated
// value one step back towards it, at most once per regenPeriod.
func (t *Grid) Repair() {
	now := time.Now()
	if now.Before(t.nextRegen) {
		return
	}
	t.nextRegen = now.Add(regenPeriod + time.Duration(rand.Intn(60))*time.Second)

	t.mu.Lock()
	defer t.mu.Unlock()

	for i := range t.cells {
		cur, orig := t.cells[i], t.generated[i]
		switch {
		case cur > orig:
			t.cells[i] = cur - minByte(cur-orig, 16)
		case cur < orig:
			t.cells[i] = cur + minByte(orig-cur, 16)
		}
	}
}

func (t *Grid) Debug() {
	fmt.Println("grid terrain: ", Size, "x", Size, "cells")
}

func blerp(c00, c10, c01, c11 byte, tx, ty float32) byte {
	return byte(world.Lerp(
		world.Lerp(float32(c00), float32(c10), tx),
		world.Lerp(float32(c01), float32(c11), tx),
		ty,
	))
}

func clampToGrassByte(f float32) byte {
	if f < 0 {
		return 0
	}
	if f > GrassLevel {
		return GrassLevel
	}
	return byte(f)
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func minF(a, b float32) float32 {
	if a < b {
		return a
	}
	return b
}

func minByte(a, b byte) byte {
	if a < b {
		return a
	}
	return b
}
