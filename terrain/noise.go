// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package terrain

import (
	"github.com/aquilax/go-perlin"

	"github.com/ironclad-games/flotilla/world"
)

/*
	List of curated seeds/offsets:
		1, 256, 256
		46, 0, 128
		48, 0, 64
		56, -128, -128
*/

const (
	// Seed default seed.
	Seed = int64(56)
	// OffsetX the default x offset from the origin in world space.
	OffsetX = -128 * Scale
	// OffsetY the default y offset from the origin in world space.
	OffsetY = -128 * Scale
)

const (
	frequency     = 0.001
	zoneFrequency = 0.00015
)

// NoiseSource generates a heightmap using coherent (perlin) noise.
type NoiseSource struct {
	landHi  *perlin.Perlin // smaller/higher frequency coastline detail
	landLo  *perlin.Perlin // larger/lower frequency landmass zoning
	waterLo *perlin.Perlin // open water depth floor

	offset world.Vec2f
}

// NewDefaultSource builds a NoiseSource using the curated default seed.
func NewDefaultSource() *NoiseSource {
	return NewSource(Seed, OffsetX, OffsetY)
}

// NewSource builds a NoiseSource with an explicit seed and origin offset.
func NewSource(seed int64, offsetX, offsetY float32) *NoiseSource {
	return &NoiseSource{
		landHi:  perlin.NewPerlin(1.5, 2.0, 4, seed),
		landLo:  perlin.NewPerlin(2.5, 3.0, 4, seed+1),
		waterLo: perlin.NewPerlin(2, 3.0, 3, seed+2),
		offset:  world.Vec2f{X: offsetX, Y: offsetY}.Mul(1.0 / Scale),
	}
}

// Generate implements Source.
func (g *NoiseSource) Generate(px, py, width, height int) []byte {
	buf := make([]byte, width*height)

	offX := float64(g.offset.X) + float64(px)
	offY := float64(g.offset.Y) + float64(py)

	for j := 0; j < height; j++ {
		for i := 0; i < width; i++ {
			x := (float64(i) + offX) * Scale
			y := (float64(j) + offY) * Scale

			h := g.landHi.Noise2D(x*frequency, y*frequency)*250 + SandLevel - 50

			zone := g.landLo.Noise2D(x*zoneFrequency, y*zoneFrequency)*2.0 + 0.4
			if zone > 1 {
				zone = 1
			}
			h *= zone

			depthFloor := clampF((g.waterLo.Noise2D(x*zoneFrequency, y*zoneFrequency)+0.3)*4, 0, 1) * SandLevel

			buf[i+j*width] = clampToByte(maxF(h, depthFloor))
		}
	}

	return buf
}

func clampF(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func maxF(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

func clampToByte(f float64) byte {
	if f < 0 {
		return 0
	}
	if f > 255 {
		return 255
	}
	return byte(f)
}
