// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package world

import (
	"github.com/chewxy/math32"
)

const (
	MinRadius = 500

	// PlayerSpace Target space (square meters) per each
	PlayerSpace   = 300000
	CrateSpace    = 30000
	ObstacleSpace = 1000000
)

// AreaOf is the target playable area for a given player count.
func AreaOf(playerCount int) float32 {
	return float32(playerCount * PlayerSpace)
}

// RadiusOf is the world radius that yields AreaOf(playerCount), never below MinRadius.
func RadiusOf(playerCount int) float32 {
	area := AreaOf(playerCount)
	radius := math32.Sqrt(area / math32.Pi)
	return max(MinRadius, radius)
}

// CrateCountOf is the target number of collectible crates for a given player count.
func CrateCountOf(playerCount int) int {
	return int(AreaOf(playerCount) / CrateSpace)
}

// ObstacleCountOf is the target number of static obstacles for a given player count.
func ObstacleCountOf(playerCount int) int {
	return int(AreaOf(playerCount) / ObstacleSpace)
}
