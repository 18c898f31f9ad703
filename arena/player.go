// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package arena

import (
	"github.com/ironclad-games/flotilla/contact"
	"github.com/ironclad-games/flotilla/world"
)

// Player is an extension of world.Player with extra data
type Player struct {
	world.Player
	ChatHistory ChatHistory
	FPS         float32
	FireLimiter contact.FireRateLimiter
	// Aspect is the client's last-reported viewport aspect ratio
	// (width / height), used to shape the terrain chunk rectangle sent to it.
	// Defaults to square (1.0) until a Hint arrives.
	Aspect float32

	// Optimizations
	TerrainArea world.AABB
}
