// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package arena

import (
	"github.com/ironclad-games/flotilla/world"
	"testing"
)

func newTestHub() *Hub {
	return NewHub(DefaultConfig())
}

func TestHub_NearAny_CollectibleIgnoresOtherEntities(t *testing.T) {
	h := newTestHub()
	h.world.AddEntity(&world.Entity{EntityType: world.ParseEntityType("battleship1")})

	crate := &world.Entity{EntityType: world.ParseEntityType("crate")}
	if h.nearAny(crate, 5) {
		t.Errorf("expected a collectible to ignore nearby boats, only care about terrain")
	}
}

func TestHub_NearAny_WeaponClearsObstaclesOnly(t *testing.T) {
	h := newTestHub()
	h.world.AddEntity(&world.Entity{EntityType: world.ParseEntityType("oilPlatform")})

	torpedo := &world.Entity{EntityType: world.ParseEntityType("mark18")}
	if !h.nearAny(torpedo, 5) {
		t.Errorf("expected a weapon near an obstacle to be blocked from spawning")
	}

	h2 := newTestHub()
	h2.world.AddEntity(&world.Entity{EntityType: world.ParseEntityType("battleship1")})
	torpedo2 := &world.Entity{EntityType: world.ParseEntityType("mark18")}
	if h2.nearAny(torpedo2, 5) {
		t.Errorf("expected a weapon to ignore nearby boats, only obstacles block it")
	}
}

func TestHub_NearAny_BoatClearsNonCollectibles(t *testing.T) {
	h := newTestHub()
	h.world.AddEntity(&world.Entity{EntityType: world.ParseEntityType("battleship1")})

	boat := &world.Entity{EntityType: world.ParseEntityType("fishingBoat")}
	if !h.nearAny(boat, 5) {
		t.Errorf("expected a boat too close to another boat to be blocked from spawning")
	}

	h2 := newTestHub()
	h2.world.AddEntity(&world.Entity{EntityType: world.ParseEntityType("crate")})
	boat2 := &world.Entity{EntityType: world.ParseEntityType("fishingBoat")}
	if h2.nearAny(boat2, 5) {
		t.Errorf("expected a boat to ignore nearby collectibles")
	}
}
