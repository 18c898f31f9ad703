// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package contact

import (
	"github.com/ironclad-games/flotilla/world"
	"testing"
)

func TestSnapshot_PropagateMovesTowardVelocityTarget(t *testing.T) {
	snapshot := Snapshot{
		EntityType: world.ParseEntityType("battleship1"),
		Guidance:   world.Guidance{VelocityTarget: world.ToVelocity(10)},
	}

	for i := 0; i < 100; i++ {
		snapshot.Propagate(1.0 / 10)
	}

	if snapshot.Transform.Velocity <= 0 {
		t.Errorf("expected velocity to approach target, got %v", snapshot.Transform.Velocity)
	}
}

func TestSnapshot_PropagateMovesPosition(t *testing.T) {
	snapshot := Snapshot{
		EntityType: world.ParseEntityType("battleship1"),
		Transform:  world.Transform{Velocity: world.ToVelocity(10)},
		Guidance:   world.Guidance{VelocityTarget: world.ToVelocity(10)},
	}

	snapshot.Propagate(1.0)

	if snapshot.Transform.Position.LengthSquared() == 0 {
		t.Errorf("expected position to change when moving at speed")
	}
}

func TestSnapshot_PropagateClampsSubmergedProjectile(t *testing.T) {
	snapshot := Snapshot{
		EntityType: world.ParseEntityType("missile1"),
		Altitude:   -0.5,
		Guidance:   world.Guidance{VelocityTarget: world.ToVelocity(200)},
	}

	for i := 0; i < 200; i++ {
		snapshot.Propagate(1.0 / 10)
	}

	if snapshot.Transform.Velocity.Float() > surfacingProjectileSpeedLimit+1 {
		t.Errorf("expected submerged projectile speed to be clamped, got %v", snapshot.Transform.Velocity)
	}
}
