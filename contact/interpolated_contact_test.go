// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package contact

import (
	"github.com/ironclad-games/flotilla/world"
	"testing"
)

func crateSnapshot(position world.Vec2f) Snapshot {
	return Snapshot{
		EntityType: world.ParseEntityType("crate"),
		Transform:  world.Transform{Position: position},
	}
}

func TestInterpolatedContact_StepClosesOnModel(t *testing.T) {
	ic := NewInterpolatedContact(crateSnapshot(world.Vec2f{}))
	ic.Absorb(crateSnapshot(world.Vec2f{X: 100}))

	prev := ic.View.Transform.Position.Distance(ic.Model.Transform.Position)
	for i := 0; i < 60; i++ {
		ic.Step(1.0 / 10)
		dist := ic.View.Transform.Position.Distance(ic.Model.Transform.Position)
		if dist > prev+0.001 {
			t.Fatalf("view diverged from model: %f > %f", dist, prev)
		}
		prev = dist
	}

	if prev > 1.0 {
		t.Errorf("view never converged on model, remaining distance %f", prev)
	}
}

func TestInterpolatedContact_SustainedErrorIncreasesRubberBand(t *testing.T) {
	ic := NewInterpolatedContact(crateSnapshot(world.Vec2f{}))
	ic.Absorb(crateSnapshot(world.Vec2f{X: 1000}))

	ic.Step(1.0 / 10)
	errorAfterOneStep := ic.Error

	for i := 0; i < 20; i++ {
		ic.Absorb(crateSnapshot(ic.Model.Transform.Position.Add(world.Vec2f{X: 1000})))
		ic.Step(1.0 / 10)
	}

	if ic.Error <= errorAfterOneStep {
		t.Errorf("expected sustained deviation to grow Error, got %f <= %f", ic.Error, errorAfterOneStep)
	}
}

func TestInterpolatedContact_TurretSnapsPastThreshold(t *testing.T) {
	ic := NewInterpolatedContact(Snapshot{
		EntityType:   world.ParseEntityType("crate"),
		TurretAngles: []world.Angle{0},
	})
	ic.Absorb(Snapshot{
		EntityType:   world.ParseEntityType("crate"),
		TurretAngles: []world.Angle{world.ToAngle(2.0)},
	})

	ic.Step(1.0 / 10)

	if ic.View.TurretAngles[0] != ic.Model.TurretAngles[0] {
		t.Errorf("expected turret to snap to model angle, got %v want %v", ic.View.TurretAngles[0], ic.Model.TurretAngles[0])
	}
}

func TestInterpolatedContact_TurretLerpsWithinStep(t *testing.T) {
	ic := NewInterpolatedContact(Snapshot{
		EntityType:   world.ParseEntityType("crate"),
		TurretAngles: []world.Angle{0},
	})
	target := world.ToAngle(0.05)
	ic.Absorb(Snapshot{
		EntityType:   world.ParseEntityType("crate"),
		TurretAngles: []world.Angle{target},
	})

	ic.Step(1.0 / 10)

	if ic.View.TurretAngles[0] == 0 {
		t.Errorf("expected turret to move towards model, stayed at 0")
	}
	if ic.View.TurretAngles[0] != target && ic.View.TurretAngles[0].Diff(target).Abs() >= target.Abs() {
		t.Errorf("expected turret to move towards but not past target, got %v want near %v", ic.View.TurretAngles[0], target)
	}
}

func TestInterpolatedContact_AbsorbReplacesTurretsWholesaleOnUpgrade(t *testing.T) {
	ic := NewInterpolatedContact(Snapshot{
		EntityType:   world.ParseEntityType("crate"),
		TurretAngles: []world.Angle{world.ToAngle(1), world.ToAngle(2)},
	})
	ic.Absorb(Snapshot{
		EntityType:   world.ParseEntityType("battleship1"),
		TurretAngles: []world.Angle{world.ToAngle(3)},
	})

	if len(ic.View.TurretAngles) != 1 || ic.View.TurretAngles[0] != world.ToAngle(3) {
		t.Errorf("expected view turrets replaced wholesale on upgrade, got %v", ic.View.TurretAngles)
	}
}

func TestInterpolatedContact_Stale(t *testing.T) {
	ic := NewInterpolatedContact(crateSnapshot(world.Vec2f{}))
	if ic.Stale() {
		t.Errorf("freshly created contact should not be stale")
	}

	ic.Idle = ic.Model.EntityType.KeepAlive() + 1
	if !ic.Stale() {
		t.Errorf("expected contact to be stale once idle exceeds KeepAlive")
	}
}
