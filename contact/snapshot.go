// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package contact

import "github.com/ironclad-games/flotilla/world"

// Snapshot is the minimal view of a contact needed to interpolate its
// position, guidance, and turret angles between server Updates. It holds
// only what propagation/interpolation needs, independent of the wire
// encoding (arena.Contact) so this package has no dependency on arena.
type Snapshot struct {
	EntityType   world.EntityType
	Transform    world.Transform
	Guidance     world.Guidance
	Altitude     float32
	TurretAngles []world.Angle
}

// surfacingProjectileSpeedLimit caps submerged missiles/rockets/SAMs until
// they breach the surface. Entity.Update on the server applies no such cap;
// there, missiles, rockets and SAMs never have a negative altitude.
const surfacingProjectileSpeedLimit float32 = 20

// Propagate advances the snapshot by deltaSeconds using the same guidance +
// kinematics integration the server applies to entities, so a client can
// estimate a contact's position between updates instead of freezing it.
// Aircraft steering towards their owner's turret target, and the slowdown
// that lets aircraft catch up with each other, are not reproduced.
func (snapshot *Snapshot) Propagate(deltaSeconds float32) {
	data := snapshot.EntityType.Data()

	maxSpeed := data.Speed
	switch data.SubKind {
	case world.EntitySubKindMissile, world.EntitySubKindRocket, world.EntitySubKindSAM:
		if snapshot.Altitude < 0 {
			// Wait until risen to the surface before using full speed.
			maxSpeed = world.ToVelocity(surfacingProjectileSpeedLimit)
		}
	}

	if data.SubKind != world.EntitySubKindShell && data.SubKind != world.EntitySubKindRocket {
		deltaAngle := snapshot.Guidance.DirectionTarget.Diff(snapshot.Transform.Direction)
		turnRate := (world.Pi / 4).Float()
		if data.SubKind != world.EntitySubKindAircraft {
			speed := snapshot.Transform.Velocity.Float()
			if speed < 0 {
				speed = -speed
			}
			turnRate *= clampF(1-speed/(maxSpeed.Float()+1), 0.25, 1)
			maxSpeed = world.ToVelocity(maxSpeed.Float() / clampF(deltaAngle.Abs()*deltaAngle.Abs(), 1, 100))
		}
		snapshot.Transform.Direction += deltaAngle.ClampMagnitude(world.ToAngle(deltaSeconds * turnRate))
	}

	targetVelocity := snapshot.Guidance.VelocityTarget.ClampMagnitude(maxSpeed)
	deltaVelocity := targetVelocity - snapshot.Transform.Velocity
	snapshot.Transform.Velocity += world.ToVelocity(deltaSeconds * deltaVelocity.ClampMagnitude(world.ToVelocity(800 * deltaSeconds)).Float())

	snapshot.Transform.Position = snapshot.Transform.Position.AddScaled(snapshot.Transform.Direction.Vec2f(), deltaSeconds*snapshot.Transform.Velocity.Float())
}
