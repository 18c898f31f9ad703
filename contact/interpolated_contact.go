// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package contact

import "github.com/ironclad-games/flotilla/world"

// InterpolatedContact is a contact that may be locally controlled by
// simulation elsewhere (by the server). It tracks two copies of the
// contact's state: model, the more accurate representation snapped to
// server updates, and view, the rendered representation that is gradually
// interpolated towards model.
type InterpolatedContact struct {
	Model Snapshot
	View  Snapshot
	// Error integrates positional error to control rubber banding strength.
	// Having an error for longer means stronger interpolation back to model.
	Error float32
	// Idle is how many ticks since the contact last appeared in a server
	// update. If it exceeds the entity type's KeepAlive, the contact should
	// be treated as gone even absent an explicit removal.
	Idle world.Ticks
}

const (
	// baseRubberBand is the view's baseline closure rate towards model, in 1/s.
	baseRubberBand = 2.0
	// errorGain is the extra closure rate contributed per meter of Error.
	errorGain = 0.2
	// errorSmoothing controls how quickly Error tracks the instantaneous
	// position error between view and model.
	errorSmoothing = 0.5
)

// NewInterpolatedContact creates a contact whose view starts out identical
// to its model, since there's nothing yet to interpolate from.
func NewInterpolatedContact(snapshot Snapshot) *InterpolatedContact {
	return &InterpolatedContact{Model: snapshot, View: snapshot}
}

// Absorb folds a freshly received server snapshot into the model, resetting
// idle. On upgrade (entity type changed while the contact id stayed the
// same) the turret arrays are replaced wholesale rather than interpolated,
// since the old angles no longer correspond to the new turret layout.
func (contact *InterpolatedContact) Absorb(next Snapshot) {
	upgraded := next.EntityType != contact.Model.EntityType
	contact.Model = next
	contact.Idle = 0
	if upgraded {
		contact.View.TurretAngles = append([]world.Angle(nil), next.TurretAngles...)
	}
}

// Stale reports whether the contact has gone unseen in updates long enough
// that it should be assumed to have disappeared.
func (contact *InterpolatedContact) Stale() bool {
	return contact.Idle > contact.Model.EntityType.KeepAlive()
}

// Step advances idle bookkeeping, propagates the model forward with
// Snapshot.Propagate, and eases the view towards the model.
func (contact *InterpolatedContact) Step(deltaSeconds float32) {
	contact.Idle += world.ToTicks(deltaSeconds)
	contact.Model.Propagate(deltaSeconds)
	contact.stepView(deltaSeconds)
}

func (contact *InterpolatedContact) stepView(deltaSeconds float32) {
	model, view := &contact.Model, &contact.View

	positionError := model.Transform.Position.Distance(view.Transform.Position)
	contact.Error += (positionError - contact.Error) * clampF(deltaSeconds*errorSmoothing, 0, 1)

	strength := baseRubberBand + contact.Error*errorGain
	t := clampF(strength*deltaSeconds, 0, 1)

	view.Transform.Position = view.Transform.Position.Lerp(model.Transform.Position, t)
	view.Transform.Direction = view.Transform.Direction.Lerp(model.Transform.Direction, t)
	view.Transform.Velocity = world.ToVelocity(world.Lerp(view.Transform.Velocity.Float(), model.Transform.Velocity.Float(), t))
	view.Altitude = world.Lerp(view.Altitude, model.Altitude, t)

	contact.stepTurrets(deltaSeconds)
}

// stepTurrets interpolates each turret angle towards model at a maximum
// step of TurretTurnRate*dt; a deviation larger than TurretTurnRate*0.2s is
// considered too large to chase smoothly and snaps instead, to avoid
// visibly lagging turrets after a big server correction.
func (contact *InterpolatedContact) stepTurrets(deltaSeconds float32) {
	model, view := &contact.Model, &contact.View

	if len(view.TurretAngles) != len(model.TurretAngles) {
		view.TurretAngles = append([]world.Angle(nil), model.TurretAngles...)
		return
	}

	maxStep := world.ToAngle(world.TurretTurnRate * deltaSeconds)
	const snapThreshold = world.TurretTurnRate * 0.2

	for i, modelAngle := range model.TurretAngles {
		deviation := modelAngle.Diff(view.TurretAngles[i])
		if deviation.Abs() > snapThreshold {
			view.TurretAngles[i] = modelAngle
			continue
		}
		view.TurretAngles[i] += deviation.ClampMagnitude(maxStep)
	}
}

func clampF(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
