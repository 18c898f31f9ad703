// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package sector

import (
	"fmt"
	"github.com/chewxy/math32"
	"github.com/ironclad-games/flotilla/world"
	"math/rand"
	"testing"
)

func populatedWorld(entityCount int, radius float32) (*World, []world.EntityID) {
	w := New(radius)
	entityIDs := make([]world.EntityID, entityCount)

	for i := 0; i < entityCount; i++ {
		entityType := world.EntityType(rand.Intn(world.EntityTypeCount-1) + 1)
		pos := world.Vec2f{X: rand.Float32()*radius*2 - radius, Y: rand.Float32()*radius*2 - radius}

		entity := world.Entity{
			EntityType: entityType,
			Transform: world.Transform{
				Position:  pos,
				Velocity:  world.ToVelocity(rand.Float32() * entityType.Data().Speed.Float()),
				Direction: world.ToAngle(rand.Float32() * math32.Pi * 2),
			},
		}
		entityIDs[i] = w.AddEntity(&entity)
	}

	return w, entityIDs
}

func TestWorld_AddEntityThenEntityByID(t *testing.T) {
	w, entityIDs := populatedWorld(64, 500)

	for _, id := range entityIDs {
		found := false
		w.EntityByID(id, func(entity *world.Entity) (remove bool) {
			found = entity != nil
			return
		})
		if !found {
			t.Errorf("entity %v not found after AddEntity", id)
		}
	}

	if w.Count() != len(entityIDs) {
		t.Errorf("Count() = %d, want %d", w.Count(), len(entityIDs))
	}
}

func TestWorld_ForEntitiesInRadiusFindsEveryoneAtOrigin(t *testing.T) {
	w, entityIDs := populatedWorld(0, 500)

	for i := 0; i < 32; i++ {
		entityIDs = append(entityIDs, w.AddEntity(&world.Entity{EntityType: world.ParseEntityType("crate")}))
	}

	seen := 0
	w.ForEntitiesInRadius(world.Vec2f{}, 1, func(_ float32, _ world.EntityID, _ *world.Entity) (stop bool) {
		seen++
		return
	})

	if seen != len(entityIDs) {
		t.Errorf("ForEntitiesInRadius found %d entities at origin, want %d", seen, len(entityIDs))
	}
}

func BenchmarkWorld_EntityByID(b *testing.B) {
	for _, count := range []int{64, 1024, 16384} {
		b.Run(fmt.Sprintf("entities=%d", count), func(b *testing.B) {
			w, entityIDs := populatedWorld(count, 500)
			b.ResetTimer()

			for i := 0; i < b.N; i++ {
				id := entityIDs[i%len(entityIDs)]
				w.EntityByID(id, func(entity *world.Entity) (remove bool) { return })
			}
		})
	}
}

func BenchmarkWorld_ForEntitiesInRadius(b *testing.B) {
	for _, count := range []int{64, 1024, 16384} {
		b.Run(fmt.Sprintf("entities=%d", count), func(b *testing.B) {
			w, entityIDs := populatedWorld(count, 500)
			b.ResetTimer()

			for i := 0; i < b.N; i++ {
				var entity *world.Entity
				id := entityIDs[i%len(entityIDs)]
				w.EntityByID(id, func(e *world.Entity) (remove bool) {
					entity = e
					return
				})
				radius := entity.Data().Radius * 2
				w.ForEntitiesInRadius(entity.Position, radius, func(_ float32, _ world.EntityID, _ *world.Entity) (stop bool) { return })
			}
		})
	}
}

func BenchmarkWorld_ForEntities(b *testing.B) {
	for _, count := range []int{64, 1024, 16384} {
		b.Run(fmt.Sprintf("entities=%d", count), func(b *testing.B) {
			w, _ := populatedWorld(count, 500)
			b.ResetTimer()

			for i := 0; i < b.N; {
				w.ForEntities(func(_ *world.Entity) (stop, _ bool) {
					i++
					stop = i >= b.N
					return
				})
			}
		})
	}
}
