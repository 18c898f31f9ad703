// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package arena

import (
	"github.com/chewxy/math32"
	"github.com/ironclad-games/flotilla/world"
	"runtime"
	"sync"
	"time"
)

// Update sends an Update message to each Client.
// It's run in parallel because it doesn't write to World
func (h *Hub) Update() {
	defer h.timeFunction("update", time.Now())

	cpus := runtime.NumCPU()
	if cpus > 1 && h.world.SetParallel(true) {
		var wait sync.WaitGroup
		wait.Add(cpus)
		input := make(chan Client, cpus*2)

		for i := 0; i < cpus; i++ {
			go func(hub *Hub, in <-chan Client, wg *sync.WaitGroup) {
				j := 0
				for c := range in {
					// 1/8 of clients get a forced terrain update each time
					hub.updateClient(c, (hub.updateCounter+j)%8 == 0)
					j++
				}
				wg.Done()
			}(h, input, &wait)
		}

		for client := h.clients.First; client != nil; client = client.Data().Next {
			input <- client
		}

		close(input)
		wait.Wait()

		h.world.SetParallel(false)
	} else {
		j := 0
		for client := h.clients.First; client != nil; client = client.Data().Next {
			h.updateClient(client, (h.updateCounter+j)%8 == 0)
			j++
		}
	}

	// chats have been sent, reset the buffer
	// Cannot reuse slice because would cause data race
	h.chats = nil
	for _, team := range h.teams {
		team.Chats = nil
	}

	h.updateCounter++
}

// Sends an Update to a Client containing contacts, chat, and team info.
// Can be safely called concurrently once per client/player.
func (h *Hub) updateClient(client Client, forceSendTerrain bool) {
	update := NewUpdate()
	p := &client.Data().Player
	player := &p.Player

	update.EntityID = player.EntityID
	update.PlayerID = player.PlayerID()
	update.DeathMessage = player.DeathMessage
	update.WorldRadius = h.worldRadius
	update.Chats = h.chats

	h.world.EntityByID(player.EntityID, func(ship *world.Entity) (_ bool) {
		var visualRange float32
		var radarRange float32
		var sonarRange float32
		var position world.Vec2f

		if ship != nil {
			position, visualRange, radarRange, sonarRange = ship.Camera()
		} else {
			position, visualRange, radarRange, sonarRange = p.Camera()
		}

		maxRange := max(visualRange, max(radarRange, sonarRange))

		// Make subsequent math more efficient by squaring and inverting
		visualRangeInv := invSquare(visualRange)
		radarRangeInv := invSquare(radarRange)
		sonarRangeInv := invSquare(sonarRange)

		active := ship != nil && ship.IsActive()
		observerSpeed := float32(0)
		if ship != nil {
			observerSpeed = math32.Abs(ship.Velocity.Float())
		}

		h.world.ForEntitiesInRadius(position, maxRange, func(distanceSquared float32, _ world.EntityID, entity *world.Entity) (_ bool) {
			known := entity.Owner == player || (distanceSquared < 800*800 && entity.Owner.Friendly(player))
			alt := entity.Altitude()

			// visible means contact's position is known precisely (controls
			// whether the client is told the exact transform)
			var visible bool
			// uncertainty is the error of the best sensor that detected the
			// contact: 0 is perfect certainty, >=1 means no sensor saw it.
			var uncertainty float32

			if !known {
				data := entity.Data()

				invSize := data.InvSize // cached 1.0 / min(1, data.Radius*(1.0/30.0)*(1-data.Stealth))
				defaultRatio := distanceSquared * invSize
				uncertainty = 1.0
				entityAbsVel := math32.Abs(entity.Velocity.Float())

				if radarRangeInv != 0 && alt >= -0.1 {
					radarRatio := defaultRatio * radarRangeInv

					if active {
						// Active radar sees moving targets more easily.
						uncertainty = min(uncertainty, radarRatio*15/(15+entityAbsVel))
					}

					// Always-on passive radar: a constant factor over the
					// target's emission (how much radio noise it gives off).
					const baseFactor = 25.0
					const baseEmission = 5.0
					emission := float32(baseEmission)
					if data.Kind == world.EntityKindBoat {
						const boatEmission = 5.0
						emission += boatEmission
						if entity.IsActive() && sensorRange(data, world.SensorTypeRadar) > 0 {
							const activeEmission = 20.0
							emission += activeEmission
						}
					} else if data.SubKind == world.EntitySubKindMissile {
						const missileEmission = 30.0
						emission += missileEmission
					}
					passiveRadarRatio := baseFactor / emission
					uncertainty = min(uncertainty, passiveRadarRatio)
				}

				if sonarRangeInv != 0 && alt <= 0 {
					sonarRatio := defaultRatio * sonarRangeInv

					if active {
						// Active sonar.
						uncertainty = min(uncertainty, sonarRatio)
					}

					// Beyond this point sonarRatio means passive sonar ratio.
					noise := max(2, entityAbsVel-4)
					switch data.Kind {
					case world.EntityKindBoat, world.EntityKindWeapon, world.EntityKindDecoy:
						noise *= 2
						if data.Kind != world.EntityKindBoat {
							noise += 100
						} else if entity.IsActive() && sensorRange(data, world.SensorTypeSonar) > 0 {
							noise += 20
						}
					}
					sonarRatio /= noise

					// Making noise of your own reduces the performance of
					// passive sonar (self-noise masking).
					sonarRatio *= 20 + observerSpeed
					uncertainty = min(uncertainty, sonarRatio)
				}

				if visualRangeInv != 0 {
					visualRatio := defaultRatio * visualRangeInv
					if alt < 0.0 {
						visualRatio /= clamp(alt+1.0, 0.05, 0.8)
					}
					visible = visualRatio < 1
					uncertainty = min(uncertainty, visualRatio)
				}

				if data.Kind == world.EntityKindWeapon && ship != nil && entity.IsInCloseProximityTo(ship) {
					// Give players a fighting chance by showing mines/torpedoes
					// that are homing in on them, regardless of sensor range.
					uncertainty = 0.4
				}

				if uncertainty >= 1.0 {
					return
				}
			}

			// Grow slice if too small
			if contacts := update.Contacts; len(contacts) == cap(contacts) {
				update.Contacts = append(contacts, IDContact{})[:len(contacts)]
			}

			// Ensure space for new contact
			n := len(update.Contacts)
			update.Contacts = update.Contacts[:n+1]
			c := &update.Contacts[n]

			data := entity.Data()
			// Optionality encodes knowledge fidelity: EntityType is only
			// revealed when it's cheap to infer (collectibles are always
			// identifiable by silhouette), the contact is friendly, sensor
			// uncertainty is low, or the contact is very close.
			hasType := data.Kind == world.EntityKindCollectible || known ||
				uncertainty < 0.5 || distanceSquared < 100*100

			c.Uncertainty = uncertainty
			c.Transform = entity.Transform
			c.EntityID = entity.EntityID
			if hasType {
				c.EntityType = entity.EntityType
			}
			c.Altitude = alt

			if known || visible {
				if data.Kind == world.EntityKindBoat {
					// Both slices are copy on write so don't have to copy on read
					c.ArmamentConsumption = entity.ArmamentConsumption()
					c.TurretAngles = entity.TurretAngles()

					c.Damage = entity.DamagePercent()
				}

				// You only know the Guidance of allies
				if known {
					c.Guidance = entity.Guidance
				}
			}

			if c.Uncertainty < 0.75 && entity.Owner != nil {
				c.Friendly = entity.Owner.Friendly(player)
				c.IDPlayerData = entity.Owner.IDPlayerData()
			}

			return
		})

		// Only send terrain to real players for now
		if _, ok := client.(*SocketClient); ok {
			// Shape the terrain rectangle to the client's reported viewport
			// aspect ratio (from Hint), keeping area roughly constant, so
			// wide/tall screens aren't shorted on one axis.
			aspect := p.Aspect
			if aspect <= 0 {
				aspect = 1
			}
			scale := math32.Sqrt(aspect)
			halfWidth := visualRange * scale
			halfHeight := visualRange / scale

			terrainPos := position.Sub(world.Vec2f{X: halfWidth, Y: halfHeight})
			aabb := world.AABBFrom(terrainPos.X, terrainPos.Y, halfWidth*2, halfHeight*2)

			// If terrain changed
			if clamped := h.terrain.Clamp(aabb); p.TerrainArea != clamped || forceSendTerrain {
				p.TerrainArea = clamped
				update.Terrain = h.terrain.At(aabb)
			}
		}

		return
	})

	if team := h.teams[player.TeamID]; team != nil {
		update.TeamChats = team.Chats
		update.TeamMembers = team.Members.AppendData(update.TeamMembers)

		// Only team owner gets the requests
		if player == team.Owner() {
			update.TeamCode = team.Code
			update.TeamRequests = team.JoinRequests.AppendData(update.TeamRequests)
		}
	}

	// Client pools update when its done with it
	client.Send(update)
}

// sensorRange returns the range of the first sensor of the given type, or 0
// if the EntityType has no such sensor.
func sensorRange(data *world.EntityTypeData, sensorType world.SensorType) float32 {
	for _, sensor := range data.Sensors {
		if sensor.Type == sensorType {
			return sensor.Range
		}
	}
	return 0
}
