// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package arena

import (
	"github.com/ironclad-games/flotilla/terrain"
	"github.com/ironclad-games/flotilla/world"
	"github.com/ironclad-games/flotilla/world/sector"
	"os"
	"sync"
	"sync/atomic"
	"time"
)

const (
	botPeriod        = time.Second / 4
	debugPeriod      = time.Second * 5
	housekeepPeriod  = time.Second
	spawnPeriod      = housekeepPeriod
	updatePeriod     = world.TickPeriod

	// encodeBotMessages makes BotClient.Send marshal json and check for errors.
	// Only useful for testing/benchmarking (drops performance significantly).
	encodeBotMessages = false

	// defaultExclusionRadius and defaultExclusionWindow back the
	// respawn exclusion zone named as an implementer-configurable
	// constant in the design notes: a disc around a recent death
	// location where the dead player may not respawn.
	defaultExclusionRadius = 1250
	defaultExclusionWindow = 10 * time.Second
)

// Config holds the process-level knobs that were design-note "open
// questions" in the spec rather than hard constants: the exclusion
// zone's radius and time window.
type Config struct {
	MinPlayers      int
	Auth            string
	ExclusionRadius float32
	ExclusionWindow time.Duration
}

// DefaultConfig returns the configuration the reference deployment uses.
func DefaultConfig() Config {
	return Config{
		ExclusionRadius: defaultExclusionRadius,
		ExclusionWindow: defaultExclusionWindow,
	}
}

// Hub maintains the set of active clients and broadcasts messages to the clients.
type Hub struct {
	// World state
	world       *sector.World
	worldRadius float32 // interpolated
	terrain     terrain.Terrain
	clients     ClientList // implemented as double-linked list
	despawn     ClientList // clients that are being removed
	teams       map[world.TeamID]*Team

	// Config
	config Config

	// statusJSON is served atomically by HTTP for operational dashboards.
	statusJSON atomic.Value

	// chats are buffered until next update.
	chats []Chat
	// funcBenches are benchmarks of core Hub functions.
	funcBenches []funcBench

	// Inbound channels
	inbound    chan SignedInbound
	register   chan Client
	unregister chan Client

	// Timer based events
	updateTicker     *time.Ticker
	updateCounter    int
	updateTime       time.Time
	housekeepTicker  *time.Ticker
	debugTicker      *time.Ticker
	botsTicker       *time.Ticker

	// Per-IP connection throttling
	ipMu    sync.RWMutex
	ipConns map[string]int
}

// NewHub constructs a Hub ready to Run.
func NewHub(config Config) *Hub {
	minPlayers := config.MinPlayers
	if config.ExclusionRadius == 0 {
		config.ExclusionRadius = defaultExclusionRadius
	}
	if config.ExclusionWindow == 0 {
		config.ExclusionWindow = defaultExclusionWindow
	}

	radius := max(world.MinRadius, world.RadiusOf(minPlayers))
	return &Hub{
		world:           sector.New(radius),
		terrain:         terrain.New(terrain.NewDefaultSource()),
		worldRadius:     radius,
		teams:           make(map[world.TeamID]*Team),
		config:          config,
		ipConns:         make(map[string]int),
		inbound:         make(chan SignedInbound, 16+minPlayers*2),
		register:        make(chan Client, 8+minPlayers/256+1),
		unregister:      make(chan Client, 16+minPlayers/128+1),
		updateTicker:    time.NewTicker(updatePeriod),
		updateTime:      time.Now(),
		housekeepTicker: time.NewTicker(housekeepPeriod),
		debugTicker:     time.NewTicker(debugPeriod),
		botsTicker:      time.NewTicker(botPeriod),
	}
}

// Run is the hub's tick loop. It never returns under normal operation.
func (h *Hub) Run() {
	defer func() {
		if r := recover(); r != nil {
			panic(r)
		}
		println("hub exited") // don't waste time debugging hub exits
		os.Exit(1)
	}()

	for {
		select {
		case client := <-h.register:
			h.clients.Add(client)
			client.Data().Hub = h
			client.Init()
		case client := <-h.unregister:
			client.Close()
			player := &client.Data().Player.Player

			// Player no longer is joining teams
			// May want to do this during despawn because clearing team requests in O(n).
			h.clearTeamRequests(player)

			// Removes team or transfers ownership, if applicable
			h.leaveTeam(player)

			client.Data().Hub = nil
			h.clients.Remove(client)

			// Remove in Despawn during the next housekeeping pass.
			h.despawn.Add(client)
		case in := <-h.inbound:
			// Read all messages currently in the channel
			n := len(h.inbound)

			for {
				// If not same hub the message is old
				data := in.Client.Data()
				if h == data.Hub {
					in.Inbound(h, in.Client, &data.Player)
				}

				if n--; n <= 0 {
					break
				}

				in = <-h.inbound
			}
		case <-h.updateTicker.C:
			now := time.Now()
			timeDelta := now.Sub(h.updateTime) + updatePeriod/10 // Kludge factor
			h.updateTime = now

			// Falling behind skip tick
			if timeDelta%updatePeriod > updatePeriod/5 {
				break
			}

			ticks := world.Ticks(timeDelta / updatePeriod)
			h.Physics(ticks)
			h.Update()
		case <-h.housekeepTicker.C:
			h.terrain.Repair()
			h.Despawn()
			h.Spawn()
			h.ComputeAndBroadcastLeaderboard()

			h.worldRadius = world.Lerp(h.worldRadius, world.RadiusOf(h.clients.Len), 0.25)
			h.world.Resize(h.worldRadius)
		case <-h.debugTicker.C:
			h.Debug()
		case <-h.botsTicker.C:
			// Add as many as fit in the channel but don't block because it would deadlock
			for i := h.clients.Len + len(h.register) - len(h.unregister); i < h.config.MinPlayers; i++ {
				select {
				case h.register <- &BotClient{}:
				default:
					break
				}
			}
		}
	}
}

func (h *Hub) clearTeamRequests(player *world.Player) {
	for _, team := range h.teams {
		team.JoinRequests.Remove(player)
	}
}

// Removes a player from the team that they are on. If the player was the owner,
// transfers or deletes the team depending on if there are remaining members
func (h *Hub) leaveTeam(player *world.Player) {
	if team := h.teams[player.TeamID]; team != nil {
		team.Members.Remove(player)

		// Team is empty, delete it
		if len(team.Members) == 0 {
			delete(h.teams, player.TeamID)
		}
	}

	player.TeamID = world.TeamIDInvalid
}
