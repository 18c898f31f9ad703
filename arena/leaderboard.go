// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package arena

import (
	"sort"

	"github.com/ironclad-games/flotilla/world"
)

const leaderboardSize = 10

// Leaderboard computes the top scoring real players and broadcasts it to
// every connected client. Persistence/cross-restart ranking is explicitly
// out of scope; this is a snapshot of the currently connected population.
func (h *Hub) ComputeAndBroadcastLeaderboard() {
	var players []world.PlayerData

	for client := h.clients.First; client != nil; client = client.Data().Next {
		if _, bot := client.(*BotClient); bot {
			continue
		}
		player := &client.Data().Player.Player
		if player.Score > 0 {
			players = append(players, player.PlayerData)
		}
	}

	sort.Slice(players, func(i, j int) bool {
		return players[i].ScoreLess(&players[j])
	})

	if len(players) > leaderboardSize {
		players = players[:leaderboardSize]
	}

	board := Leaderboard{Leaderboard: players}
	for client := h.clients.First; client != nil; client = client.Data().Next {
		client.Send(board)
	}
}
