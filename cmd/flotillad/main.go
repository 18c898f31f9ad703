// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package main

import (
	"flag"
	"fmt"
	"log"
	"net"
	"net/http"
	_ "net/http/pprof"
	"time"

	"github.com/ironclad-games/flotilla/arena"
	"golang.org/x/net/netutil"
)

func main() {
	var (
		auth             string
		port             int
		players          int
		maxConnections   int
		exclusionRadius  float64
		exclusionSeconds int
	)

	flag.StringVar(&auth, "auth", "", "admin auth code, required to spawn above level 1")
	flag.IntVar(&port, "port", 8192, "http service port")
	flag.IntVar(&players, "players", 40, "minimum number of players, padded with bots")
	flag.IntVar(&maxConnections, "max-connections", 256, "maximum number of inbound TCP connections")
	flag.Float64Var(&exclusionRadius, "exclusion-radius", 1250, "meters around a recent death a player may not respawn")
	flag.IntVar(&exclusionSeconds, "exclusion-seconds", 10, "seconds after a death the exclusion zone applies")
	flag.Parse()

	if players < 0 {
		log.Fatal("invalid argument players: ", players)
	}

	config := arena.DefaultConfig()
	config.MinPlayers = players
	config.Auth = auth
	config.ExclusionRadius = float32(exclusionRadius)
	config.ExclusionWindow = time.Duration(exclusionSeconds) * time.Second

	hub := arena.NewHub(config)
	go hub.Run()

	if port < 0 {
		log.Println("flotilla simulation started")
		// Block forever
		<-make(chan struct{})
	}

	log.Println("flotilla server started")

	http.HandleFunc("/", hub.ServeIndex)
	http.HandleFunc("/ws", hub.ServeSocket)

	l, err := net.Listen("tcp", fmt.Sprint(":", port))
	if err != nil {
		log.Fatalf("Listen: %v", err)
	}
	defer l.Close()

	l = netutil.LimitListener(l, maxConnections)

	log.Fatal("ListenAndServe: ", http.Serve(l, nil))
}
