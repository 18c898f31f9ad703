// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package contact holds the client-side contact model (Snapshot propagation
// and InterpolatedContact smoothing) and the fire-rate limiter shared by the
// server's authoritative view of a boat and (in spirit) the client's
// locally-cached copy of the same state. The wire-level Contact type is
// arena.Contact.
package contact

import "time"

const (
	// bucket is how often counters are saturating-decremented.
	bucket = 100 * time.Millisecond
	// max is high enough to cover one round trip of lag.
	max = 3
)

// FireRateLimiter deduplicates fire commands arriving within one round trip,
// indexed by armament slot. It is a cheap backstop in front of the full
// reload/consumption accounting: a slot can show as available in the last
// Update a client received while the server has already started reloading
// it, and the limiter catches the double fire that would otherwise result.
type FireRateLimiter struct {
	counters []uint8
	carry    time.Duration
}

// NewFireRateLimiter allocates counters for the given number of armaments.
func NewFireRateLimiter(armaments int) *FireRateLimiter {
	return &FireRateLimiter{counters: make([]uint8, armaments)}
}

// Resize reallocates the counter array if the armament count changed, as
// happens when a boat upgrades to a different hull.
func (l *FireRateLimiter) Resize(armaments int) {
	if len(l.counters) != armaments {
		l.counters = make([]uint8, armaments)
	}
}

// Fired marks slot as just-fired, blocking it for the next few buckets.
func (l *FireRateLimiter) Fired(slot int) {
	if slot >= 0 && slot < len(l.counters) {
		l.counters[slot] = max
	}
}

// IsReady returns whether slot may fire again.
func (l *FireRateLimiter) IsReady(slot int) bool {
	return slot < 0 || slot >= len(l.counters) || l.counters[slot] == 0
}

// Advance saturating-decrements every counter once per elapsed bucket.
func (l *FireRateLimiter) Advance(delta time.Duration) {
	l.carry += delta
	for l.carry >= bucket {
		l.carry -= bucket
		for i, c := range l.counters {
			if c > 0 {
				l.counters[i] = c - 1
			}
		}
	}
}
