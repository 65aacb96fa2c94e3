package cache

import "time"

// Collection keys. Invalidation is per collection, never per row.
const (
	KeyMatches       = "matches:all"
	KeyRecentMatches = "recent-matches:all"
	KeyMatchStats    = "matches:stats"
	KeyTickets       = "tickets:all"
	KeyNews          = "news:all"
	KeyTeam          = "team:all"
)

const (
	TTLTickets       = 60 * time.Second
	TTLMatches       = 30 * time.Minute
	TTLRecentMatches = 30 * time.Minute
	TTLMatchStats    = 30 * time.Minute
	TTLNews          = time.Hour
	TTLTeam          = time.Hour
)

// MatchWriteKeys are stale after any change to the match table.
func MatchWriteKeys() []string {
	return []string{KeyMatches, KeyRecentMatches, KeyMatchStats, KeyTickets}
}

// PurchaseKeys are stale after a ticket is committed.
func PurchaseKeys() []string {
	return []string{KeyTickets, KeyMatches}
}
