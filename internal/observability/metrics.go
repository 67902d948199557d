package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RedisErrorRate counts Redis errors by operation type.
	RedisErrorRate = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "grapes_redis_error_rate_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})

	// CacheLookups counts read-through cache lookups by key family and result.
	CacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "grapes_cache_lookups_total",
		Help: "Cache lookups by key family and result (hit, miss)",
	}, []string{"family", "result"})

	// DatabaseQueryLatency records database query latency by operation and table.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "grapes_database_query_latency_seconds",
		Help:    "Database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})

	// PlayersRegistered counts successful registrations.
	PlayersRegistered = promauto.NewCounter(prometheus.CounterOpts{
		Name: "grapes_players_registered_total",
		Help: "Total number of registered players",
	})

	// LoginAttempts counts login attempts by result.
	LoginAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "grapes_login_attempts_total",
		Help: "Login attempts by result (success, failure)",
	}, []string{"result"})

	// PlayerLevelUps counts levels gained through experience grants.
	PlayerLevelUps = promauto.NewCounter(prometheus.CounterOpts{
		Name: "grapes_player_level_ups_total",
		Help: "Total number of levels gained by players",
	})

	// FriendshipTransitions counts friendship lifecycle events.
	FriendshipTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "grapes_friendship_transitions_total",
		Help: "Friendship lifecycle events (requested, accepted, rejected, removed)",
	}, []string{"transition"})

	// BattleTransitions counts battle lifecycle events by counterpart kind.
	BattleTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "grapes_battle_transitions_total",
		Help: "Battle lifecycle events (created, paid, deleted) by counterpart kind (friend, external)",
	}, []string{"transition", "counterpart"})

	// PlayersTotal is the number of players, refreshed by the stats job.
	PlayersTotal = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "grapes_players",
		Help: "Number of players",
	})

	// PendingBattles is the number of unsettled battles, refreshed by the stats job.
	PendingBattles = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "grapes_battles_pending",
		Help: "Number of battles not yet paid",
	})

	// PendingDebt is the sum of all unsettled battle amounts, refreshed by the stats job.
	PendingDebt = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "grapes_battles_pending_amount",
		Help: "Sum of the amounts of battles not yet paid",
	})

	// PendingFriendRequests is the number of unanswered friend requests, refreshed by the stats job.
	PendingFriendRequests = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "grapes_friend_requests_pending",
		Help: "Number of friend requests awaiting an answer",
	})
)

// ObserveQuery records the latency of a database query.
func ObserveQuery(operation, table string, start time.Time) {
	DatabaseQueryLatency.WithLabelValues(operation, table).Observe(time.Since(start).Seconds())
}

// TrackQuery returns a function that records query latency when called (e.g. defer).
func TrackQuery(operation, table string) func() {
	start := time.Now()
	return func() {
		ObserveQuery(operation, table, start)
	}
}
