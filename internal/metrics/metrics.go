package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ScoreSubmissions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "arcade_score_submissions_total",
		Help: "Score submissions by result (ok, failed, skipped).",
	}, []string{"game", "result"})

	LeaderboardFetches = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "arcade_leaderboard_fetches_total",
		Help: "Leaderboard fetches by result (ok, failed).",
	}, []string{"game", "result"})

	ChatPolls = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "arcade_chat_polls_total",
		Help: "Chat poll ticks by result (ok, failed).",
	}, []string{"result"})

	ActiveSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "arcade_active_sessions",
		Help: "Player sessions currently mounted.",
	})

	ChatSockets = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "arcade_chat_sockets",
		Help: "Open chat WebSocket connections.",
	})
)
