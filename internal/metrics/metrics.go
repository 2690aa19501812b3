// Package metrics exposes Prometheus collectors for game activity.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/rocketscienceinc/tictactoe-hotseat/internal/entity"
)

const namespace = "tictactoe"

const (
	resultApplied = "applied"
	resultIgnored = "ignored"

	outcomeX    = "x"
	outcomeO    = "o"
	outcomeDraw = "draw"
)

type Metrics struct {
	// movesTotal counts move requests by whether the engine applied them.
	movesTotal *prometheus.CounterVec

	// gamesFinished counts games reaching a terminal outcome.
	gamesFinished *prometheus.CounterVec

	restartsTotal  prometheus.Counter
	sessionsActive prometheus.Gauge
}

// New - creates the collectors and registers them with registerer.
func New(registerer prometheus.Registerer) *Metrics {
	that := &Metrics{
		movesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "moves_total",
				Help:      "Move requests by result",
			},
			[]string{"result"},
		),
		gamesFinished: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "games_finished_total",
				Help:      "Finished games by outcome",
			},
			[]string{"outcome"},
		),
		restartsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "restarts_total",
				Help:      "Board restarts",
			},
		),
		sessionsActive: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "sessions_active",
				Help:      "Boards currently held in memory",
			},
		),
	}

	registerer.MustRegister(
		that.movesTotal,
		that.gamesFinished,
		that.restartsTotal,
		that.sessionsActive,
	)

	return that
}

func (that *Metrics) MoveApplied() {
	that.movesTotal.WithLabelValues(resultApplied).Inc()
}

func (that *Metrics) MoveIgnored() {
	that.movesTotal.WithLabelValues(resultIgnored).Inc()
}

// GameFinished - records a terminal outcome. In-progress outcomes are ignored.
func (that *Metrics) GameFinished(outcome entity.Outcome) {
	switch {
	case outcome.IsDraw():
		that.gamesFinished.WithLabelValues(outcomeDraw).Inc()
	case outcome.IsWin() && outcome.Winner == entity.MarkX:
		that.gamesFinished.WithLabelValues(outcomeX).Inc()
	case outcome.IsWin() && outcome.Winner == entity.MarkO:
		that.gamesFinished.WithLabelValues(outcomeO).Inc()
	}
}

func (that *Metrics) Restarted() {
	that.restartsTotal.Inc()
}

func (that *Metrics) SessionsActive(count int) {
	that.sessionsActive.Set(float64(count))
}
