package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

type StakingMetrics struct {
	stakes       *prometheus.CounterVec
	totalStaked  prometheus.Gauge
	totalStakers prometheus.Gauge
	harvests     *prometheus.CounterVec
	unstakes     *prometheus.CounterVec
}

var (
	stakingOnce     sync.Once
	stakingRegistry *StakingMetrics
)

func Staking() *StakingMetrics {
	stakingOnce.Do(func() {
		stakingRegistry = &StakingMetrics{
			stakes: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "staking_stakes_total",
				Help: "Count of stakes opened by tier.",
			}, []string{"tier"}),
			totalStaked: prometheus.NewGauge(prometheus.GaugeOpts{
				Name: "staking_total_staked",
				Help: "Tokens currently bonded across all tiers in base units.",
			}),
			totalStakers: prometheus.NewGauge(prometheus.GaugeOpts{
				Name: "staking_total_stakers",
				Help: "Number of distinct wallets that have ever staked.",
			}),
			harvests: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "staking_harvests_total",
				Help: "Count of reward settlements by mode.",
			}, []string{"mode"}),
			unstakes: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "staking_unstakes_total",
				Help: "Count of unstake transitions by phase.",
			}, []string{"phase"}),
		}
		prometheus.MustRegister(
			stakingRegistry.stakes,
			stakingRegistry.totalStaked,
			stakingRegistry.totalStakers,
			stakingRegistry.harvests,
			stakingRegistry.unstakes,
		)
	})
	return stakingRegistry
}

func (m *StakingMetrics) ObserveStake(tier string) {
	if m == nil {
		return
	}
	if tier == "" {
		tier = "unknown"
	}
	m.stakes.WithLabelValues(tier).Inc()
}

func (m *StakingMetrics) SetTotalStaked(amount float64) {
	if m == nil {
		return
	}
	m.totalStaked.Set(amount)
}

func (m *StakingMetrics) SetTotalStakers(count uint64) {
	if m == nil {
		return
	}
	m.totalStakers.Set(float64(count))
}

func (m *StakingMetrics) ObserveHarvest(mode string) {
	if m == nil {
		return
	}
	if mode == "" {
		mode = "payout"
	}
	m.harvests.WithLabelValues(mode).Inc()
}

func (m *StakingMetrics) ObserveUnstake(phase string) {
	if m == nil {
		return
	}
	if phase == "" {
		phase = "unknown"
	}
	m.unstakes.WithLabelValues(phase).Inc()
}
