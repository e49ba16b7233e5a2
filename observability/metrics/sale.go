package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

type SaleMetrics struct {
	purchases      *prometheus.CounterVec
	usdRaised      prometheus.Counter
	tokensSold     prometheus.Gauge
	stage          prometheus.Gauge
	claims         prometheus.Counter
	referralBonus  prometheus.Counter
	crossPurchases *prometheus.CounterVec
}

var (
	saleOnce     sync.Once
	saleRegistry *SaleMetrics
)

func Sale() *SaleMetrics {
	saleOnce.Do(func() {
		saleRegistry = &SaleMetrics{
			purchases: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "sale_purchases_total",
				Help: "Count of settled presale purchases by instrument.",
			}, []string{"instrument"}),
			usdRaised: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "sale_usd_raised_cents_total",
				Help: "USD cents raised across all instruments.",
			}),
			tokensSold: prometheus.NewGauge(prometheus.GaugeOpts{
				Name: "sale_tokens_sold",
				Help: "Cumulative sale tokens sold in base units.",
			}),
			stage: prometheus.NewGauge(prometheus.GaugeOpts{
				Name: "sale_stage",
				Help: "Current presale pricing stage.",
			}),
			claims: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "sale_claims_total",
				Help: "Count of settled allocation claims.",
			}),
			referralBonus: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "sale_referral_bonus_total",
				Help: "Count of referral bonus mints.",
			}),
			crossPurchases: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "crosschain_purchases_total",
				Help: "Count of attested cross-chain purchases by chain id.",
			}, []string{"chain"}),
		}
		prometheus.MustRegister(
			saleRegistry.purchases,
			saleRegistry.usdRaised,
			saleRegistry.tokensSold,
			saleRegistry.stage,
			saleRegistry.claims,
			saleRegistry.referralBonus,
			saleRegistry.crossPurchases,
		)
	})
	return saleRegistry
}

func (m *SaleMetrics) ObservePurchase(instrument string, usdCents uint64) {
	if m == nil {
		return
	}
	if instrument == "" {
		instrument = "unknown"
	}
	m.purchases.WithLabelValues(instrument).Inc()
	m.usdRaised.Add(float64(usdCents))
}

func (m *SaleMetrics) SetTokensSold(tokens float64) {
	if m == nil {
		return
	}
	m.tokensSold.Set(tokens)
}

func (m *SaleMetrics) SetStage(stage uint8) {
	if m == nil {
		return
	}
	m.stage.Set(float64(stage))
}

func (m *SaleMetrics) ObserveClaim() {
	if m == nil {
		return
	}
	m.claims.Inc()
}

func (m *SaleMetrics) ObserveReferralBonus() {
	if m == nil {
		return
	}
	m.referralBonus.Inc()
}

func (m *SaleMetrics) ObserveCrossPurchase(chain string) {
	if m == nil {
		return
	}
	if chain == "" {
		chain = "unknown"
	}
	m.crossPurchases.WithLabelValues(chain).Inc()
}
