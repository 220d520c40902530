package metrics

import (
	"context"
	"fmt"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/push"
	"github.com/qubic/go-tx-engine/business/domain/ledger"
	"github.com/qubic/go-tx-engine/entities"
)

const (
	outcomeApplied = "applied"
	outcomeSkipped = "skipped"
)

// Metrics tracks the work of the reducer. It is registered as a ledger observer.
type Metrics struct {
	recordCount         *prometheus.CounterVec
	skippedRecordCount  *prometheus.CounterVec
	accountsGauge       prometheus.Gauge
	lockedAccountsGauge prometheus.Gauge
	heldFundsGauge      prometheus.Gauge
}

var _ ledger.Observer = &Metrics{}

func NewMetrics(namespace string, registerer prometheus.Registerer) *Metrics {
	factory := promauto.With(registerer)
	m := Metrics{
		recordCount: factory.NewCounterVec(prometheus.CounterOpts{
			Name: fmt.Sprintf("%s_records_total", namespace),
			Help: "The total number of processed records",
		}, []string{"type", "outcome"}),
		skippedRecordCount: factory.NewCounterVec(prometheus.CounterOpts{
			Name: fmt.Sprintf("%s_skipped_records_total", namespace),
			Help: "The total number of records that did not change the ledger",
		}, []string{"reason"}),
		accountsGauge: factory.NewGauge(prometheus.GaugeOpts{
			Name: fmt.Sprintf("%s_accounts", namespace),
			Help: "The number of known accounts",
		}),
		// ledger summary, set once the batch is done
		lockedAccountsGauge: factory.NewGauge(prometheus.GaugeOpts{
			Name: fmt.Sprintf("%s_locked_accounts", namespace),
			Help: "The number of locked accounts",
		}),
		heldFundsGauge: factory.NewGauge(prometheus.GaugeOpts{
			Name: fmt.Sprintf("%s_held_funds", namespace),
			Help: "The sum of held funds over all accounts",
		}),
	}
	return &m
}

func (m *Metrics) AccountOpened(_ entities.ClientID) {
	m.accountsGauge.Inc()
}

func (m *Metrics) Applied(record entities.Record, _ entities.Account) {
	m.recordCount.WithLabelValues(record.Type.String(), outcomeApplied).Inc()
}

func (m *Metrics) Skipped(record entities.Record, reason ledger.SkipReason) {
	m.recordCount.WithLabelValues(record.Type.String(), outcomeSkipped).Inc()
	m.skippedRecordCount.WithLabelValues(string(reason)).Inc()
}

func (m *Metrics) SetLedgerSummary(accounts []entities.Account) {
	var locked int
	var held float64
	for _, account := range accounts {
		if account.Locked {
			locked++
		}
		held += account.Amounts.Held.InexactFloat64()
	}
	m.lockedAccountsGauge.Set(float64(locked))
	m.heldFundsGauge.Set(held)
}

// Push sends all gathered metrics to a Prometheus Pushgateway. Batch runs end
// before they could be scraped.
func Push(ctx context.Context, url, job string, gatherer prometheus.Gatherer) error {
	err := push.New(url, job).Gatherer(gatherer).PushContext(ctx)
	if err != nil {
		return errors.Wrapf(err, "pushing metrics to [%s]", url)
	}
	return nil
}
