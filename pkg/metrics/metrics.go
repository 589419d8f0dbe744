package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors for the banking core.
type Metrics struct {
	TransfersCompleted   prometheus.Counter
	TransfersFailed      prometheus.Counter
	TransactionsAppended *prometheus.CounterVec
	AmountMoved          prometheus.Counter
	AccountsOpened       prometheus.Counter
}

// New creates and registers all collectors on the default registry.
func New() *Metrics {
	return &Metrics{
		TransfersCompleted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "corebank_transfers_completed_total",
			Help: "Total number of committed two-leg transfers",
		}),
		TransfersFailed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "corebank_transfers_failed_total",
			Help: "Total number of transfers rejected or rolled back",
		}),
		TransactionsAppended: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "corebank_transactions_appended_total",
			Help: "Total number of ledger entries appended, by type",
		}, []string{"type"}),
		AmountMoved: promauto.NewCounter(prometheus.CounterOpts{
			Name: "corebank_amount_moved_cents_total",
			Help: "Total amount moved by committed transfers, in cents",
		}),
		AccountsOpened: promauto.NewCounter(prometheus.CounterOpts{
			Name: "corebank_accounts_opened_total",
			Help: "Total number of accounts opened",
		}),
	}
}

// NewForTest creates collectors on a private registry so parallel tests
// do not collide on duplicate registration.
func NewForTest() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Metrics{
		TransfersCompleted: factory.NewCounter(prometheus.CounterOpts{
			Name: "corebank_transfers_completed_total",
			Help: "Total number of committed two-leg transfers",
		}),
		TransfersFailed: factory.NewCounter(prometheus.CounterOpts{
			Name: "corebank_transfers_failed_total",
			Help: "Total number of transfers rejected or rolled back",
		}),
		TransactionsAppended: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "corebank_transactions_appended_total",
			Help: "Total number of ledger entries appended, by type",
		}, []string{"type"}),
		AmountMoved: factory.NewCounter(prometheus.CounterOpts{
			Name: "corebank_amount_moved_cents_total",
			Help: "Total amount moved by committed transfers, in cents",
		}),
		AccountsOpened: factory.NewCounter(prometheus.CounterOpts{
			Name: "corebank_accounts_opened_total",
			Help: "Total number of accounts opened",
		}),
	}
}
