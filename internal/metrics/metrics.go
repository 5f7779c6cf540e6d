package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/rl1809/inventory-ledger/internal/core/domain"
)

type Collector struct {
	stockAdjustments *prometheus.CounterVec
	workflows        *prometheus.CounterVec
}

func New(reg prometheus.Registerer) *Collector {
	c := &Collector{
		stockAdjustments: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "inventory",
			Name:      "stock_adjustments_total",
			Help:      "Stock adjustments by direction and outcome.",
		}, []string{"direction", "outcome"}),
		workflows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "inventory",
			Name:      "transaction_workflows_total",
			Help:      "Ledger create/delete workflows by terminal state.",
		}, []string{"operation", "state"}),
	}
	reg.MustRegister(c.stockAdjustments, c.workflows)
	return c
}

func (c *Collector) StockAdjusted(direction domain.Direction, outcome string) {
	c.stockAdjustments.WithLabelValues(string(direction), outcome).Inc()
}

func (c *Collector) WorkflowFinished(operation string, state string) {
	c.workflows.WithLabelValues(operation, state).Inc()
}
