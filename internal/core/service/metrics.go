package service

import "github.com/rl1809/inventory-ledger/internal/core/domain"

// Metrics receives outcome counts from the services.
type Metrics interface {
	StockAdjusted(direction domain.Direction, outcome string)
	WorkflowFinished(operation string, state string)
}

type nopMetrics struct{}

func (nopMetrics) StockAdjusted(domain.Direction, string) {}
func (nopMetrics) WorkflowFinished(string, string)        {}

func orNop(m Metrics) Metrics {
	if m == nil {
		return nopMetrics{}
	}
	return m
}
