package observability

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/xraph/alloc/types"
)

// StateSource is the read side of an *alloc.Ledger.
type StateSource interface {
	AllocCount() uint64
	AllocAmount() types.Amount
	SaleMax() uint64
	Admins() []common.Address
}

type stateCollector struct {
	src StateSource

	allocations *prometheus.Desc
	amount      *prometheus.Desc
	saleMax     *prometheus.Desc
	admins      *prometheus.Desc
}

// NewStateCollector exposes the ledger's totals as gauges read at scrape time.
func NewStateCollector(src StateSource) prometheus.Collector {
	return &stateCollector{
		src: src,
		allocations: prometheus.NewDesc(
			"alloc_allocations",
			"Number of committed allocations",
			nil, nil,
		),
		amount: prometheus.NewDesc(
			"alloc_allocated_amount",
			"Sum of all committed allocations in token base units",
			nil, nil,
		),
		saleMax: prometheus.NewDesc(
			"alloc_sale_max",
			"Highest sale id ever configured",
			nil, nil,
		),
		admins: prometheus.NewDesc(
			"alloc_admins",
			"Number of administrators",
			nil, nil,
		),
	}
}

func (c *stateCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.allocations
	ch <- c.amount
	ch <- c.saleMax
	ch <- c.admins
}

func (c *stateCollector) Collect(ch chan<- prometheus.Metric) {
	amount, _ := new(big.Float).SetInt(c.src.AllocAmount().Big()).Float64()
	ch <- prometheus.MustNewConstMetric(c.allocations, prometheus.GaugeValue, float64(c.src.AllocCount()))
	ch <- prometheus.MustNewConstMetric(c.amount, prometheus.GaugeValue, amount)
	ch <- prometheus.MustNewConstMetric(c.saleMax, prometheus.GaugeValue, float64(c.src.SaleMax()))
	ch <- prometheus.MustNewConstMetric(c.admins, prometheus.GaugeValue, float64(len(c.src.Admins())))
}
