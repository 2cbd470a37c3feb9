package obs

import (
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	domainOnce sync.Once

	// PaymentInitiateTotal counts payment initiation attempts by result.
	PaymentInitiateTotal *prometheus.CounterVec
	// PaymentStatusTotal counts gateway status polls by mapped status.
	PaymentStatusTotal *prometheus.CounterVec
	// PaymentCallbackTotal counts inbound gateway callback processing outcomes.
	PaymentCallbackTotal *prometheus.CounterVec
	// ServiceabilityChecksTotal counts serviceability lookups by outcome.
	ServiceabilityChecksTotal *prometheus.CounterVec
	// PincodeUpdatesTotal counts pincode selection updates.
	PincodeUpdatesTotal prometheus.Counter
	// ReconcileRunsTotal counts reconciliation worker passes by result.
	ReconcileRunsTotal *prometheus.CounterVec
)

// MustRegisterDomainMetrics initialises and registers domain-specific Prometheus collectors.
func MustRegisterDomainMetrics(namespace string, reg prometheus.Registerer) {
	domainOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		PaymentInitiateTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payment_initiate_total",
			Help:      "Count of payment initiation outcomes.",
		}, []string{"result"})
		PaymentStatusTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payment_status_total",
			Help:      "Count of gateway status polls by mapped status.",
		}, []string{"status"})
		PaymentCallbackTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payment_callback_total",
			Help:      "Count of processed gateway callbacks by outcome.",
		}, []string{"result"})
		ServiceabilityChecksTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "serviceability_checks_total",
			Help:      "Count of serviceability lookups by outcome.",
		}, []string{"outcome"})
		PincodeUpdatesTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pincode_updates_total",
			Help:      "Total number of pincode selection updates applied.",
		})
		ReconcileRunsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reconcile_runs_total",
			Help:      "Count of payment reconciliation passes by result.",
		}, []string{"result"})

		mustRegisterCollector(reg, PaymentInitiateTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				PaymentInitiateTotal = v
			}
		})
		mustRegisterCollector(reg, PaymentStatusTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				PaymentStatusTotal = v
			}
		})
		mustRegisterCollector(reg, PaymentCallbackTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				PaymentCallbackTotal = v
			}
		})
		mustRegisterCollector(reg, ServiceabilityChecksTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				ServiceabilityChecksTotal = v
			}
		})
		mustRegisterCollector(reg, PincodeUpdatesTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(prometheus.Counter); ok {
				PincodeUpdatesTotal = v
			}
		})
		mustRegisterCollector(reg, ReconcileRunsTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				ReconcileRunsTotal = v
			}
		})
	})
}

func mustRegisterCollector(reg prometheus.Registerer, collector prometheus.Collector, reuse func(prometheus.Collector)) {
	if err := reg.Register(collector); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if reuse != nil {
				reuse(are.ExistingCollector)
			}
			return
		}
		panic(fmt.Errorf("register metric: %w", err))
	}
}
