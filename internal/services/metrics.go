package services

import "github.com/prometheus/client_golang/prometheus"

// Domain-level counters. HTTP traffic metrics live in the middleware
// package; these track the business events an operator actually watches.
var (
	purchasesRecorded = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payguard_purchases_recorded_total",
			Help: "Confirmed purchases appended to the ledger, by source.",
		},
		[]string{"source"},
	)

	paymentsDeclined = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "payguard_payments_declined_total",
			Help: "Pending payments declined by the admin.",
		},
	)

	invitesIssued = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payguard_invites_issued_total",
			Help: "Single-use invite links created, by channel tag.",
		},
		[]string{"tag"},
	)

	joinDecisions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payguard_join_decisions_total",
			Help: "Join request gatekeeper decisions.",
		},
		[]string{"decision"},
	)
)

func init() {
	prometheus.MustRegister(purchasesRecorded, paymentsDeclined, invitesIssued, joinDecisions)
}
