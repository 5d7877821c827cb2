/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	metricActiveRooms = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "gridbox_active_rooms",
		Help: "Number of rooms currently live.",
	})

	metricConnectedClients = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "gridbox_connected_clients",
		Help: "Number of websocket clients currently connected.",
	})

	metricClientEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gridbox_client_events_total",
		Help: "Client events processed by the broker, by event type.",
	}, []string{"event"})

	metricClaims = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gridbox_claims_total",
		Help: "Territory claim arbitration outcomes.",
	}, []string{"result"})
)

const (
	claimResultClaimed       = "claimed"
	claimResultRejectedTaken = "rejected_taken"
	claimResultRejectedWrong = "rejected_wrong"
)
