package main

import (
	"log"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	connectionsAccepted = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "volebox_connections_accepted_total",
		Help: "Number of TCP connections accepted.",
	})

	messagesReceived = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "volebox_messages_received_total",
		Help: "Number of protocol messages received from clients.",
	})

	messagesSent = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "volebox_messages_sent_total",
		Help: "Number of protocol messages written to clients.",
	})

	clientsGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "volebox_clients",
		Help: "Number of connected clients, registered or not.",
	})

	channelsGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "volebox_channels",
		Help: "Number of channels in existence.",
	})
)

func init() {
	prometheus.MustRegister(connectionsAccepted)
	prometheus.MustRegister(messagesReceived)
	prometheus.MustRegister(messagesSent)
	prometheus.MustRegister(clientsGauge)
	prometheus.MustRegister(channelsGauge)
}

// updateGauges refreshes the point-in-time gauges from server state.
//
// Note: Only the server goroutine should call this (it reads the maps).
func (s *Server) updateGauges() {
	clientsGauge.Set(float64(len(s.Clients) + len(s.Users)))
	channelsGauge.Set(float64(len(s.Channels)))
}

// serveMetrics exposes the prometheus registry over HTTP. A failure here
// costs us metrics, not the server.
func serveMetrics(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	go func() {
		if err := http.ListenAndServe(addr, mux); err != nil {
			log.Printf("Metrics listener error: %s", err)
		}
	}()
}
