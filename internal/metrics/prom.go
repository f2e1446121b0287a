package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/pipecat-ai/rtvi-client-android/sdk/rtvi"
)

var (
	buildInfo = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "rtvi_build_info",
			Help: "Build information",
		},
		[]string{"component", "version", "sha", "date"},
	)

	requests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rtvi_client_requests_total",
			Help: "Requests sent to the bot",
		},
		[]string{"type", "outcome"},
	)

	requestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "rtvi_client_request_duration_seconds",
			Help:    "Time until a request was answered",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"type"},
	)

	pendingRequests = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "rtvi_client_pending_requests",
			Help: "Requests waiting for a reply",
		},
	)

	messagesReceived = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rtvi_client_messages_received_total",
			Help: "Messages received from the bot",
		},
		[]string{"type"},
	)

	transportState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "rtvi_client_transport_state",
			Help: "1 for the current transport state",
		},
		[]string{"state"},
	)

	connects = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rtvi_client_connect_total",
			Help: "Connection attempts",
		},
		[]string{"outcome"},
	)

	botMessages = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rtvi_mockbot_messages_total",
			Help: "Client messages handled by the mock bot",
		},
		[]string{"type"},
	)

	botSessions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "rtvi_mockbot_sessions",
			Help: "Open mock bot WebSocket sessions",
		},
	)
)

// Register registers the client metrics with the provided registerer.
func Register(r prometheus.Registerer) {
	r.MustRegister(buildInfo, requests, requestDuration, pendingRequests, messagesReceived, transportState, connects)
}

// RegisterBot registers the mock bot metrics with the provided registerer.
func RegisterBot(r prometheus.Registerer) {
	r.MustRegister(botMessages, botSessions)
}

// SetBuildInfo sets the build info metric for a component.
func SetBuildInfo(component, version, sha, date string) {
	buildInfo.WithLabelValues(component, version, sha, date).Set(1)
}

// RecordBotMessage counts a client message handled by the mock bot.
func RecordBotMessage(msgType string) {
	botMessages.WithLabelValues(msgType).Inc()
}

// AddBotSessions adjusts the open session gauge.
func AddBotSessions(delta int) {
	botSessions.Add(float64(delta))
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, rtvi.ErrTimeout):
		return "timeout"
	case errors.Is(err, rtvi.ErrOperationCancelled):
		return "cancelled"
	}
	return "error"
}

// Instrumentation feeds client engine activity into the metrics above.
type Instrumentation struct{}

var _ rtvi.Instrumentation = Instrumentation{}

func (Instrumentation) RequestSent(string) {}

func (Instrumentation) RequestCompleted(msgType string, elapsed time.Duration, err error) {
	requests.WithLabelValues(msgType, outcome(err)).Inc()
	if err == nil {
		requestDuration.WithLabelValues(msgType).Observe(elapsed.Seconds())
	}
}

func (Instrumentation) PendingRequests(n int) {
	pendingRequests.Set(float64(n))
}

func (Instrumentation) MessageReceived(msgType string) {
	messagesReceived.WithLabelValues(msgType).Inc()
}

func (Instrumentation) StateChanged(state rtvi.TransportState) {
	for _, s := range rtvi.AllStates() {
		v := 0.0
		if s == state {
			v = 1
		}
		transportState.WithLabelValues(s.String()).Set(v)
	}
}

func (Instrumentation) ConnectCompleted(err error) {
	connects.WithLabelValues(outcome(err)).Inc()
}
