package rtvi

import "time"

// Instrumentation observes engine activity. internal/metrics provides a
// Prometheus implementation.
type Instrumentation interface {
	RequestSent(msgType string)
	RequestCompleted(msgType string, elapsed time.Duration, err error)
	PendingRequests(n int)
	MessageReceived(msgType string)
	StateChanged(state TransportState)
	ConnectCompleted(err error)
}

type noopInstrumentation struct{}

func (noopInstrumentation) RequestSent(string)                            {}
func (noopInstrumentation) RequestCompleted(string, time.Duration, error) {}
func (noopInstrumentation) PendingRequests(int)                           {}
func (noopInstrumentation) MessageReceived(string)                        {}
func (noopInstrumentation) StateChanged(TransportState)                   {}
func (noopInstrumentation) ConnectCompleted(error)                        {}
