package metrics

import (
	"net/http"
	"time"
)

// InstrumentedTransport wraps an http.RoundTripper and feeds the external
// call metrics for one named collaborator. Any 5xx or transport error counts
// as a failure.
type InstrumentedTransport struct {
	Collaborator string
	Metrics      *ExternalCallMetrics
	Base         http.RoundTripper
}

func (t *InstrumentedTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}

	start := time.Now()
	resp, err := base.RoundTrip(req)
	t.Metrics.ObserveDuration(t.Collaborator, time.Since(start))

	if err != nil || resp.StatusCode >= http.StatusInternalServerError {
		t.Metrics.IncFailure(t.Collaborator)
	} else {
		t.Metrics.IncSuccess(t.Collaborator)
	}
	return resp, err
}

// InstrumentedClient builds an http.Client routed through an
// InstrumentedTransport with the given timeout.
func InstrumentedClient(collaborator string, m *ExternalCallMetrics, timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
		Transport: &InstrumentedTransport{
			Collaborator: collaborator,
			Metrics:      m,
		},
	}
}
