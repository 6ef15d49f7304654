package types

type SuccessEnvelope struct {
	Data    any      `json:"data"`
	Notices []Notice `json:"notices,omitempty"`
}

type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

// Notice is a non-blocking, user-visible message attached to an otherwise
// successful payload, e.g. when an external provider was degraded.
type Notice struct {
	Source  string `json:"source"`
	Message string `json:"message"`
}
