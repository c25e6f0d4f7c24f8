package probe

import "fmt"

// Outcome classifies how a probe attempt ended.
type Outcome int

const (
	// Success means a parseable response with the query's id arrived in time.
	Success Outcome = iota
	// Timeout means no matching response arrived before the deadline.
	Timeout
	// NetworkError means the send or receive failed outright (refused, unreachable).
	NetworkError
	// MalformedResponse means a datagram for this query could not be parsed as DNS.
	MalformedResponse
)

var outcomeNames = [...]string{
	Success:           "success",
	Timeout:           "timeout",
	NetworkError:      "network_error",
	MalformedResponse: "malformed_response",
}

func (o Outcome) String() string {
	if o < 0 || int(o) >= len(outcomeNames) {
		return fmt.Sprintf("outcome(%d)", int(o))
	}
	return outcomeNames[o]
}

// MarshalText renders the outcome by name for JSON output.
func (o Outcome) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// Failed reports whether the outcome is anything other than Success.
func (o Outcome) Failed() bool { return o != Success }
