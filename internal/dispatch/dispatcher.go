package dispatch

import (
	"fmt"
	"strconv"
	"strings"

	"gallery-ingest/internal/ingest"
	"gallery-ingest/internal/logging"
	"gallery-ingest/internal/metrics"
)

// Dispatcher delivers encoded results through a Messenger on a Context.
type Dispatcher struct {
	ctx       Context
	messenger Messenger
}

// NewDispatcher returns a Dispatcher that sends through m on ctx.
func NewDispatcher(ctx Context, m Messenger) *Dispatcher {
	return &Dispatcher{ctx: ctx, messenger: m}
}

// Deliver posts result for target/method. It returns a
// CallbackDeliveryFailed error if the context refused the post; the result
// is then dropped. Messenger failures happen later, on the context, and are
// only logged.
func (d *Dispatcher) Deliver(result ingest.SaveResult, target, method string) error {
	payload := Encode(result)

	err := d.ctx.Post(func() {
		logging.Debug("dispatch: sending %q to %s.%s", payload, target, method)
		if err := d.messenger.SendMessage(target, method, payload); err != nil {
			metrics.CallbacksTotal.WithLabelValues("failed").Inc()
			logging.Error("dispatch: request %d: failed to send result to %s.%s: %v", result.RequestID, target, method, err)
			return
		}
		metrics.CallbacksTotal.WithLabelValues("delivered").Inc()
	})
	if err != nil {
		metrics.CallbacksTotal.WithLabelValues("dropped").Inc()
		derr := &ingest.Error{Kind: ingest.CallbackDeliveryFailed, Op: "post result", Err: err}
		logging.Warn("dispatch: request %d: result dropped: %v", result.RequestID, derr)
		return derr
	}
	return nil
}

// Encode formats r as "requestId|success|resultPath|message".
func Encode(r ingest.SaveResult) string {
	return strconv.Itoa(r.RequestID) + "|" + strconv.FormatBool(r.Success) + "|" + r.ResultPath + "|" + r.Message
}

// Decode parses a string produced by Encode.
func Decode(s string) (ingest.SaveResult, error) {
	parts := strings.SplitN(s, "|", 4)
	if len(parts) != 4 {
		return ingest.SaveResult{}, fmt.Errorf("malformed result %q: want 4 fields, got %d", s, len(parts))
	}

	id, err := strconv.Atoi(parts[0])
	if err != nil {
		return ingest.SaveResult{}, fmt.Errorf("malformed request id %q: %w", parts[0], err)
	}

	var success bool
	switch parts[1] {
	case "true":
		success = true
	case "false":
	default:
		return ingest.SaveResult{}, fmt.Errorf("malformed success flag %q", parts[1])
	}

	return ingest.SaveResult{
		RequestID:  id,
		Success:    success,
		ResultPath: parts[2],
		Message:    parts[3],
	}, nil
}
