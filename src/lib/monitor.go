package lib

import (
	"log"
	"time"
)

const (
	PaymentEventsTopic = "payment-events"
	APIMetricsTopic    = "api-metrics"
)

// MonitorPaymentEvent reports a payment lifecycle event
// ("initiated", "failed") to the monitoring sink. Fire-and-forget:
// runs on its own goroutine and only ever logs on failure, so the
// reservation protocol can never be blocked or failed by monitoring.
func MonitorPaymentEvent(event string, payload map[string]any) {
	go func() {
		body := map[string]any{
			"event": event,
			"at":    time.Now().UTC().Format(time.RFC3339),
		}
		for k, v := range payload {
			body[k] = v
		}
		if err := KafkaProduceMessage(PaymentEventsTopic, body); err != nil {
			log.Printf("[monitor] Could not publish payment event %s: %s\n", event, err.Error())
		}
	}()
}

// MonitorAPIRequest reports request latency and status, same
// fire-and-forget contract as MonitorPaymentEvent.
func MonitorAPIRequest(method, path string, status int, latency time.Duration) {
	go func() {
		body := map[string]any{
			"method":     method,
			"path":       path,
			"status":     status,
			"latency_ms": latency.Milliseconds(),
			"at":         time.Now().UTC().Format(time.RFC3339),
		}
		if err := KafkaProduceMessage(APIMetricsTopic, body); err != nil {
			log.Printf("[monitor] Could not publish api metric: %s\n", err.Error())
		}
	}()
}
