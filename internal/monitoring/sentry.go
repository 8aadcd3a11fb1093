package monitoring

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gestionale-crm/crm-api/internal/config"
	"github.com/getsentry/sentry-go"
	"go.uber.org/zap"
)

// InitSentry configures the sentry client. Without a DSN error reporting
// stays disabled and CaptureError is a no-op.
func InitSentry(cfg *config.MonitoringConfig, release string, logger *zap.Logger) (bool, error) {
	if cfg.SentryDSN == "" {
		logger.Info("Sentry DSN not set, error reporting disabled")
		return false, nil
	}

	err := sentry.Init(sentry.ClientOptions{
		Dsn:              cfg.SentryDSN,
		Environment:      cfg.SentryEnvironment,
		Release:          release,
		SampleRate:       1.0,
		TracesSampleRate: cfg.SentrySampleRate,
		BeforeSend: func(event *sentry.Event, _ *sentry.EventHint) *sentry.Event {
			event.User = sentry.User{ID: event.User.ID}
			if event.Request != nil {
				scrubHeaders(event.Request.Headers)
			}
			return event
		},
	})
	if err != nil {
		return false, fmt.Errorf("failed to initialize sentry: %w", err)
	}

	logger.Info("Sentry initialized", zap.String("environment", cfg.SentryEnvironment))
	return true, nil
}

// Flush waits for buffered events before shutdown
func Flush() {
	sentry.Flush(2 * time.Second)
}

// CaptureError reports err with the given tags
func CaptureError(err error, tags map[string]string) {
	if err == nil {
		return
	}
	sentry.WithScope(func(scope *sentry.Scope) {
		for k, v := range tags {
			scope.SetTag(k, v)
		}
		sentry.CaptureException(err)
	})
}

// CapturePanic reports a recovered panic value for a request
func CapturePanic(recovered interface{}, r *http.Request) {
	hub := sentry.CurrentHub().Clone()
	hub.Scope().SetRequest(r)
	hub.Scope().SetTag("http.method", r.Method)
	hub.Recover(recovered)
}

func scrubHeaders(headers map[string]string) {
	for k := range headers {
		switch http.CanonicalHeaderKey(k) {
		case "Authorization", "Cookie", "Set-Cookie":
			headers[k] = "[FILTERED]"
		}
	}
}
