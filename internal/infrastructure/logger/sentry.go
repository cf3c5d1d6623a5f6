package logger

import (
	"fmt"
	"net/http"
	"time"

	"github.com/getsentry/sentry-go"
)

var sentryEnabled bool

// InitSentry configures error reporting; an empty dsn leaves it disabled
func InitSentry(dsn, environment, release string) error {
	if dsn == "" {
		return nil
	}
	err := sentry.Init(sentry.ClientOptions{
		Dsn:          dsn,
		Environment:  environment,
		Release:      release,
		IgnoreErrors: []string{"write: broken pipe"},
	})
	if err != nil {
		return fmt.Errorf("unable to init Sentry: %w", err)
	}
	sentryEnabled = true
	return nil
}

// FlushSentry waits for buffered events to be delivered
func FlushSentry(timeout time.Duration) {
	if sentryEnabled {
		sentry.Flush(timeout)
	}
}

// reportPanic sends a recovered panic with request details to Sentry
func reportPanic(r *http.Request, recovered any, userID string) {
	if !sentryEnabled {
		return
	}
	sentry.WithScope(func(scope *sentry.Scope) {
		scope.SetRequest(r)
		if userID != "" {
			scope.SetUser(sentry.User{ID: userID})
		}
		scope.SetLevel(sentry.LevelFatal)
		if err, ok := recovered.(error); ok {
			sentry.CaptureException(err)
			return
		}
		sentry.CaptureException(fmt.Errorf("panic: %v", recovered))
	})
}
