package bootstrap

import (
	"fmt"
	"time"

	"github.com/getsentry/sentry-go"
	"go.uber.org/zap"
)

// Reporter is the attached error-reporting client. The request layer sends it
// uncaught errors; bootstrap flushes it on shutdown.
type Reporter interface {
	CaptureException(err error)
	Flush(timeout time.Duration) bool
}

// ReporterFactory constructs a reporter bound to a DSN.
type ReporterFactory func(dsn, release string) (Reporter, error)

// ReporterCapability is the result of checking, once at startup, whether the
// error-reporting integration can be used in this runtime. Consumed
// explicitly by WireReporting; there is no ambient availability flag.
type ReporterCapability struct {
	Available bool
	Reason    string
	Factory   ReporterFactory
}

// AvailableReporter returns a capability backed by the given factory.
func AvailableReporter(factory ReporterFactory) ReporterCapability {
	return ReporterCapability{Available: true, Factory: factory}
}

// UnavailableReporter returns a capability that cannot construct a client.
func UnavailableReporter(reason string) ReporterCapability {
	return ReporterCapability{Available: false, Reason: reason}
}

// DetectReporter performs the runtime capability check for the default
// Sentry-backed reporter.
func DetectReporter() ReporterCapability {
	return AvailableReporter(newSentryReporter)
}

// WireReporting decides and applies activation of the error-reporting
// integration. It never fails: a missing DSN disables the integration, an
// unavailable or failing client degrades to a warning. The listener must
// start either way.
func WireReporting(dsn, release string, capability ReporterCapability, sugar *zap.SugaredLogger) Reporter {
	if dsn == "" {
		sugar.Info("Error reporting disabled: no DSN configured")
		return nil
	}

	if !capability.Available {
		sugar.Warnw("Error reporting unavailable, continuing without it",
			"reason", capability.Reason)
		return nil
	}

	reporter, err := capability.Factory(dsn, release)
	if err != nil {
		sugar.Warnw("Failed to initialize error reporting, continuing without it",
			"error", err)
		return nil
	}

	sugar.Info("Error reporting enabled")
	return reporter
}

// sentryReporter adapts the Sentry client to the Reporter interface.
type sentryReporter struct {
	hub *sentry.Hub
}

func newSentryReporter(dsn, release string) (Reporter, error) {
	client, err := sentry.NewClient(sentry.ClientOptions{
		Dsn:     dsn,
		Release: release,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create sentry client: %w", err)
	}
	return &sentryReporter{hub: sentry.NewHub(client, sentry.NewScope())}, nil
}

func (r *sentryReporter) CaptureException(err error) {
	r.hub.CaptureException(err)
}

func (r *sentryReporter) Flush(timeout time.Duration) bool {
	return r.hub.Flush(timeout)
}
