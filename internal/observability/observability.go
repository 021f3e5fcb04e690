// Package observability starts trace and log export, continuous profiling and
// the pprof listener for the service.
package observability

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/riskibarqy/cebl-gameday/internal/config"
	"github.com/riskibarqy/cebl-gameday/internal/platform/logging"
)

// Runtime owns every observability component started for the process.
type Runtime struct {
	logger       *logging.Logger
	stopUptrace  func(context.Context) error
	stopProfiler func() error
	pprof        *http.Server
	pprofAddr    string
}

func Start(cfg config.Config, logger *logging.Logger) (*Runtime, error) {
	if logger == nil {
		logger = logging.Default()
	}
	rt := &Runtime{
		logger:       logger.Named("observability"),
		stopUptrace:  func(context.Context) error { return nil },
		stopProfiler: func() error { return nil },
	}

	var err error
	if rt.stopUptrace, err = initUptrace(cfg, rt.logger); err != nil {
		return nil, fmt.Errorf("init uptrace: %w", err)
	}
	if rt.stopProfiler, err = initPyroscope(cfg, rt.logger); err != nil {
		rt.stopProfiler = func() error { return nil }
		_ = rt.Shutdown(context.Background())
		return nil, fmt.Errorf("init pyroscope: %w", err)
	}
	if rt.pprof, rt.pprofAddr, err = startPprof(cfg, rt.logger); err != nil {
		_ = rt.Shutdown(context.Background())
		return nil, fmt.Errorf("start pprof: %w", err)
	}

	return rt, nil
}

// PprofAddr is the bound pprof address, or empty when pprof is disabled.
func (r *Runtime) PprofAddr() string {
	return r.pprofAddr
}

// Shutdown stops components in reverse start order and flushes pending
// telemetry.
func (r *Runtime) Shutdown(ctx context.Context) error {
	var errs []error
	if r.pprof != nil {
		if err := r.pprof.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("stop pprof: %w", err))
		} else {
			r.logger.Info("pprof server stopped")
		}
	}
	if err := r.stopProfiler(); err != nil {
		errs = append(errs, fmt.Errorf("stop pyroscope: %w", err))
	}
	if err := r.stopUptrace(ctx); err != nil {
		errs = append(errs, fmt.Errorf("stop uptrace: %w", err))
	}
	return errors.Join(errs...)
}
