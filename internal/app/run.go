package app

import (
	"context"
	"fmt"
	"net"

	"github.com/specialistvlad/burstplan/internal/ctxlog"
	"github.com/specialistvlad/burstplan/internal/session"
	"golang.org/x/sync/errgroup"
)

// Run answers the configured query and prints the answer. When a health
// check port is set, the health server runs alongside the session and stops
// with it.
func (a *App) Run(ctx context.Context) (*session.Result, error) {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.")

	g, gctx := errgroup.WithContext(ctx)
	sessionCtx, stop := context.WithCancel(gctx)
	defer stop()

	if a.config.HealthcheckPort > 0 {
		l, err := net.Listen("tcp", fmt.Sprintf(":%d", a.config.HealthcheckPort))
		if err != nil {
			return nil, fmt.Errorf("failed to listen for health checks: %w", err)
		}
		g.Go(func() error { return a.serveHealthcheck(sessionCtx, l) })
	}

	var result *session.Result
	g.Go(func() error {
		defer stop()
		s, err := a.factory.NewSession(sessionCtx)
		if err != nil {
			return err
		}
		defer s.Close(sessionCtx)

		a.logger.Info("Starting query.", "session", s.ID().String())
		res, err := s.Answer(sessionCtx, a.config.Query)
		if err != nil {
			return fmt.Errorf("session failed: %w", err)
		}
		result = res
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	a.logger.Info("Query finished.", "rounds", len(result.Rounds), "forced", result.Forced)
	a.logger.Debug("App.Run method finished.")
	fmt.Fprintln(a.outW, result.Answer)
	return result, nil
}
