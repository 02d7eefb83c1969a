package serving

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/imishinist/mlops-pipeline/internal/logger"
)

const shutdownTimeout = 10 * time.Second

type Server struct {
	httpServer *http.Server
}

func NewServer(addr string, predictor Predictor, verbose bool) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:    addr,
			Handler: NewRouter(predictor, verbose),
		},
	}
}

// Serve blocks until ctx is done or the listener fails, then drains in-flight requests.
func (s *Server) Serve(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		logger.Infof("started prediction service at %s", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("prediction service shutdown failed: %v", err)
		return err
	}
	logger.Infof("prediction service stopped")
	return nil
}
