// ABOUTME: Gin router and HTTP server for the therapy JSON API.
// ABOUTME: Serve shuts the listener down cleanly when the context ends.
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/harperreed/therapose/internal/logger"
)

func NewRouter(h *Handler, log *logger.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestLogger(log))

	r.GET("/healthcheck", h.HealthCheck)

	api := r.Group("/api")
	{
		api.GET("/postures/:therapyType", h.PosturesForTherapy)

		api.GET("/patients/:id/series", h.PatientSeries)
		api.DELETE("/patients/:id", h.DeletePatient)

		api.GET("/instructors/:id/patients", h.InstructorPatients)

		api.GET("/series/:id/postures", h.SeriesPostures)
		api.GET("/series/:id/sessions", h.SeriesSessions)
		api.POST("/series/:id/sessions", h.RecordSession)
		api.DELETE("/series/:id", h.DeleteSeries)
	}

	return r
}

type Server struct {
	Engine *gin.Engine
	log    *logger.Logger
}

func NewServer(h *Handler, log *logger.Logger) *Server {
	if log == nil {
		log = logger.Nop()
	}
	return &Server{Engine: NewRouter(h, log), log: log}
}

// Serve listens on address until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, address string) error {
	srv := &http.Server{
		Addr:              address,
		Handler:           s.Engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("API listening", "addr", address)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.log.Info("API shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}
