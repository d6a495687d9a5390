// ABOUTME: HTTP handlers exposing postures, series, sessions, and patients as JSON.
// ABOUTME: Each handler is a thin adapter over storage.Repository.
package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/harperreed/therapose/internal/logger"
	"github.com/harperreed/therapose/internal/models"
	"github.com/harperreed/therapose/internal/storage"
)

// Handler serves the therapy endpoints.
type Handler struct {
	repo storage.Repository
	log  *logger.Logger
}

func NewHandler(repo storage.Repository, log *logger.Logger) *Handler {
	if log == nil {
		log = logger.Nop()
	}
	return &Handler{repo: repo, log: log}
}

func (h *Handler) HealthCheck(c *gin.Context) {
	c.String(http.StatusOK, "ok")
}

// PosturesForTherapy handles GET /api/postures/:therapyType.
func (h *Handler) PosturesForTherapy(c *gin.Context) {
	label := c.Param("therapyType")
	tt, ok := models.ParseTherapyType(label)
	if !ok {
		tt = models.TherapyType(label)
	}
	refs, err := h.repo.PosturesForTherapyType(c.Request.Context(), tt)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "internal", err)
		return
	}
	RespondOK(c, gin.H{"postures": refs})
}

// PatientSeries handles GET /api/patients/:id/series.
func (h *Handler) PatientSeries(c *gin.Context) {
	series, err := h.repo.ListSeriesForPatient(c.Request.Context(), c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "internal", err)
		return
	}
	if series == nil {
		series = []*models.SeriesProgress{}
	}
	RespondOK(c, gin.H{"series": series})
}

// DeletePatient handles DELETE /api/patients/:id. The response carries the
// identity id the caller must revoke with the identity provider.
func (h *Handler) DeletePatient(c *gin.Context) {
	identityID, deleted, err := h.repo.DeletePatient(c.Request.Context(), c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "internal", err)
		return
	}
	if !deleted {
		RespondError(c, http.StatusNotFound, "not_found", errors.New("patient not found"))
		return
	}
	RespondOK(c, gin.H{"message": "patient deleted", "identity_id": identityID})
}

// InstructorPatients handles GET /api/instructors/:id/patients.
func (h *Handler) InstructorPatients(c *gin.Context) {
	ctx := c.Request.Context()
	inst, err := h.repo.GetInstructor(ctx, c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "internal", err)
		return
	}
	if inst == nil {
		RespondError(c, http.StatusNotFound, "not_found", errors.New("instructor not found"))
		return
	}
	patients, err := h.repo.ListPatientsForInstructor(ctx, inst.ID)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "internal", err)
		return
	}
	if patients == nil {
		patients = []*models.Patient{}
	}
	RespondOK(c, gin.H{"patients": patients})
}

// SeriesPostures handles GET /api/series/:id/postures.
func (h *Handler) SeriesPostures(c *gin.Context) {
	id, ok := seriesID(c)
	if !ok {
		return
	}
	postures, err := h.repo.ListSeriesPostures(c.Request.Context(), id)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "internal", err)
		return
	}
	RespondOK(c, gin.H{"postures": postures})
}

type sessionView struct {
	*models.Session
	DurationFormatted string `json:"duration_formatted"`
}

// SeriesSessions handles GET /api/series/:id/sessions.
func (h *Handler) SeriesSessions(c *gin.Context) {
	id, ok := seriesID(c)
	if !ok {
		return
	}
	sessions, err := h.repo.ListSessions(c.Request.Context(), id)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "internal", err)
		return
	}
	out := make([]sessionView, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, sessionView{Session: s, DurationFormatted: s.Duration()})
	}
	RespondOK(c, gin.H{"sessions": out})
}

type recordSessionRequest struct {
	IntensityBefore *int   `json:"intensity_before" binding:"required,min=0,max=4"`
	IntensityAfter  *int   `json:"intensity_after" binding:"required,min=0,max=4"`
	Comment         string `json:"comment"`
	StartTime       string `json:"start_time"`
	EndTime         string `json:"end_time"`
	Date            string `json:"date"`
}

// RecordSession handles POST /api/series/:id/sessions. Completed series
// refuse new sessions with 409.
func (h *Handler) RecordSession(c *gin.Context) {
	id, ok := seriesID(c)
	if !ok {
		return
	}
	var req recordSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_input", err)
		return
	}

	s := models.NewSession(id, models.Intensity(*req.IntensityBefore), models.Intensity(*req.IntensityAfter), req.Comment).
		WithTimes(req.StartTime, req.EndTime)
	if req.Date != "" {
		d, err := time.Parse(models.DateLayout, req.Date)
		if err != nil {
			RespondError(c, http.StatusBadRequest, "invalid_input", errors.New("date must be YYYY-MM-DD"))
			return
		}
		s.WithDate(d)
	}

	ctx := c.Request.Context()
	if err := h.repo.RecordOpenSession(ctx, s); err != nil {
		switch {
		case errors.Is(err, storage.ErrInvalidInput):
			RespondError(c, http.StatusBadRequest, "invalid_input", err)
		case errors.Is(err, storage.ErrSeriesNotFound):
			RespondError(c, http.StatusNotFound, "not_found", err)
		case errors.Is(err, storage.ErrSeriesComplete):
			RespondError(c, http.StatusConflict, "series_complete", err)
		default:
			RespondError(c, http.StatusInternalServerError, "internal", err)
		}
		return
	}

	progress, err := h.repo.SeriesProgress(ctx, id)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "internal", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"session": sessionView{Session: s, DurationFormatted: s.Duration()},
		"series":  progress,
	})
}

// DeleteSeries handles DELETE /api/series/:id.
func (h *Handler) DeleteSeries(c *gin.Context) {
	id, ok := seriesID(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	s, err := h.repo.GetSeries(ctx, id)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "internal", err)
		return
	}
	if s == nil {
		RespondError(c, http.StatusNotFound, "not_found", errors.New("series not found"))
		return
	}
	if !h.repo.DeleteSeries(ctx, id) {
		RespondError(c, http.StatusInternalServerError, "delete_failed", errors.New("error deleting series"))
		return
	}
	RespondOK(c, gin.H{"message": "series deleted"})
}

func seriesID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		RespondError(c, http.StatusBadRequest, "invalid_id", errors.New("series id must be a positive integer"))
		return 0, false
	}
	return id, true
}
