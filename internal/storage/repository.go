// ABOUTME: Repository interface for therapy tracking storage.
// ABOUTME: Defines the contract the CLI, MCP server, and JSON API depend on.
package storage

import (
	"context"

	"github.com/harperreed/therapose/internal/models"
)

// Repository defines the storage interface for therapy data.
// This interface allows swapping implementations (e.g., for testing).
type Repository interface {
	// Person registry
	AddInstructor(ctx context.Context, i *models.Instructor) error
	AddPatient(ctx context.Context, p *models.Patient) error
	GetInstructor(ctx context.Context, id string) (*models.Instructor, error)
	GetPatient(ctx context.Context, id string) (*models.Patient, error)
	ListInstructors(ctx context.Context) ([]*models.Instructor, error)
	ListPatients(ctx context.Context) ([]*models.Patient, error)
	UpdatePatient(ctx context.Context, id string, u models.PatientUpdate) error
	DeletePatient(ctx context.Context, id string) (string, bool, error)

	// Assignment ledger
	Assign(ctx context.Context, instructorID, patientID string) error
	ListPatientsForInstructor(ctx context.Context, instructorID string) ([]*models.Patient, error)
	ListInstructorsForPatient(ctx context.Context, patientID string) ([]*models.Instructor, error)
	ListAssignments(ctx context.Context) ([]*models.Assignment, error)

	// Posture catalog
	ListPostures(ctx context.Context) ([]*models.Posture, error)
	GetPosture(ctx context.Context, id int64) (*models.Posture, error)
	PosturesForTherapyType(ctx context.Context, tt models.TherapyType) ([]models.PostureRef, error)

	// Therapeutic series
	CreateSeries(ctx context.Context, n models.NewSeries) (int64, error)
	GetSeries(ctx context.Context, id int64) (*models.Series, error)
	GetActiveSeries(ctx context.Context, patientID string) (*models.Series, error)
	ListSeriesForPatient(ctx context.Context, patientID string) ([]*models.SeriesProgress, error)
	ListAllSeries(ctx context.Context) ([]*models.SeriesProgress, error)
	SeriesProgress(ctx context.Context, seriesID int64) (*models.SeriesProgress, error)
	ListSeriesPostures(ctx context.Context, seriesID int64) ([]models.SeriesPosture, error)
	TotalPrescribedMinutes(ctx context.Context, seriesID int64) (int, error)
	DeleteSeries(ctx context.Context, seriesID int64) bool

	// Session log
	RecordSession(ctx context.Context, s *models.Session) error
	RecordOpenSession(ctx context.Context, s *models.Session) error
	ListSessions(ctx context.Context, seriesID int64) ([]*models.Session, error)

	// Export
	GetAllData(ctx context.Context) (*ExportData, error)

	// Lifecycle
	Close() error
}
