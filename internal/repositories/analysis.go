package repositories

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"alfredoptarigan/career-coach/internal/apperror"
	"alfredoptarigan/career-coach/internal/models"
)

type AnalysisRepository interface {
	Create(analysis *models.Analysis) error
	FindByID(id uuid.UUID) (*models.Analysis, error)
	FindLatestByOwner(ownerID string, status models.AnalysisStatus) (*models.Analysis, error)
	MarkProcessing(id uuid.UUID) (bool, error)
	UpdateResult(id uuid.UUID, result *models.AnalysisResult) error
	UpdateError(id uuid.UUID, kind string, errorMsg string) error
	FindPendingJobs(limit int) ([]models.Analysis, error)
}

type analysisRepository struct {
	db *gorm.DB
}

func NewAnalysisRepository(db *gorm.DB) AnalysisRepository {
	return &analysisRepository{db: db}
}

func (r *analysisRepository) Create(analysis *models.Analysis) error {
	if err := r.db.Create(analysis).Error; err != nil {
		return fmt.Errorf("failed to create analysis: %w", err)
	}
	return nil
}

func (r *analysisRepository) FindByID(id uuid.UUID) (*models.Analysis, error) {
	var analysis models.Analysis
	if err := r.db.Where("id = ?", id).First(&analysis).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("analysis not found")
		}
		return nil, fmt.Errorf("failed to find analysis: %w", err)
	}
	return &analysis, nil
}

// FindLatestByOwner returns nil without error when the owner has no job in
// the given status.
func (r *analysisRepository) FindLatestByOwner(ownerID string, status models.AnalysisStatus) (*models.Analysis, error) {
	var analyses []models.Analysis
	err := r.db.
		Where("owner_id = ? AND status = ?", ownerID, status).
		Order("updated_at DESC").
		Limit(1).
		Find(&analyses).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find latest analysis: %w", err)
	}

	if len(analyses) == 0 {
		return nil, nil
	}
	return &analyses[0], nil
}

// MarkProcessing claims a queued job. It reports false when another worker
// already claimed it or the job is no longer queued.
func (r *analysisRepository) MarkProcessing(id uuid.UUID) (bool, error) {
	result := r.db.Model(&models.Analysis{}).
		Where("id = ? AND status = ?", id, models.StatusQueued).
		Updates(map[string]interface{}{
			"status":     models.StatusProcessing,
			"updated_at": time.Now(),
		})

	if result.Error != nil {
		return false, fmt.Errorf("failed to claim analysis: %w", result.Error)
	}

	return result.RowsAffected == 1, nil
}

func (r *analysisRepository) UpdateResult(id uuid.UUID, res *models.AnalysisResult) error {
	score := res.Score
	summary := res.FeedbackSummary

	result := r.db.Model(&models.Analysis{}).
		Where("id = ?", id).
		Updates(&models.Analysis{
			Status:          models.StatusCompleted,
			Score:           &score,
			FeedbackSummary: &summary,
			Improvements:    res.Improvements,
			Warnings:        res.Warnings,
			UpdatedAt:       time.Now(),
		})

	if result.Error != nil {
		return fmt.Errorf("failed to update result: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		return apperror.NotFound("analysis not found")
	}

	return nil
}

func (r *analysisRepository) UpdateError(id uuid.UUID, kind string, errorMsg string) error {
	result := r.db.Model(&models.Analysis{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":        models.StatusFailed,
			"error_kind":    kind,
			"error_message": errorMsg,
			"updated_at":    time.Now(),
		})

	if result.Error != nil {
		return fmt.Errorf("failed to update error: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		return apperror.NotFound("analysis not found")
	}

	return nil
}

func (r *analysisRepository) FindPendingJobs(limit int) ([]models.Analysis, error) {
	var analyses []models.Analysis
	err := r.db.
		Where("status = ?", models.StatusQueued).
		Order("created_at ASC").
		Limit(limit).
		Find(&analyses).Error

	if err != nil {
		return nil, fmt.Errorf("failed to find pending jobs: %w", err)
	}

	return analyses, nil
}
