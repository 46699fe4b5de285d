package services

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"alfredoptarigan/career-coach/internal/apperror"
	"alfredoptarigan/career-coach/internal/config"
	"alfredoptarigan/career-coach/internal/models"
	"alfredoptarigan/career-coach/internal/repositories"
	"alfredoptarigan/career-coach/internal/validation"
)

type ScoringService interface {
	Analyze(ctx context.Context, req models.AnalysisRequest) (*models.AnalysisResult, error)
	Submit(ctx context.Context, ownerID string, req models.AnalysisRequest) (*models.Analysis, error)
	Process(ctx context.Context, id uuid.UUID) error
	View(ownerID string) (models.AnalysisView, error)
	Find(ownerID string, id uuid.UUID) (*models.Analysis, error)
}

// ownerView is the in-memory scoring screen of one user.
type ownerView struct {
	current   *models.Analysis
	pendingID *uuid.UUID
	lastError string
}

type scoringService struct {
	repo          repositories.AnalysisRepository
	geminiService GeminiService
	promptBuilder *PromptBuilder
	validate      *validator.Validate
	options       GenerationOptions

	mu    sync.Mutex
	views map[string]*ownerView
}

func NewScoringService(
	repo repositories.AnalysisRepository,
	geminiService GeminiService,
	validate *validator.Validate,
	cfg config.GeminiConfig,
) ScoringService {
	return &scoringService{
		repo:          repo,
		geminiService: geminiService,
		promptBuilder: NewPromptBuilder(),
		validate:      validate,
		options: GenerationOptions{
			MaxOutputTokens: cfg.ScoringMaxTokens,
			Temperature:     cfg.ScoringTemperature,
		},
		views: make(map[string]*ownerView),
	}
}

func (s *scoringService) validateRequest(req models.AnalysisRequest) (models.AnalysisRequest, error) {
	req.ResumeText = strings.TrimSpace(req.ResumeText)
	req.TargetRole = strings.TrimSpace(req.TargetRole)

	if err := s.validate.Struct(req); err != nil {
		return req, apperror.ValidationFailed(validation.FormatValidationErrors(err))
	}
	return req, nil
}

// Analyze runs prompt, model call and parsing synchronously.
func (s *scoringService) Analyze(ctx context.Context, req models.AnalysisRequest) (*models.AnalysisResult, error) {
	req, err := s.validateRequest(req)
	if err != nil {
		return nil, err
	}

	prompt := s.promptBuilder.BuildScoringPrompt(req.ResumeText, req.TargetRole)
	log.Printf("📝 Scoring prompt length: %d characters", len(prompt))

	response, err := s.geminiService.GenerateText(ctx, prompt, s.options)
	if err != nil {
		log.Printf("❌ Resume scoring failed: %v", err)
		return nil, fmt.Errorf("failed to generate resume score: %w", err)
	}

	log.Printf("✅ Scoring response received: %d characters", len(response))

	result, err := ParseAnalysisResponse(response)
	if err != nil {
		log.Printf("❌ Failed to parse scoring response: %v", err)
		return nil, fmt.Errorf("failed to parse scoring response: %w", err)
	}

	for _, warning := range result.Warnings {
		log.Printf("⚠️  Scoring response adjusted: %s", warning)
	}

	return result, nil
}

// Submit queues a scoring job. The owner's current result stays visible,
// marked stale, until the new job completes.
func (s *scoringService) Submit(ctx context.Context, ownerID string, req models.AnalysisRequest) (*models.Analysis, error) {
	req, err := s.validateRequest(req)
	if err != nil {
		return nil, err
	}

	id := uuid.New()

	s.mu.Lock()
	view := s.viewLocked(ownerID)
	if view.pendingID != nil {
		s.mu.Unlock()
		return nil, apperror.Conflict("an analysis is already in progress")
	}
	view.pendingID = &id
	s.mu.Unlock()

	analysis := &models.Analysis{
		ID:         id,
		OwnerID:    ownerID,
		TargetRole: req.TargetRole,
		ResumeText: req.ResumeText,
		Status:     models.StatusQueued,
	}

	if err := s.repo.Create(analysis); err != nil {
		s.mu.Lock()
		view.pendingID = nil
		s.mu.Unlock()
		return nil, fmt.Errorf("failed to queue analysis: %w", err)
	}

	log.Printf("📥 Analysis %s queued for role: %s\n", id, req.TargetRole)
	return analysis, nil
}

// Process runs one queued job. A job already claimed elsewhere is skipped.
func (s *scoringService) Process(ctx context.Context, id uuid.UUID) error {
	claimed, err := s.repo.MarkProcessing(id)
	if err != nil {
		s.fail(id, err)
		return fmt.Errorf("failed to update status: %w", err)
	}
	if !claimed {
		log.Printf("⏭️  Analysis %s already claimed, skipping\n", id)
		return nil
	}

	log.Printf("🔄 Starting analysis for job ID: %s\n", id)

	analysis, err := s.repo.FindByID(id)
	if err != nil {
		s.fail(id, err)
		return fmt.Errorf("failed to get analysis: %w", err)
	}

	result, err := s.Analyze(ctx, models.AnalysisRequest{
		ResumeText: analysis.ResumeText,
		TargetRole: analysis.TargetRole,
	})
	if err != nil {
		s.fail(id, err)
		return err
	}

	if err := s.repo.UpdateResult(id, result); err != nil {
		s.fail(id, err)
		return fmt.Errorf("failed to save results: %w", err)
	}

	score := result.Score
	summary := result.FeedbackSummary
	analysis.Status = models.StatusCompleted
	analysis.Score = &score
	analysis.FeedbackSummary = &summary
	analysis.Improvements = result.Improvements
	analysis.Warnings = result.Warnings

	s.mu.Lock()
	view := s.viewLocked(analysis.OwnerID)
	view.current = analysis
	view.lastError = ""
	if view.pendingID != nil && *view.pendingID == id {
		view.pendingID = nil
	}
	s.mu.Unlock()

	log.Printf("✅ Analysis completed successfully for job ID: %s (score %d)\n", id, score)
	return nil
}

// fail records the error on the job and releases the owner's pending slot.
// The previous result is left in place.
func (s *scoringService) fail(id uuid.UUID, cause error) {
	kind := "internal"
	message := "Something went wrong while analyzing the resume. Please try again"
	if appErr, ok := apperror.From(cause); ok {
		kind = string(appErr.Kind)
		message = appErr.Message
	}

	if err := s.repo.UpdateError(id, kind, message); err != nil {
		log.Printf("⚠️  Failed to record error for analysis %s: %v\n", id, err)
	}

	s.mu.Lock()
	for _, view := range s.views {
		if view.pendingID != nil && *view.pendingID == id {
			view.pendingID = nil
			view.lastError = message
		}
	}
	s.mu.Unlock()
}

// View returns the owner's current result, falling back to the latest stored
// one when nothing completed in this process yet.
func (s *scoringService) View(ownerID string) (models.AnalysisView, error) {
	s.mu.Lock()
	out := s.snapshotLocked(ownerID)
	s.mu.Unlock()

	if out.Current != nil {
		return out, nil
	}

	latest, err := s.repo.FindLatestByOwner(ownerID, models.StatusCompleted)
	if err != nil {
		return models.AnalysisView{}, fmt.Errorf("failed to load latest analysis: %w", err)
	}
	if latest == nil {
		return out, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	view := s.viewLocked(ownerID)
	if view.current == nil {
		view.current = latest
	}
	return s.snapshotLocked(ownerID), nil
}

func (s *scoringService) snapshotLocked(ownerID string) models.AnalysisView {
	view, ok := s.views[ownerID]
	if !ok {
		return models.AnalysisView{}
	}
	return models.AnalysisView{
		Current:   view.current,
		PendingID: view.pendingID,
		Stale:     view.current != nil && view.pendingID != nil,
		LastError: view.lastError,
	}
}

func (s *scoringService) Find(ownerID string, id uuid.UUID) (*models.Analysis, error) {
	analysis, err := s.repo.FindByID(id)
	if err != nil {
		return nil, err
	}
	if analysis.OwnerID != ownerID {
		return nil, apperror.NotFound("analysis not found")
	}
	return analysis, nil
}

func (s *scoringService) viewLocked(ownerID string) *ownerView {
	view, ok := s.views[ownerID]
	if !ok {
		view = &ownerView{}
		s.views[ownerID] = view
	}
	return view
}
