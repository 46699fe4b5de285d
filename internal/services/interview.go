package services

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"

	"alfredoptarigan/career-coach/internal/apperror"
	"alfredoptarigan/career-coach/internal/config"
	"alfredoptarigan/career-coach/internal/models"
)

const (
	openingFailureText = "I'm having trouble connecting. Please try again."
	turnFailureText    = "I encountered an error. Please check your connection or API key."
)

// InterviewSession tracks one mock interview. Turns only ever grow while the
// session is active and are dropped all at once by Reset. Model calls run
// outside the lock; a reset while a call is in flight discards its result.
type InterviewSession struct {
	mu         sync.Mutex
	targetRole string
	phase      models.InterviewPhase
	turns      []models.ConversationTurn
	pending    bool
	speak      bool
	epoch      uint64
	playback   Playback
	capture    Capture

	gemini     GeminiService
	prompts    *PromptBuilder
	speaker    SpeechSynthesizer
	recognizer SpeechRecognizer
	mode       string
	maxTokens  int32
}

func NewInterviewSession(
	gemini GeminiService,
	speaker SpeechSynthesizer,
	recognizer SpeechRecognizer,
	cfg config.InterviewConfig,
) *InterviewSession {
	return &InterviewSession{
		phase:      models.PhaseSetup,
		gemini:     gemini,
		prompts:    NewPromptBuilder(),
		speaker:    speaker,
		recognizer: recognizer,
		mode:       cfg.Mode,
		maxTokens:  cfg.MaxTokens,
	}
}

// Start moves the session from setup to active and asks for the opening
// question. A failed call still leaves the session active with an apology
// turn so the user can carry on.
func (s *InterviewSession) Start(ctx context.Context, targetRole string, speak bool) (models.InterviewSnapshot, error) {
	targetRole = strings.TrimSpace(targetRole)
	if targetRole == "" {
		return s.Snapshot(), apperror.ValidationFailed("target role is required")
	}

	s.mu.Lock()
	if s.phase == models.PhaseActive {
		s.mu.Unlock()
		return s.Snapshot(), apperror.Conflict("an interview is already in progress, reset it first")
	}
	s.phase = models.PhaseActive
	s.targetRole = targetRole
	s.speak = speak
	s.pending = true
	epoch := s.epoch
	s.mu.Unlock()

	log.Printf("🎤 Starting interview for role: %s\n", targetRole)

	reply, err := s.gemini.GenerateText(ctx, s.prompts.BuildOpeningPrompt(targetRole), s.generationOptions())

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.epoch != epoch {
		return s.snapshotLocked(), nil
	}
	s.pending = false

	if err != nil {
		log.Printf("❌ Opening question failed: %v\n", err)
		s.appendLocked(models.RoleAssistant, openingFailureText)
		return s.snapshotLocked(), nil
	}

	s.appendLocked(models.RoleAssistant, strings.TrimSpace(reply))
	s.speakLocked(ctx)

	return s.snapshotLocked(), nil
}

// Submit appends the user's answer right away, then asks the model for the
// interviewer's reply. The reply is appended as a separate turn.
func (s *InterviewSession) Submit(ctx context.Context, text string) (models.InterviewSnapshot, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return s.Snapshot(), apperror.ValidationFailed("message text is required")
	}

	s.mu.Lock()
	if s.phase != models.PhaseActive {
		s.mu.Unlock()
		return s.Snapshot(), apperror.Conflict("no interview in progress, start one first")
	}
	if s.pending {
		s.mu.Unlock()
		return s.Snapshot(), apperror.Conflict("the interviewer is still replying")
	}

	s.cancelPlaybackLocked()

	prior := make([]models.ConversationTurn, len(s.turns))
	copy(prior, s.turns)
	targetRole := s.targetRole

	s.appendLocked(models.RoleUser, text)
	s.pending = true
	epoch := s.epoch
	s.mu.Unlock()

	reply, err := s.nextReply(ctx, targetRole, prior, text)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.epoch != epoch {
		log.Println("⚠️  Interview was reset while waiting for a reply, dropping it")
		return s.snapshotLocked(), nil
	}
	s.pending = false

	if err != nil {
		log.Printf("❌ Interview turn failed: %v\n", err)
		s.appendLocked(models.RoleAssistant, turnFailureText)
		return s.snapshotLocked(), nil
	}

	s.appendLocked(models.RoleAssistant, strings.TrimSpace(reply))
	s.speakLocked(ctx)

	return s.snapshotLocked(), nil
}

func (s *InterviewSession) nextReply(ctx context.Context, targetRole string, prior []models.ConversationTurn, text string) (string, error) {
	if s.mode == config.InterviewModeChat {
		history := s.prompts.BuildChatHistory(prior)
		return s.gemini.SendChat(ctx, history, text, s.generationOptions())
	}

	prompt := s.prompts.BuildTurnPrompt(targetRole, prior, text)
	return s.gemini.GenerateText(ctx, prompt, s.generationOptions())
}

// Reset returns the session to setup, dropping every turn.
func (s *InterviewSession) Reset() models.InterviewSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cancelPlaybackLocked()
	s.stopCaptureLocked()

	s.targetRole = ""
	s.turns = nil
	s.phase = models.PhaseSetup
	s.pending = false
	s.speak = false
	s.epoch++

	return s.snapshotLocked()
}

// Listen replaces any running capture with a new one over the given audio.
func (s *InterviewSession) Listen(ctx context.Context, audio []byte, mimeType string) (Capture, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopCaptureLocked()

	if s.recognizer == nil {
		return nil, apperror.UpstreamUnavailable("Speech recognition is not available", nil)
	}

	c, err := s.recognizer.Recognize(ctx, audio, mimeType)
	if err != nil {
		return nil, fmt.Errorf("failed to start speech recognition: %w", err)
	}
	s.capture = c

	return c, nil
}

func (s *InterviewSession) StopListening() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopCaptureLocked()
}

// CurrentPlayback returns the playback of the latest assistant turn, if any.
func (s *InterviewSession) CurrentPlayback() Playback {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.playback
}

func (s *InterviewSession) Snapshot() models.InterviewSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *InterviewSession) snapshotLocked() models.InterviewSnapshot {
	turns := make([]models.ConversationTurn, len(s.turns))
	copy(turns, s.turns)

	speaking := false
	if s.playback != nil {
		select {
		case <-s.playback.Done():
		default:
			speaking = true
		}
	}

	return models.InterviewSnapshot{
		TargetRole: s.targetRole,
		Phase:      s.phase,
		Turns:      turns,
		Pending:    s.pending,
		Speaking:   speaking,
	}
}

func (s *InterviewSession) appendLocked(role models.Role, text string) {
	s.turns = append(s.turns, models.ConversationTurn{Role: role, Text: text})
}

// speakLocked voices the latest turn when speech is on.
func (s *InterviewSession) speakLocked(ctx context.Context) {
	if !s.speak || s.speaker == nil || len(s.turns) == 0 {
		return
	}

	s.cancelPlaybackLocked()

	p, err := s.speaker.Speak(ctx, s.turns[len(s.turns)-1].Text)
	if err != nil {
		log.Printf("⚠️  Could not start speech playback: %v\n", err)
		return
	}
	s.playback = p
}

func (s *InterviewSession) cancelPlaybackLocked() {
	if s.playback != nil {
		s.playback.Cancel()
		s.playback = nil
	}
}

func (s *InterviewSession) stopCaptureLocked() {
	if s.capture != nil {
		s.capture.Stop()
		s.capture = nil
	}
}

func (s *InterviewSession) generationOptions() GenerationOptions {
	return GenerationOptions{MaxOutputTokens: s.maxTokens}
}
