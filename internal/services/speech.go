package services

import (
	"context"
	"log"
	"sync"
)

// Playback is a cancellable handle on one synthesized utterance.
type Playback interface {
	Cancel()
	Done() <-chan struct{}
	// Audio returns the synthesized audio once Done is closed, or nil when
	// synthesis failed or was cancelled.
	Audio() *SpeechAudio
}

// Capture is one speech recognition session streaming partial transcripts.
type Capture interface {
	Transcripts() <-chan string
	Stop()
	// Err reports why the capture ended, once Transcripts is closed.
	Err() error
}

type SpeechSynthesizer interface {
	Speak(ctx context.Context, text string) (Playback, error)
}

type SpeechRecognizer interface {
	Recognize(ctx context.Context, audio []byte, mimeType string) (Capture, error)
}

type geminiSynthesizer struct {
	gemini GeminiService
}

func NewGeminiSynthesizer(gemini GeminiService) SpeechSynthesizer {
	return &geminiSynthesizer{gemini: gemini}
}

// Speak starts synthesis in the background. The playback outlives the
// caller's request and ends only when finished or cancelled.
func (s *geminiSynthesizer) Speak(ctx context.Context, text string) (Playback, error) {
	ctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	p := &playback{
		cancel: cancel,
		done:   make(chan struct{}),
	}

	go func() {
		defer close(p.done)

		audio, err := s.gemini.SynthesizeSpeech(ctx, text)
		if err != nil {
			if ctx.Err() == nil {
				log.Printf("⚠️  Speech synthesis failed: %v\n", err)
			}
			return
		}

		p.mu.Lock()
		if ctx.Err() == nil {
			p.audio = audio
		}
		p.mu.Unlock()
	}()

	return p, nil
}

type playback struct {
	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
	audio  *SpeechAudio
}

func (p *playback) Cancel() {
	p.cancel()
	p.mu.Lock()
	p.audio = nil
	p.mu.Unlock()
}

func (p *playback) Done() <-chan struct{} {
	return p.done
}

func (p *playback) Audio() *SpeechAudio {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.audio
}

type geminiRecognizer struct {
	gemini GeminiService
}

func NewGeminiRecognizer(gemini GeminiService) SpeechRecognizer {
	return &geminiRecognizer{gemini: gemini}
}

// Recognize streams partial transcripts of the recorded audio.
func (r *geminiRecognizer) Recognize(ctx context.Context, audio []byte, mimeType string) (Capture, error) {
	ctx, cancel := context.WithCancel(ctx)
	c := &capture{
		cancel:      cancel,
		transcripts: make(chan string, 16),
	}

	go func() {
		defer close(c.transcripts)

		for partial, err := range r.gemini.TranscribeStream(ctx, audio, mimeType) {
			if err != nil {
				if ctx.Err() == nil {
					c.setErr(err)
				}
				return
			}

			select {
			case c.transcripts <- partial:
			case <-ctx.Done():
				return
			}
		}
	}()

	return c, nil
}

type capture struct {
	mu          sync.Mutex
	cancel      context.CancelFunc
	transcripts chan string
	err         error
}

func (c *capture) Transcripts() <-chan string {
	return c.transcripts
}

func (c *capture) Stop() {
	c.cancel()
}

func (c *capture) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

func (c *capture) setErr(err error) {
	c.mu.Lock()
	c.err = err
	c.mu.Unlock()
}
