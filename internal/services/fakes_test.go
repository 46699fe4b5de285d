package services_test

import (
	"context"
	"errors"
	"iter"
	"sync"

	"google.golang.org/genai"

	"alfredoptarigan/career-coach/internal/services"
)

var errNetwork = errors.New("network unreachable")

// fakeGemini records every call and answers from its queued replies. When
// gate is set each call blocks until a value is sent on it.
type fakeGemini struct {
	mu          sync.Mutex
	prompts     []string
	chats       []fakeChat
	replies     []fakeReply
	gate        chan struct{}
	called      chan struct{}
	speech      *services.SpeechAudio
	speechErr   error
	speechGate  chan struct{}
	transcripts []string
	transcribe  error
}

type fakeReply struct {
	text string
	err  error
}

type fakeChat struct {
	history []*genai.Content
	message string
}

func newFakeGemini(replies ...fakeReply) *fakeGemini {
	return &fakeGemini{
		replies: replies,
		called:  make(chan struct{}, 16),
	}
}

func (f *fakeGemini) next(ctx context.Context) (string, error) {
	f.called <- struct{}{}
	if f.gate != nil {
		select {
		case <-f.gate:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.replies) == 0 {
		return "", errNetwork
	}
	reply := f.replies[0]
	f.replies = f.replies[1:]
	return reply.text, reply.err
}

func (f *fakeGemini) GenerateText(ctx context.Context, prompt string, _ services.GenerationOptions) (string, error) {
	f.mu.Lock()
	f.prompts = append(f.prompts, prompt)
	f.mu.Unlock()
	return f.next(ctx)
}

func (f *fakeGemini) SendChat(ctx context.Context, history []*genai.Content, message string, _ services.GenerationOptions) (string, error) {
	f.mu.Lock()
	f.chats = append(f.chats, fakeChat{history: history, message: message})
	f.mu.Unlock()
	return f.next(ctx)
}

func (f *fakeGemini) SynthesizeSpeech(ctx context.Context, _ string) (*services.SpeechAudio, error) {
	if f.speechGate != nil {
		select {
		case <-f.speechGate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return f.speech, f.speechErr
}

func (f *fakeGemini) TranscribeStream(_ context.Context, _ []byte, _ string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		for _, partial := range f.transcripts {
			if !yield(partial, nil) {
				return
			}
		}
		if f.transcribe != nil {
			yield("", f.transcribe)
		}
	}
}

func (f *fakeGemini) lastPrompt() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.prompts) == 0 {
		return ""
	}
	return f.prompts[len(f.prompts)-1]
}

// fakePlayback and fakeSpeaker record cancellation order.
type fakePlayback struct {
	mu        sync.Mutex
	text      string
	cancelled bool
	done      chan struct{}
}

func (p *fakePlayback) Cancel() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cancelled = true
}

func (p *fakePlayback) Done() <-chan struct{} { return p.done }

func (p *fakePlayback) Audio() *services.SpeechAudio { return nil }

func (p *fakePlayback) isCancelled() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cancelled
}

type fakeSpeaker struct {
	mu        sync.Mutex
	playbacks []*fakePlayback
}

func (s *fakeSpeaker) Speak(_ context.Context, text string) (services.Playback, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := &fakePlayback{text: text, done: make(chan struct{})}
	s.playbacks = append(s.playbacks, p)
	return p, nil
}

func (s *fakeSpeaker) all() []*fakePlayback {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*fakePlayback(nil), s.playbacks...)
}
