package services

import (
	"context"
	"fmt"
	"iter"
	"log"
	"strings"

	"google.golang.org/genai"

	"alfredoptarigan/career-coach/internal/apperror"
	"alfredoptarigan/career-coach/internal/config"
)

const transcriptionPrompt = "Transcribe the spoken words in this audio verbatim. Return only the transcript."

type GenerationOptions struct {
	MaxOutputTokens int32
	Temperature     float32
}

type SpeechAudio struct {
	Data     []byte
	MIMEType string
}

type GeminiService interface {
	GenerateText(ctx context.Context, prompt string, opts GenerationOptions) (string, error)
	SendChat(ctx context.Context, history []*genai.Content, message string, opts GenerationOptions) (string, error)
	SynthesizeSpeech(ctx context.Context, text string) (*SpeechAudio, error)
	TranscribeStream(ctx context.Context, audio []byte, mimeType string) iter.Seq2[string, error]
}

type geminiService struct {
	client      *genai.Client
	modelName   string
	speechModel string
	voice       string
}

// NewGeminiService builds the model client once. Without an API key the
// service is still returned, but every call fails without touching the network.
func NewGeminiService(cfg config.GeminiConfig) (GeminiService, error) {
	svc := &geminiService{
		modelName:   cfg.Model,
		speechModel: cfg.SpeechModel,
		voice:       cfg.Voice,
	}

	if cfg.APIKey == "" {
		log.Println("⚠️  GEMINI_API_KEY is not set, AI features are disabled")
		return svc, nil
	}

	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	svc.client = client

	return svc, nil
}

func errNotConfigured() error {
	return apperror.UpstreamUnavailable("The AI service is not configured. Set GEMINI_API_KEY and restart the server", nil)
}

func upstreamError(err error) error {
	return apperror.UpstreamUnavailable("Could not reach the AI service. Please try again", err)
}

func (g *geminiService) generationConfig(opts GenerationOptions) *genai.GenerateContentConfig {
	config := &genai.GenerateContentConfig{
		MaxOutputTokens: opts.MaxOutputTokens,
	}
	if opts.Temperature > 0 {
		temperature := opts.Temperature
		config.Temperature = &temperature
	}
	return config
}

// GenerateText implements GeminiService.
func (g *geminiService) GenerateText(ctx context.Context, prompt string, opts GenerationOptions) (string, error) {
	if g.client == nil {
		return "", errNotConfigured()
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.modelName, genai.Text(prompt), g.generationConfig(opts))
	if err != nil {
		log.Printf("❌ Gemini API error: %v\n", err)
		return "", upstreamError(err)
	}

	return responseText(resp)
}

// SendChat implements GeminiService.
func (g *geminiService) SendChat(ctx context.Context, history []*genai.Content, message string, opts GenerationOptions) (string, error) {
	if g.client == nil {
		return "", errNotConfigured()
	}

	chat, err := g.client.Chats.Create(ctx, g.modelName, g.generationConfig(opts), history)
	if err != nil {
		return "", upstreamError(err)
	}

	resp, err := chat.SendMessage(ctx, genai.Part{Text: message})
	if err != nil {
		log.Printf("❌ Gemini chat error: %v\n", err)
		return "", upstreamError(err)
	}

	return responseText(resp)
}

// SynthesizeSpeech implements GeminiService.
func (g *geminiService) SynthesizeSpeech(ctx context.Context, text string) (*SpeechAudio, error) {
	if g.client == nil {
		return nil, errNotConfigured()
	}

	config := &genai.GenerateContentConfig{
		ResponseModalities: []string{string(genai.ModalityAudio)},
		SpeechConfig: &genai.SpeechConfig{
			VoiceConfig: &genai.VoiceConfig{
				PrebuiltVoiceConfig: &genai.PrebuiltVoiceConfig{VoiceName: g.voice},
			},
		},
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.speechModel, genai.Text(text), config)
	if err != nil {
		log.Printf("❌ Gemini speech error: %v\n", err)
		return nil, upstreamError(err)
	}

	if resp != nil {
		for _, candidate := range resp.Candidates {
			if candidate.Content == nil {
				continue
			}
			for _, part := range candidate.Content.Parts {
				if part.InlineData != nil && len(part.InlineData.Data) > 0 {
					return &SpeechAudio{Data: part.InlineData.Data, MIMEType: part.InlineData.MIMEType}, nil
				}
			}
		}
	}

	return nil, upstreamError(fmt.Errorf("no audio content in response"))
}

// TranscribeStream implements GeminiService. Each yielded value is the
// transcript accumulated so far.
func (g *geminiService) TranscribeStream(ctx context.Context, audio []byte, mimeType string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		if g.client == nil {
			yield("", errNotConfigured())
			return
		}

		contents := []*genai.Content{
			genai.NewContentFromParts([]*genai.Part{
				genai.NewPartFromText(transcriptionPrompt),
				genai.NewPartFromBytes(audio, mimeType),
			}, genai.RoleUser),
		}

		var transcript strings.Builder
		for resp, err := range g.client.Models.GenerateContentStream(ctx, g.modelName, contents, nil) {
			if err != nil {
				yield("", upstreamError(err))
				return
			}
			if resp == nil {
				continue
			}
			chunk := resp.Text()
			if chunk == "" {
				continue
			}
			transcript.WriteString(chunk)
			if !yield(strings.TrimSpace(transcript.String()), nil) {
				return
			}
		}
	}
}

func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil {
		log.Println("❌ Gemini API returned nil response")
		return "", upstreamError(fmt.Errorf("no response generated (nil response)"))
	}

	text := resp.Text()
	if text == "" {
		log.Println("❌ No text content in response")
		return "", upstreamError(fmt.Errorf("no text content in response"))
	}

	return text, nil
}
