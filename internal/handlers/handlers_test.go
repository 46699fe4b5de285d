package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"iter"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"alfredoptarigan/career-coach/internal/apperror"
	"alfredoptarigan/career-coach/internal/config"
	"alfredoptarigan/career-coach/internal/handlers"
	"alfredoptarigan/career-coach/internal/middleware"
	"alfredoptarigan/career-coach/internal/models"
	"alfredoptarigan/career-coach/internal/services"
)

type MockScoringService struct {
	mock.Mock
}

func (m *MockScoringService) Analyze(ctx context.Context, req models.AnalysisRequest) (*models.AnalysisResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.AnalysisResult), args.Error(1)
}

func (m *MockScoringService) Submit(ctx context.Context, ownerID string, req models.AnalysisRequest) (*models.Analysis, error) {
	args := m.Called(ctx, ownerID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Analysis), args.Error(1)
}

func (m *MockScoringService) Process(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockScoringService) View(ownerID string) (models.AnalysisView, error) {
	args := m.Called(ownerID)
	return args.Get(0).(models.AnalysisView), args.Error(1)
}

func (m *MockScoringService) Find(ownerID string, id uuid.UUID) (*models.Analysis, error) {
	args := m.Called(ownerID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Analysis), args.Error(1)
}

type fakeWorker struct {
	enqueued []uuid.UUID
}

func (w *fakeWorker) Start(context.Context) {}

func (w *fakeWorker) Stop() {}

func (w *fakeWorker) EnqueueJob(analysisID uuid.UUID) {
	w.enqueued = append(w.enqueued, analysisID)
}

// stubGemini answers every text request with the same reply.
type stubGemini struct {
	reply string
	err   error
}

func (g *stubGemini) GenerateText(context.Context, string, services.GenerationOptions) (string, error) {
	return g.reply, g.err
}

func (g *stubGemini) SendChat(context.Context, []*genai.Content, string, services.GenerationOptions) (string, error) {
	return g.reply, g.err
}

func (g *stubGemini) SynthesizeSpeech(context.Context, string) (*services.SpeechAudio, error) {
	return &services.SpeechAudio{Data: []byte("pcm"), MIMEType: "audio/L16"}, nil
}

func (g *stubGemini) TranscribeStream(context.Context, []byte, string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		if yield("I have", nil) {
			yield("I have five years", nil)
		}
	}
}

type testDeps struct {
	scorer *MockScoringService
	worker *fakeWorker
	gemini *stubGemini
}

func newTestApp(deps testDeps) *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: handlers.ErrorHandler})
	app.Use(middleware.Auth(config.AuthConfig{}))

	uploads := services.NewUploadService(1 << 20)
	documentHandler := handlers.NewDocumentHandler(uploads, services.NewDocumentExtractor())
	analysisHandler := handlers.NewAnalysisHandler(deps.scorer, deps.worker)
	resultHandler := handlers.NewResultHandler(deps.scorer)

	store := services.NewInterviewStore(func() *services.InterviewSession {
		return services.NewInterviewSession(
			deps.gemini,
			services.NewGeminiSynthesizer(deps.gemini),
			services.NewGeminiRecognizer(deps.gemini),
			config.InterviewConfig{Mode: config.InterviewModePrompt, MaxTokens: 500},
		)
	})
	interviewHandler := handlers.NewInterviewHandler(store, uploads)

	app.Post("/documents/extract", documentHandler.HandleExtract)
	app.Post("/analyses", analysisHandler.HandleSubmit)
	app.Get("/analyses/latest", resultHandler.HandleGetLatest)
	app.Get("/analyses/:id", resultHandler.HandleGetResult)
	app.Get("/interview", interviewHandler.HandleGet)
	app.Post("/interview/start", interviewHandler.HandleStart)
	app.Post("/interview/messages", interviewHandler.HandleMessage)
	app.Delete("/interview", interviewHandler.HandleReset)
	app.Get("/interview/audio", interviewHandler.HandleAudio)
	app.Post("/interview/transcribe", interviewHandler.HandleTranscribe)

	return app
}

func multipartRequest(t *testing.T, path, field, fileName, contentType string, data []byte) *http.Request {
	t.Helper()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", `form-data; name="`+field+`"; filename="`+fileName+`"`)
	header.Set("Content-Type", contentType)
	part, err := writer.CreatePart(header)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func jsonRequest(method, path, body string) *http.Request {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func decode(t *testing.T, resp *http.Response, v interface{}) {
	t.Helper()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, v), string(data))
}

func TestExtractHandler(t *testing.T) {
	app := newTestApp(testDeps{gemini: &stubGemini{}})

	t.Run("plain text", func(t *testing.T) {
		resp, err := app.Test(multipartRequest(t, "/documents/extract", "file", "cv.txt", "text/plain", []byte("Experienced engineer.")))
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var body models.ExtractResponse
		decode(t, resp, &body)
		assert.Equal(t, "Experienced engineer.", body.Text)
		assert.Equal(t, models.MimePlain, body.Kind)
	})

	t.Run("unsupported type", func(t *testing.T) {
		resp, err := app.Test(multipartRequest(t, "/documents/extract", "file", "photo.png", "image/png", []byte{1, 2, 3}))
		require.NoError(t, err)
		assert.Equal(t, http.StatusUnsupportedMediaType, resp.StatusCode)

		var body map[string]string
		decode(t, resp, &body)
		assert.Equal(t, "unsupported_format", body["kind"])
		assert.Equal(t, "image/png", body["subject"])
	})

	t.Run("unreadable pdf", func(t *testing.T) {
		resp, err := app.Test(multipartRequest(t, "/documents/extract", "file", "cv.pdf", "application/pdf", []byte("garbage")))
		require.NoError(t, err)
		assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	})

	t.Run("missing file", func(t *testing.T) {
		resp, err := app.Test(jsonRequest(http.MethodPost, "/documents/extract", "{}"))
		require.NoError(t, err)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestSubmitAnalysisHandler(t *testing.T) {
	scorer := new(MockScoringService)
	worker := &fakeWorker{}
	app := newTestApp(testDeps{scorer: scorer, worker: worker, gemini: &stubGemini{}})

	queued := &models.Analysis{ID: uuid.New(), Status: models.StatusQueued}
	good := models.AnalysisRequest{ResumeText: "cv", TargetRole: "Engineer"}
	scorer.On("Submit", mock.Anything, middleware.LocalUserID, good).Return(queued, nil)
	scorer.On("Submit", mock.Anything, middleware.LocalUserID, models.AnalysisRequest{TargetRole: "Engineer"}).
		Return(nil, apperror.ValidationFailed("resume_text is required"))

	resp, err := app.Test(jsonRequest(http.MethodPost, "/analyses", `{"resume_text":"cv","target_role":"Engineer"}`))
	require.NoError(t, err)
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)

	var body models.SubmitAnalysisResponse
	decode(t, resp, &body)
	assert.Equal(t, queued.ID.String(), body.ID)
	assert.Equal(t, []uuid.UUID{queued.ID}, worker.enqueued)

	resp, err = app.Test(jsonRequest(http.MethodPost, "/analyses", `{"target_role":"Engineer"}`))
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Len(t, worker.enqueued, 1)
}

func TestResultHandlers(t *testing.T) {
	scorer := new(MockScoringService)
	app := newTestApp(testDeps{scorer: scorer, worker: &fakeWorker{}, gemini: &stubGemini{}})

	score := 80
	summary := "Good fit."
	done := &models.Analysis{
		ID:              uuid.New(),
		Status:          models.StatusCompleted,
		TargetRole:      "Engineer",
		Score:           &score,
		FeedbackSummary: &summary,
	}
	missing := uuid.New()

	scorer.On("Find", middleware.LocalUserID, done.ID).Return(done, nil)
	scorer.On("Find", middleware.LocalUserID, missing).Return(nil, apperror.NotFound("analysis not found"))
	scorer.On("View", middleware.LocalUserID).Return(models.AnalysisView{Current: done}, nil)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/analyses/"+done.ID.String(), nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body models.AnalysisResponse
	decode(t, resp, &body)
	require.NotNil(t, body.Result)
	assert.Equal(t, 80, body.Result.Score)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/analyses/"+missing.String(), nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/analyses/not-a-uuid", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/analyses/latest", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestInterviewHandlers(t *testing.T) {
	gemini := &stubGemini{reply: "Welcome. Why this role?"}
	app := newTestApp(testDeps{scorer: new(MockScoringService), worker: &fakeWorker{}, gemini: gemini})

	resp, err := app.Test(jsonRequest(http.MethodPost, "/interview/start", `{"target_role":""}`))
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, err = app.Test(jsonRequest(http.MethodPost, "/interview/messages", `{"text":"hi"}`))
	require.NoError(t, err)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp, err = app.Test(jsonRequest(http.MethodPost, "/interview/start", `{"target_role":"Data Scientist","speak":true}`))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var snap models.InterviewSnapshot
	decode(t, resp, &snap)
	assert.Equal(t, models.PhaseActive, snap.Phase)
	require.Len(t, snap.Turns, 1)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/interview/audio", nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "audio/L16", resp.Header.Get("Content-Type"))

	resp, err = app.Test(jsonRequest(http.MethodPost, "/interview/messages", `{"text":"I love statistics."}`))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decode(t, resp, &snap)
	require.Len(t, snap.Turns, 3)
	assert.Equal(t, models.RoleUser, snap.Turns[1].Role)

	resp, err = app.Test(multipartRequest(t, "/interview/transcribe", "audio", "clip.webm", "audio/webm", []byte("audio")))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var transcript models.TranscriptionResponse
	decode(t, resp, &transcript)
	assert.Equal(t, []string{"I have", "I have five years"}, transcript.Partials)
	assert.Equal(t, "I have five years", transcript.Transcript)

	resp, err = app.Test(httptest.NewRequest(http.MethodDelete, "/interview", nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decode(t, resp, &snap)
	assert.Equal(t, models.PhaseSetup, snap.Phase)
	assert.Empty(t, snap.Turns)
}

func TestErrorHandlerHidesUnknownErrors(t *testing.T) {
	app := fiber.New(fiber.Config{ErrorHandler: handlers.ErrorHandler})
	app.Get("/boom", func(c *fiber.Ctx) error {
		return errors.New("database password leaked here")
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/boom", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)

	data, _ := io.ReadAll(resp.Body)
	assert.NotContains(t, string(data), "password")
}
