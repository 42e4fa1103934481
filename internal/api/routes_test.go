package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/livekit/protocol/livekit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/ushuari/voice/domain"
	"github.com/ushuari/voice/usecase"
)

type fakeVoice struct {
	req    usecase.SubmitRequest
	result usecase.SubmitResult
	err    error
}

func (f *fakeVoice) Submit(ctx context.Context, req usecase.SubmitRequest) (usecase.SubmitResult, error) {
	f.req = req
	return f.result, f.err
}

type fakeRooms struct {
	room, identity string
	err            error
}

func (f *fakeRooms) IssueToken(room, identity string, ttl time.Duration) (usecase.Credential, error) {
	f.room, f.identity = room, identity
	if f.err != nil {
		return usecase.Credential{}, f.err
	}
	return usecase.Credential{Token: "signed-token", ServerURL: "wss://ushuari.livekit.cloud"}, nil
}

type fakeSpeech struct {
	language string
	err      error
}

func (f *fakeSpeech) Synthesize(ctx context.Context, text, language string) ([]byte, error) {
	f.language = language
	return []byte("ID3audio"), f.err
}

type fakeEvents struct {
	events []usecase.RoomEvent
	err    error
}

func (f *fakeEvents) Handle(ctx context.Context, event usecase.RoomEvent) error {
	f.events = append(f.events, event)
	return f.err
}

type fakeWebhooks struct {
	event *livekit.WebhookEvent
	err   error
}

func (f *fakeWebhooks) Receive(r *http.Request) (*livekit.WebhookEvent, error) {
	return f.event, f.err
}

type testServer struct {
	e        *echo.Echo
	voice    *fakeVoice
	rooms    *fakeRooms
	speech   *fakeSpeech
	events   *fakeEvents
	webhooks *fakeWebhooks
}

func newTestServer(t *testing.T) *testServer {
	ts := &testServer{
		e:        echo.New(),
		voice:    &fakeVoice{},
		rooms:    &fakeRooms{},
		speech:   &fakeSpeech{},
		events:   &fakeEvents{},
		webhooks: &fakeWebhooks{},
	}
	InitRoutes(ts.e, Services{
		Voice:    ts.voice,
		Rooms:    ts.rooms,
		Speech:   ts.speech,
		Events:   ts.events,
		Webhooks: ts.webhooks,
	}, zaptest.NewLogger(t))
	return ts
}

func (ts *testServer) do(method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	ts.e.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestSubmitVoice(t *testing.T) {
	ts := newTestServer(t)
	ts.voice.result = usecase.SubmitResult{Reply: "You may file a claim."}

	rec := ts.do(http.MethodPost, "/api/voice",
		`{"audio":"GkXfow==","agentType":"legal","language":"sw","roomName":"room-42","durationSeconds":3.5}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true,"response":"You may file a claim."}`, rec.Body.String())
	assert.Equal(t, usecase.SubmitRequest{
		Audio: "GkXfow==", AgentType: "legal", Language: "sw", RoomName: "room-42", DurationSeconds: 3.5,
	}, ts.voice.req)
}

func TestSubmitVoiceDegradedStillSucceeds(t *testing.T) {
	ts := newTestServer(t)
	ts.voice.result = usecase.SubmitResult{Reply: "ok", PublishErr: domain.ErrRoomPublishDegraded}

	rec := ts.do(http.MethodPost, "/api/voice", `{"audio":"x","agentType":"legal","language":"en","roomName":"r"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestSubmitVoiceErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"missing fields", fmt.Errorf("%w: audio", domain.ErrMissingFields), http.StatusBadRequest, "missing_fields"},
		{"invalid audio", domain.ErrInvalidAudio, http.StatusBadRequest, "invalid_audio"},
		{"unknown agent", fmt.Errorf("%w: %q", domain.ErrUnknownAgentType, "billing"), http.StatusBadRequest, "unknown_agent_type"},
		{"transcription", fmt.Errorf("%w: %w", domain.ErrTranscriptionFailed, errors.New("429")), http.StatusBadGateway, "transcription_failed"},
		{"completion", fmt.Errorf("%w: %w", domain.ErrCompletionUnavailable, context.DeadlineExceeded), http.StatusBadGateway, "completion_unavailable"},
		{"unexpected", errors.New("boom"), http.StatusInternalServerError, "internal_error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t)
			ts.voice.err = tt.err

			rec := ts.do(http.MethodPost, "/api/voice", `{"audio":"x","agentType":"legal","language":"en","roomName":"r"}`)
			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantCode, decodeError(t, rec).Error)
		})
	}
}

func TestSubmitVoiceUpstreamDetailsStayInLogs(t *testing.T) {
	ts := newTestServer(t)
	ts.voice.err = fmt.Errorf("%w: %w", domain.ErrCompletionUnavailable, errors.New("api key sk-123 rejected"))

	rec := ts.do(http.MethodPost, "/api/voice", `{"audio":"x","agentType":"legal","language":"en","roomName":"r"}`)
	assert.NotContains(t, rec.Body.String(), "sk-123")
}

func TestSubmitVoiceMalformedBody(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.do(http.MethodPost, "/api/voice", `{"audio":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_request", decodeError(t, rec).Error)
}

func TestIssueToken(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(http.MethodGet, "/api/voice?roomName=room-42&participantName=amina", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"token":"signed-token","serverUrl":"wss://ushuari.livekit.cloud"}`, rec.Body.String())
	assert.Equal(t, "room-42", ts.rooms.room)
	assert.Equal(t, "amina", ts.rooms.identity)
}

func TestIssueTokenErrors(t *testing.T) {
	ts := newTestServer(t)

	ts.rooms.err = fmt.Errorf("%w: roomName and participantName are required", domain.ErrMissingFields)
	rec := ts.do(http.MethodGet, "/api/voice", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	ts.rooms.err = fmt.Errorf("%w: missing api key", domain.ErrProviderMisconfigured)
	rec = ts.do(http.MethodGet, "/api/voice?roomName=r&participantName=p", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "provider_misconfigured", decodeError(t, rec).Error)
	assert.NotContains(t, rec.Body.String(), "signed-token")
}

func TestSynthesize(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(http.MethodPost, "/api/tts", `{"text":"Karibu","language":"sw"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "audio/mpeg", rec.Header().Get(echo.HeaderContentType))
	assert.Equal(t, "ID3audio", rec.Body.String())
	assert.Equal(t, "sw", ts.speech.language)

	ts.speech.err = fmt.Errorf("%w: quota", domain.ErrSynthesisFailed)
	rec = ts.do(http.MethodPost, "/api/tts", `{"text":"Karibu"}`)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestReceiveWebhook(t *testing.T) {
	ts := newTestServer(t)
	ts.webhooks.event = &livekit.WebhookEvent{
		Event: "room_finished",
		Room:  &livekit.Room{Name: "room-42"},
	}

	rec := ts.do(http.MethodPost, "/api/livekit/webhook", `{}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, ts.events.events, 1)
	assert.Equal(t, usecase.RoomEvent{Name: usecase.RoomEventFinished, Room: "room-42"}, ts.events.events[0])

	ts.events.err = errors.New("mongo down")
	rec = ts.do(http.MethodPost, "/api/livekit/webhook", `{}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	ts.webhooks.err = errors.New("signature mismatch")
	rec = ts.do(http.MethodPost, "/api/livekit/webhook", `{}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Len(t, ts.events.events, 2)
}

func TestHealthAndMetrics(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}
