package api

import (
	"bufio"
	"context"
	"encoding/json"
	stderrors "errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/vytor/visionize/internal/content"
	"github.com/vytor/visionize/internal/logger"
	"github.com/vytor/visionize/internal/models"
	"github.com/vytor/visionize/internal/services"
	"github.com/vytor/visionize/internal/session"
	"github.com/vytor/visionize/internal/sse"
	"github.com/vytor/visionize/internal/testutil/mocks"
)

var provider = content.MustLoad()

type fakePinger struct{ err error }

func (p fakePinger) Ping(context.Context) error { return p.err }

type fixture struct {
	server     *Server
	handler    http.Handler
	manager    *session.Manager
	activities *mocks.MockActivityRepository
	sessions   *mocks.MockSessionRepository
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	hub := sse.NewHub(logger.Discard())
	manager := session.NewManager(provider, session.ManagerConfig{CorrectDelay: time.Hour, WrongDelay: time.Hour},
		session.WithLogger(logger.Discard()),
		session.WithHooks(session.Hooks{
			OnChange: hub.PublishState,
			OnClose:  func(s *session.Session, _ session.CloseReason) { hub.CloseChannel(s.ID()) },
		}),
	)
	t.Cleanup(manager.CloseAll)

	activities := new(mocks.MockActivityRepository)
	sessions := new(mocks.MockSessionRepository)
	sessions.On("Create", mock.Anything, mock.Anything).Return(nil)

	srv := &Server{
		DB:       fakePinger{},
		Content:  provider,
		Tutorial: services.NewTutorialService(manager, sessions),
		History:  services.NewHistoryService(activities, sessions),
		Hub:      hub,
	}
	return &fixture{server: srv, handler: srv.Routes(), manager: manager, activities: activities, sessions: sessions}
}

func (f *fixture) do(t *testing.T, method, path, sessionID, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if sessionID != "" {
		req.Header.Set(sessionHeaderName, sessionID)
	}
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func (f *fixture) createSession(t *testing.T) string {
	t.Helper()
	rec := f.do(t, http.MethodPost, "/api/sessions", "", "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[models.SessionState](t, rec).SessionID
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

type errorBody struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func assertError(t *testing.T, rec *httptest.ResponseRecorder, status int, code string) {
	t.Helper()
	assert.Equal(t, status, rec.Code, rec.Body.String())
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, code, decode[errorBody](t, rec).Error.Code)
}

func TestHealth(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/healthz", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	rec = f.do(t, http.MethodGet, "/readyz", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	f.server.DB = fakePinger{err: stderrors.New("disk I/O error")}
	rec = f.do(t, http.MethodGet, "/readyz", "", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestContentEndpoints(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/api/lessons", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	lessons := decode[struct {
		Lessons []struct {
			ID    string `json:"id"`
			Title string `json:"title"`
		} `json:"lessons"`
	}](t, rec)
	require.Len(t, lessons.Lessons, 5)
	assert.Equal(t, "introduction", lessons.Lessons[0].ID)
	assert.Equal(t, "quiz", lessons.Lessons[4].ID)

	rec = f.do(t, http.MethodGet, "/api/lessons/First", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"eye-rotation"`)

	rec = f.do(t, http.MethodGet, "/api/lessons/fourth", "", "")
	assertError(t, rec, http.StatusNotFound, "NOT_FOUND")

	rec = f.do(t, http.MethodGet, "/api/questions", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "While driving a car")
	assert.NotContains(t, rec.Body.String(), "correct")
}

func TestSessionRequired(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/api/session", "", "")
	assertError(t, rec, http.StatusBadRequest, "BAD_REQUEST")

	rec = f.do(t, http.MethodGet, "/api/session", "missing", "")
	assertError(t, rec, http.StatusNotFound, "NOT_FOUND")
}

func TestCreateSessionSetsCookie(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/api/sessions", "", "")
	require.Equal(t, http.StatusCreated, rec.Code)
	st := decode[models.SessionState](t, rec)
	assert.Equal(t, st.SessionID, rec.Header().Get(sessionHeaderName))

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, sessionCookieName, cookies[0].Name)
	assert.Equal(t, st.SessionID, cookies[0].Value)

	// the cookie alone identifies the session
	req := httptest.NewRequest(http.MethodGet, "/api/session", nil)
	req.AddCookie(cookies[0])
	rec = httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, st.SessionID, decode[models.SessionState](t, rec).SessionID)
}

func TestLessonNavigation(t *testing.T) {
	f := newFixture(t)
	id := f.createSession(t)

	rec := f.do(t, http.MethodPost, "/api/session/lessons/first/select", id, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, models.LessonFirst, decode[models.SessionState](t, rec).Progress.CurrentLesson)

	rec = f.do(t, http.MethodPost, "/api/session/lessons/next", id, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, models.LessonSecond, decode[models.SessionState](t, rec).Progress.CurrentLesson)

	rec = f.do(t, http.MethodPost, "/api/session/lessons/previous", id, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, models.LessonFirst, decode[models.SessionState](t, rec).Progress.CurrentLesson)

	rec = f.do(t, http.MethodPost, "/api/session/lessons/introduction/continue", id, "")
	require.Equal(t, http.StatusOK, rec.Code)
	st := decode[models.SessionState](t, rec)
	assert.Equal(t, models.LessonFirst, st.Progress.CurrentLesson)
	assert.InDelta(t, 20.0, st.Progress.Progress, 1e-9)

	rec = f.do(t, http.MethodPost, "/api/session/lessons/third/finish", id, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.InDelta(t, 40.0, decode[models.SessionState](t, rec).Progress.Progress, 1e-9)

	rec = f.do(t, http.MethodPost, "/api/session/lessons/third/reset", id, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.InDelta(t, 20.0, decode[models.SessionState](t, rec).Progress.Progress, 1e-9)

	rec = f.do(t, http.MethodPost, "/api/session/progress/reset", id, "")
	require.Equal(t, http.StatusOK, rec.Code)
	st = decode[models.SessionState](t, rec)
	assert.Equal(t, models.LessonIntroduction, st.Progress.CurrentLesson)
	assert.Zero(t, st.Progress.Progress)

	rec = f.do(t, http.MethodPost, "/api/session/lessons/fourth/select", id, "")
	assertError(t, rec, http.StatusNotFound, "NOT_FOUND")
}

func TestTimerEndpoints(t *testing.T) {
	f := newFixture(t)
	id := f.createSession(t)

	rec := f.do(t, http.MethodPost, "/api/session/timers/eye-rotation/start", id, "")
	require.Equal(t, http.StatusOK, rec.Code)
	snap := decode[models.TimerSnapshot](t, rec)
	assert.Equal(t, models.ExerciseEyeRotation, snap.Exercise)
	assert.Equal(t, models.TimerRunning, snap.State)

	rec = f.do(t, http.MethodPost, "/api/session/timers/eye-rotation/stop", id, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, models.TimerIdle, decode[models.TimerSnapshot](t, rec).State)

	rec = f.do(t, http.MethodPost, "/api/session/timers/focus-shifting/start", id, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, models.ExerciseFocusShifting, decode[models.TimerSnapshot](t, rec).Exercise)

	rec = f.do(t, http.MethodPost, "/api/session/timers/rapid-blinking/reset", id, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Zero(t, decode[models.TimerSnapshot](t, rec).Elapsed)

	rec = f.do(t, http.MethodPost, "/api/session/timers/quiz/start", id, "")
	assertError(t, rec, http.StatusNotFound, "NOT_FOUND")
}

func TestSwitchInterval(t *testing.T) {
	f := newFixture(t)
	id := f.createSession(t)
	const path = "/api/session/timers/focus-shifting/interval"

	rec := f.do(t, http.MethodPut, path, id, `{"seconds":3}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 3, decode[models.TimerSnapshot](t, rec).SwitchSeconds)

	tests := []struct {
		name string
		body string
		code string
	}{
		{name: "out of range", body: `{"seconds":9}`, code: "VALIDATION_ERROR"},
		{name: "missing", body: `{}`, code: "VALIDATION_ERROR"},
		{name: "unknown field", body: `{"secs":2}`, code: "BAD_REQUEST"},
		{name: "malformed", body: `{"seconds":`, code: "BAD_REQUEST"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := f.do(t, http.MethodPut, path, id, tt.body)
			assertError(t, rec, http.StatusBadRequest, tt.code)
		})
	}
}

func TestQuizEndpoints(t *testing.T) {
	f := newFixture(t)
	id := f.createSession(t)

	first, err := provider.Question(models.QuestionFirst)
	require.NoError(t, err)
	correct, ok := first.CorrectAnswer()
	require.True(t, ok)

	rec := f.do(t, http.MethodPost, "/api/session/quiz/answers", id, `{"answer_id":"`+correct.ID.String()+`"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	result := decode[models.AnswerResult](t, rec)
	assert.True(t, result.Correct)
	assert.Equal(t, models.FeedbackSolution, result.Feedback)

	// the feedback delay is still pending
	rec = f.do(t, http.MethodPost, "/api/session/quiz/answers", id, `{"answer_id":"`+correct.ID.String()+`"}`)
	assertError(t, rec, http.StatusConflict, "CONFLICT")

	rec = f.do(t, http.MethodPost, "/api/session/quiz/reset", id, "")
	require.Equal(t, http.StatusOK, rec.Code)
	st := decode[models.SessionState](t, rec)
	assert.Equal(t, models.QuestionFirst, st.Quiz.CurrentQuestion)
	assert.Equal(t, models.FeedbackNeutral, st.Quiz.Feedback)

	rec = f.do(t, http.MethodPost, "/api/session/quiz/next", id, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, models.QuestionSecond, decode[models.SessionState](t, rec).Quiz.CurrentQuestion)

	rec = f.do(t, http.MethodPost, "/api/session/quiz/answers", id, `{"answer_id":"not-a-uuid"}`)
	assertError(t, rec, http.StatusBadRequest, "VALIDATION_ERROR")

	rec = f.do(t, http.MethodPost, "/api/session/quiz/answers", id, `{}`)
	assertError(t, rec, http.StatusBadRequest, "VALIDATION_ERROR")
}

func TestDeleteSession(t *testing.T) {
	f := newFixture(t)
	id := f.createSession(t)

	rec := f.do(t, http.MethodDelete, "/api/session", id, "")
	require.Equal(t, http.StatusNoContent, rec.Code)
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, -1, cookies[0].MaxAge)

	rec = f.do(t, http.MethodGet, "/api/session", id, "")
	assertError(t, rec, http.StatusNotFound, "NOT_FOUND")
	assert.Zero(t, f.manager.Len())
}

func TestHistoryEndpoint(t *testing.T) {
	f := newFixture(t)
	f.sessions.On("Get", mock.Anything, "s1").Return(&models.SessionRecord{ID: "s1"}, nil)

	want := models.ActivityFilter{SessionID: "s1", Kind: models.ActivityAnswerSubmitted, Limit: 10, Offset: 10}
	f.activities.On("List", mock.Anything, want).Return([]models.Activity{
		{ID: 11, SessionID: "s1", Kind: models.ActivityAnswerSubmitted, Question: "first"},
	}, nil)
	f.activities.On("Count", mock.Anything, want).Return(21, nil)

	rec := f.do(t, http.MethodGet, "/api/session/history?kind=answer_submitted&page=2&per_page=10", "s1", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	body := decode[struct {
		Activities []models.Activity `json:"activities"`
		Page       int               `json:"page"`
		PerPage    int               `json:"per_page"`
		TotalPages int               `json:"total_pages"`
		TotalCount int               `json:"total_count"`
	}](t, rec)
	require.Len(t, body.Activities, 1)
	assert.Equal(t, int64(11), body.Activities[0].ID)
	assert.Equal(t, 2, body.Page)
	assert.Equal(t, 10, body.PerPage)
	assert.Equal(t, 3, body.TotalPages)
	assert.Equal(t, 21, body.TotalCount)

	rec = f.do(t, http.MethodGet, "/api/session/history?kind=danced", "s1", "")
	assertError(t, rec, http.StatusBadRequest, "VALIDATION_ERROR")
}

func TestStatsEndpoint(t *testing.T) {
	f := newFixture(t)
	f.sessions.On("Get", mock.Anything, "s1").Return(&models.SessionRecord{ID: "s1"}, nil)
	f.activities.On("CountByKind", mock.Anything, "s1").Return([]models.ActivityCount{
		{Kind: models.ActivityLessonFinished, Count: 2},
	}, nil)
	f.activities.On("AnswerStats", mock.Anything, "s1").Return(2, 1, nil)

	rec := f.do(t, http.MethodGet, "/api/session/stats", "s1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	stats := decode[models.SessionStats](t, rec)
	assert.Equal(t, 2, stats.LessonsFinished)
	assert.InDelta(t, 0.5, stats.AnswerAccuracy, 1e-9)
}

func TestEventStream(t *testing.T) {
	f := newFixture(t)
	ts := httptest.NewServer(f.handler)
	t.Cleanup(ts.Close)
	id := f.createSession(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/api/session/events", nil)
	require.NoError(t, err)
	req.Header.Set(sessionHeaderName, id)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	lines := bufio.NewScanner(resp.Body)
	next := func() string {
		t.Helper()
		require.True(t, lines.Scan(), "stream ended early: %v", lines.Err())
		return lines.Text()
	}

	// initial state
	assert.Equal(t, "event: state", next())
	assert.Contains(t, next(), `"current_lesson":"introduction"`)
	assert.Equal(t, "", next())

	rec := f.do(t, http.MethodPost, "/api/session/lessons/second/select", id, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "event: state", next())
	assert.Contains(t, next(), `"current_lesson":"second"`)
	assert.Equal(t, "", next())

	require.Equal(t, http.StatusNoContent, f.do(t, http.MethodDelete, "/api/session", id, "").Code)
	var rest []string
	for lines.Scan() {
		rest = append(rest, lines.Text())
	}
	assert.Contains(t, rest, "event: closed")
}

func TestEventStream_UnknownSession(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/api/session/events", "missing", "")
	assertError(t, rec, http.StatusNotFound, "NOT_FOUND")
	assert.Zero(t, f.server.Hub.ClientCount("missing"))
}
