package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/abhisek/inkling/internal/config"
	"github.com/abhisek/inkling/internal/contentgen"
	"github.com/abhisek/inkling/internal/graph"
	"github.com/abhisek/inkling/internal/llm"
	"github.com/abhisek/inkling/internal/logger"
	"github.com/abhisek/inkling/internal/quiz"
	"github.com/abhisek/inkling/internal/reconcile"
	"github.com/abhisek/inkling/internal/store"
	"github.com/abhisek/inkling/internal/topics"
)

func newTestRouter(t *testing.T, mock *llm.MockProvider) (*gin.Engine, *store.Store) {
	t.Helper()
	st, err := store.OpenMemory(logger.Nop())
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	fake := graph.NewFake()
	params := config.GenParams{Temperature: 0.7, MaxTokens: 2048}
	app := config.AppConfig{DefaultQuestionCount: 2, QuestionsPerSession: 5}
	log := logger.Nop()

	deps := Deps{
		Topics: topics.New(st, fake,
			contentgen.NewGraphGenerator(mock, params),
			contentgen.NewQuestionGenerator(mock, params),
			app, 30*time.Second, log),
		Quiz:    quiz.NewService(st, fake, contentgen.NewGrader(mock, params), app, 30*time.Second, log),
		Sweeper: reconcile.New(st, fake, log),
		Store:   st,
		Graph:   fake,
		Log:     log,
	}
	return NewRouter(config.ServerConfig{CORSOrigins: []string{"http://localhost:3000"}}, deps), st
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

var testGraphJSON = json.RawMessage(`{
	"description": "d",
	"subtopics": [{"name": "Cells", "description": "", "prerequisites": [], "related": []}]
}`)

var testQuestionsJSON = json.RawMessage(`{
	"questions": [
		{"question_text": "What is a cell?", "correct_answer": "The unit of life.", "subtopic": "Cells", "difficulty": "easy"},
		{"question_text": "Name an organelle.", "correct_answer": "Mitochondria.", "subtopic": "Cells", "difficulty": "medium"}
	]
}`)

func TestCreateTopicEndpoint(t *testing.T) {
	mock := llm.NewMockProvider(
		llm.MockResponse{Content: testGraphJSON},
		llm.MockResponse{Content: testQuestionsJSON},
	)
	router, _ := newTestRouter(t, mock)

	w := doJSON(t, router, http.MethodPost, "/api/topics", gin.H{"name": "Biology"})
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var resp struct {
		Topic struct {
			ID   int64  `json:"id"`
			Name string `json:"name"`
		} `json:"topic"`
		Questions []struct {
			QuestionText string `json:"question_text"`
		} `json:"questions"`
		Warnings []string `json:"warnings"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Topic.Name != "Biology" || len(resp.Questions) != 2 {
		t.Errorf("resp = %+v", resp)
	}
	if w.Header().Get("X-Request-ID") == "" {
		t.Error("missing request id header")
	}

	// Reference answers must not leak to clients.
	if bytes.Contains(w.Body.Bytes(), []byte("The unit of life.")) {
		t.Error("reference answer leaked in response")
	}
}

func TestCreateTopicValidation(t *testing.T) {
	router, _ := newTestRouter(t, llm.NewMockProvider())
	w := doJSON(t, router, http.MethodPost, "/api/topics", gin.H{"name": "  "})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

func TestGetTopicNotFound(t *testing.T) {
	router, _ := newTestRouter(t, llm.NewMockProvider())
	w := doJSON(t, router, http.MethodGet, "/api/topics/99", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
}

func TestQuizFlowOverHTTP(t *testing.T) {
	mock := llm.NewMockProvider(
		llm.MockResponse{Content: testGraphJSON},
		llm.MockResponse{Content: testQuestionsJSON},
		llm.MockResponse{Content: json.RawMessage(`{"is_correct": true, "understanding_score": 5, "feedback": "f"}`)},
	)
	router, _ := newTestRouter(t, mock)

	w := doJSON(t, router, http.MethodPost, "/api/topics", gin.H{"name": "Biology"})
	if w.Code != http.StatusCreated {
		t.Fatalf("create topic: %d", w.Code)
	}
	var created struct {
		Topic struct {
			ID int64 `json:"id"`
		} `json:"topic"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode: %v", err)
	}

	w = doJSON(t, router, http.MethodPost, "/api/quizzes/start", gin.H{"topic_id": created.Topic.ID})
	if w.Code != http.StatusCreated {
		t.Fatalf("start quiz: %d, %s", w.Code, w.Body.String())
	}
	var started struct {
		SessionID int64 `json:"session_id"`
		Questions []struct {
			ID int64 `json:"id"`
		} `json:"questions"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &started); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(started.Questions) != 2 {
		t.Fatalf("got %d questions", len(started.Questions))
	}

	w = doJSON(t, router, http.MethodPost, "/api/quizzes/grade",
		gin.H{"question_id": started.Questions[0].ID, "answer": "The basic unit of life."})
	if w.Code != http.StatusCreated {
		t.Fatalf("grade: %d, %s", w.Code, w.Body.String())
	}
	var graded struct {
		ID        int64 `json:"id"`
		IsCorrect bool  `json:"is_correct"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &graded); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !graded.IsCorrect {
		t.Error("expected a correct verdict")
	}

	w = doJSON(t, router, http.MethodPost, "/api/quizzes/finish",
		gin.H{"session_id": started.SessionID, "answer_ids": []int64{graded.ID}})
	if w.Code != http.StatusOK {
		t.Fatalf("finish: %d, %s", w.Code, w.Body.String())
	}
	var results struct {
		TotalQuestions int     `json:"total_questions"`
		Score          float64 `json:"score"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &results); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if results.TotalQuestions != 1 || results.Score != 100 {
		t.Errorf("results = %+v", results)
	}

	w = doJSON(t, router, http.MethodGet, "/api/quizzes/history", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("history: %d", w.Code)
	}
}

func TestGradeFailureMapsToBadGateway(t *testing.T) {
	mock := llm.NewMockProvider(
		llm.MockResponse{Content: testGraphJSON},
		llm.MockResponse{Content: testQuestionsJSON},
		llm.MockResponse{Err: &llm.ErrProviderUnavailable{}},
	)
	router, _ := newTestRouter(t, mock)

	w := doJSON(t, router, http.MethodPost, "/api/topics", gin.H{"name": "Biology"})
	var created struct {
		Questions []struct {
			ID int64 `json:"id"`
		} `json:"questions"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode: %v", err)
	}

	w = doJSON(t, router, http.MethodPost, "/api/quizzes/grade",
		gin.H{"question_id": created.Questions[0].ID, "answer": "attempt"})
	if w.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", w.Code)
	}
}

func TestReconcileEndpoint(t *testing.T) {
	mock := llm.NewMockProvider(
		llm.MockResponse{Content: testGraphJSON},
		llm.MockResponse{Content: testQuestionsJSON},
	)
	router, _ := newTestRouter(t, mock)

	if w := doJSON(t, router, http.MethodPost, "/api/topics", gin.H{"name": "Biology"}); w.Code != http.StatusCreated {
		t.Fatalf("create topic: %d", w.Code)
	}
	w := doJSON(t, router, http.MethodPost, "/api/reconcile", gin.H{})
	if w.Code != http.StatusOK {
		t.Fatalf("reconcile: %d, %s", w.Code, w.Body.String())
	}
	var res struct {
		Repaired int `json:"repaired"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if res.Repaired != 0 {
		t.Errorf("repaired = %d on a healthy store", res.Repaired)
	}
}
