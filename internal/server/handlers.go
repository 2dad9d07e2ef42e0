package server

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/abhisek/inkling/internal/apperr"
	"github.com/abhisek/inkling/internal/graph"
	"github.com/abhisek/inkling/internal/types"
)

type handlers struct {
	deps Deps
}

func (h *handlers) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// writeError maps the error taxonomy to HTTP status codes.
func writeError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	kind := apperr.KindOf(err)
	switch {
	case errors.Is(err, graph.ErrDisabled):
		status = http.StatusServiceUnavailable
	default:
		switch kind {
		case apperr.KindValidation:
			status = http.StatusBadRequest
		case apperr.KindNotFound:
			status = http.StatusNotFound
		case apperr.KindGeneration, apperr.KindGrading:
			status = http.StatusBadGateway
		}
	}
	c.JSON(status, gin.H{"error": err.Error(), "kind": string(kind)})
}

func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(c, &apperr.ValidationError{Msg: "invalid id"})
		return 0, false
	}
	return id, true
}

func queryTopicID(c *gin.Context) (*int64, bool) {
	raw := c.Query("topic_id")
	if raw == "" {
		return nil, true
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		writeError(c, &apperr.ValidationError{Msg: "invalid topic_id"})
		return nil, false
	}
	return &id, true
}

func queryLimit(c *gin.Context, fallback int) int {
	raw := c.Query("limit")
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return fallback
	}
	return n
}

// quizQuestion strips the reference answer so clients cannot show it to the
// learner before grading.
type quizQuestion struct {
	ID           int64  `json:"id"`
	TopicID      int64  `json:"topic_id"`
	SubtopicID   *int64 `json:"subtopic_id,omitempty"`
	QuestionText string `json:"question_text"`
	Difficulty   string `json:"difficulty"`
}

func toQuizQuestions(questions []*types.Question) []quizQuestion {
	out := make([]quizQuestion, 0, len(questions))
	for _, q := range questions {
		out = append(out, quizQuestion{
			ID:           q.ID,
			TopicID:      q.TopicID,
			SubtopicID:   q.SubtopicID,
			QuestionText: q.QuestionText,
			Difficulty:   q.Difficulty,
		})
	}
	return out
}

func warningStrings(warns []error) []string {
	out := make([]string, 0, len(warns))
	for _, w := range warns {
		out = append(out, w.Error())
	}
	return out
}

func (h *handlers) listTopics(c *gin.Context) {
	topics, err := h.deps.Topics.ListTopics(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"topics": topics})
}

func (h *handlers) createTopic(c *gin.Context) {
	var req struct {
		Name string `json:"name"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, &apperr.ValidationError{Msg: "invalid request body"})
		return
	}
	res, err := h.deps.Topics.CreateTopic(c.Request.Context(), req.Name)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"topic":     res.Topic,
		"subtopics": res.Subtopics,
		"questions": toQuizQuestions(res.Questions),
		"warnings":  warningStrings(res.Warnings),
	})
}

func (h *handlers) getTopic(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	topic, err := h.deps.Topics.GetTopic(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, topic)
}

func (h *handlers) listSubtopics(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	subtopics, err := h.deps.Topics.ListSubtopics(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"subtopics": subtopics})
}

func (h *handlers) listQuestions(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	questions, err := h.deps.Topics.ListQuestions(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"questions": toQuizQuestions(questions)})
}

func (h *handlers) generateQuestions(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req struct {
		Count int `json:"count"`
	}
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		writeError(c, &apperr.ValidationError{Msg: "invalid request body"})
		return
	}
	questions, warns, err := h.deps.Topics.GenerateQuestions(c.Request.Context(), id, req.Count)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"questions": toQuizQuestions(questions),
		"warnings":  warningStrings(warns),
	})
}

func (h *handlers) topicStats(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	stats, err := h.deps.Quiz.TopicStats(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *handlers) startQuiz(c *gin.Context) {
	var req struct {
		TopicID int64 `json:"topic_id"`
		Count   int   `json:"count"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, &apperr.ValidationError{Msg: "invalid request body"})
		return
	}
	run, err := h.deps.Quiz.Start(c.Request.Context(), req.TopicID, req.Count)
	if err != nil {
		writeError(c, err)
		return
	}
	session := run.Session()
	questions := make([]*types.Question, 0, session.TotalQuestions)
	for {
		q, err := run.NextQuestion()
		if err != nil || q == nil {
			break
		}
		questions = append(questions, q)
	}
	c.JSON(http.StatusCreated, gin.H{
		"session_id": session.ID,
		"topic_id":   session.TopicID,
		"questions":  toQuizQuestions(questions),
	})
}

func (h *handlers) gradeAnswer(c *gin.Context) {
	var req struct {
		QuestionID int64  `json:"question_id"`
		Answer     string `json:"answer"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, &apperr.ValidationError{Msg: "invalid request body"})
		return
	}
	answer, err := h.deps.Quiz.Grade(c.Request.Context(), req.QuestionID, req.Answer)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, answer)
}

func (h *handlers) finishQuiz(c *gin.Context) {
	var req struct {
		SessionID int64   `json:"session_id"`
		AnswerIDs []int64 `json:"answer_ids"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, &apperr.ValidationError{Msg: "invalid request body"})
		return
	}
	results, err := h.deps.Quiz.FinishSession(c.Request.Context(), req.SessionID, req.AnswerIDs)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, results)
}

func (h *handlers) history(c *gin.Context) {
	topicID, ok := queryTopicID(c)
	if !ok {
		return
	}
	entries, err := h.deps.Quiz.History(c.Request.Context(), topicID, queryLimit(c, 50))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"history": entries})
}

func (h *handlers) sessions(c *gin.Context) {
	topicID, ok := queryTopicID(c)
	if !ok {
		return
	}
	sessions, err := h.deps.Quiz.Sessions(c.Request.Context(), topicID, queryLimit(c, 20))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"sessions": sessions})
}

func (h *handlers) relatedSubtopics(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	neighbors, err := h.deps.Graph.RelatedSubtopics(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"related": neighbors})
}

func (h *handlers) runReconcile(c *gin.Context) {
	var req struct {
		TopicID *int64 `json:"topic_id"`
		Force   bool   `json:"force"`
	}
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		writeError(c, &apperr.ValidationError{Msg: "invalid request body"})
		return
	}
	res, err := h.deps.Sweeper.Run(c.Request.Context(), req.TopicID, req.Force)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *handlers) llmCalls(c *gin.Context) {
	calls, err := h.deps.Store.ListLLMCalls(c.Request.Context(), queryLimit(c, 50))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"calls": calls})
}
