// Package server exposes the application over HTTP. It is a thin layer:
// every handler validates input, calls one service method, and maps the
// error taxonomy to status codes.
package server

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/abhisek/inkling/internal/config"
	"github.com/abhisek/inkling/internal/graph"
	"github.com/abhisek/inkling/internal/logger"
	"github.com/abhisek/inkling/internal/quiz"
	"github.com/abhisek/inkling/internal/reconcile"
	"github.com/abhisek/inkling/internal/store"
	"github.com/abhisek/inkling/internal/topics"
)

// Deps carries the services the handlers call.
type Deps struct {
	Topics  *topics.Orchestrator
	Quiz    *quiz.Service
	Sweeper *reconcile.Sweeper
	Store   *store.Store
	Graph   graph.Store
	Log     *logger.Logger
}

// NewRouter builds the gin engine with all routes registered.
func NewRouter(cfg config.ServerConfig, deps Deps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(RequestID())
	router.Use(RequestLogger(deps.Log))

	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", "X-Request-ID"},
		AllowCredentials: true,
	}))

	h := &handlers{deps: deps}

	router.GET("/healthcheck", h.health)

	api := router.Group("/api")
	{
		api.GET("/topics", h.listTopics)
		api.POST("/topics", h.createTopic)
		api.GET("/topics/:id", h.getTopic)
		api.GET("/topics/:id/subtopics", h.listSubtopics)
		api.GET("/topics/:id/questions", h.listQuestions)
		api.POST("/topics/:id/questions/generate", h.generateQuestions)
		api.GET("/topics/:id/stats", h.topicStats)

		api.POST("/quizzes/start", h.startQuiz)
		api.POST("/quizzes/grade", h.gradeAnswer)
		api.POST("/quizzes/finish", h.finishQuiz)
		api.GET("/quizzes/history", h.history)
		api.GET("/quizzes/sessions", h.sessions)

		api.GET("/subtopics/:id/related", h.relatedSubtopics)

		api.POST("/reconcile", h.runReconcile)
		api.GET("/llm/calls", h.llmCalls)
	}

	return router
}
