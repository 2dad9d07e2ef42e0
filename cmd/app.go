package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

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

// app holds the wired application. Commands build one, use it, and close it.
type app struct {
	cfg     config.Config
	log     *logger.Logger
	store   *store.Store
	graph   graph.Store
	topics  *topics.Orchestrator
	quiz    *quiz.Service
	sweeper *reconcile.Sweeper
}

func newApp(ctx context.Context, cmd *cobra.Command) (*app, error) {
	configPath, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if dbPath, _ := cmd.Flags().GetString("db"); dbPath != "" {
		cfg.Storage.Path = dbPath
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	log, err := logger.New(cfg.LogMode)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	st, err := store.Open(cfg.Storage, log)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	g, err := graph.New(ctx, cfg.Neo4j, log)
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("connect graph store: %w", err)
	}
	if err := g.EnsureSchema(ctx); err != nil {
		log.Warn("graph schema setup failed", "error", err)
	}

	provider, err := llm.NewProvider(ctx, cfg.AI, st, log)
	if err != nil {
		g.Close(ctx)
		st.Close()
		return nil, fmt.Errorf("init AI provider: %w", err)
	}

	a := &app{cfg: cfg, log: log, store: st, graph: g}
	a.topics = topics.New(st, g,
		contentgen.NewGraphGenerator(provider, cfg.AI.KnowledgeGraph),
		contentgen.NewQuestionGenerator(provider, cfg.AI.Questions),
		cfg.App, cfg.AI.Timeout, log)
	a.quiz = quiz.NewService(st, g,
		contentgen.NewGrader(provider, cfg.AI.Grading),
		cfg.App, cfg.AI.Timeout, log)
	a.sweeper = reconcile.New(st, g, log)
	return a, nil
}

func (a *app) Close(ctx context.Context) {
	if err := a.graph.Close(ctx); err != nil {
		a.log.Warn("closing graph store", "error", err)
	}
	if err := a.store.Close(); err != nil {
		a.log.Warn("closing database", "error", err)
	}
	a.log.Sync()
}
