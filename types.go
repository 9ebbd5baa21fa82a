package main

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// contextKey is a private type for request context values.
type contextKey string

// App holds all runtime state: configuration, the AI stack, the event
// notifier and the single active session. There is at most one session at a
// time; it is replaced wholesale by start and reset.
type App struct {
	Config *Config
	Corpus NameCorpus
	Names  *NameGenerator
	Judge  *Judge
	Events *Notifier

	Session      *GameSession
	SessionMutex sync.RWMutex

	LimiterMap   map[string]*rate.Limiter
	LimiterMutex sync.Mutex

	StartTime time.Time
}

// newApp wires the full dependency graph from a validated config.
func newApp(cfg *Config, corpus NameCorpus) *App {
	client := NewAIClient(cfg.Provider, cfg.APIKey)
	events := NewNotifier()
	return &App{
		Config:     cfg,
		Corpus:     corpus,
		Names:      NewNameGenerator(client, corpus),
		Judge:      NewJudge(client),
		Events:     events,
		Session:    NewIdleSession(cfg.Category, cfg.MaxQuestions, events),
		LimiterMap: make(map[string]*rate.Limiter),
		StartTime:  time.Now(),
	}
}
