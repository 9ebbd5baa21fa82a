package main

import "time"

// Game configuration constants
const (
	DefaultMaxQuestions = 12 // Default question budget per player
	MinMaxQuestions     = 5  // Lowest allowed question budget
	MaxMaxQuestions     = 30 // Highest allowed question budget
)

// AI request constants
const (
	RequestTimeout     = 15 * time.Second // Client-side timeout per provider call
	MaxReplyTokens     = 100              // Token cap requested from every provider
	DefaultTemperature = 0.7              // Used for judgment calls
	NameTemperature    = 0.9              // High temperature for name diversity
)

// Name generation constants
const (
	CorpusOdds     = 0.8 // Chance of sampling the local corpus before asking the AI
	NameAttempts   = 3   // Total generation attempts before giving up
	NameRetryDelay = time.Second
	MinNameRunes   = 1
	MaxNameRunes   = 10
)

// Verdict parsing constants
const (
	VerdictCorrect   = "CORRECT"
	VerdictIncorrect = "INCORRECT"
	VerdictAttempts  = 2 // Parse attempts before the verdict is unparseable
	VerdictDelay     = 500 * time.Millisecond
)

// Provider identifiers
const (
	ProviderZhipu  = "zhipu"
	ProviderGemini = "gemini"
)

// Provider endpoints
const (
	ZhipuEndpoint  = "https://open.bigmodel.cn/api/paas/v4/chat/completions"
	ZhipuModel     = "glm-4-flash"
	GeminiEndpoint = "https://generativelanguage.googleapis.com/v1beta/models/gemini-2.0-flash:generateContent"
)

// Category identifiers
const (
	CategoryAny               = "any"
	CategoryAncientEmperor    = "ancient_emperor"
	CategoryAncientScholar    = "ancient_scholar"
	CategoryClassicCharacter  = "classic_character"
	CategoryEntertainmentStar = "entertainment_star"
	CategorySportsStar        = "sports_star"
	CategoryEntrepreneur      = "entrepreneur"
	CategoryJourneyWest       = "journey_west"
)

// Error message constants
const (
	ErrorNoSession      = "no game in progress"
	ErrorInvalidPlayer  = "player must be 1 or 2"
	ErrorEmptyText      = "text must not be empty"
	ErrorNoMoreAsks     = "question budget used up, only guesses are allowed"
	ErrorPlayerFinished = "player has already finished"
)

// Context key constants
const (
	requestIDKey contextKey = "request_id"
)
