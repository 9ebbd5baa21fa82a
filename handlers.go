package main

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// textRequest is the JSON body for ask and guess submissions.
type textRequest struct {
	Text string `json:"text"`
}

// startGameHandler generates both secret names and installs a fresh session.
// Player 2's name excludes player 1's so the duel never hands out the same
// secret twice.
func (app *App) startGameHandler(c *gin.Context) {
	ctx := c.Request.Context()
	cfg := app.Config

	name1, err := app.Names.Generate(ctx, cfg.Category, "")
	if err != nil {
		app.respondAIError(c, err)
		return
	}
	name2, err := app.Names.Generate(ctx, cfg.Category, name1)
	if err != nil {
		app.respondAIError(c, err)
		return
	}

	session := NewSession(name1, name2, cfg.Category, cfg.MaxQuestions, app.Events)
	app.replaceSession(session)

	c.JSON(http.StatusOK, app.snapshotState())
}

// askHandler judges a yes/no question about the player's own secret and
// records the verdict.
func (app *App) askHandler(c *gin.Context) {
	player, ok := playerParam(c)
	if !ok {
		return
	}
	text, ok := bindText(c)
	if !ok {
		return
	}

	session := app.currentSession()
	var canAsk, playing bool
	var secret string
	app.withSessionLock(func() {
		canAsk = session.CanAskQuestion(player)
		playing = session.CanGuess(player)
		secret = session.SecretName(player)
	})
	if !session.Started {
		c.JSON(http.StatusConflict, gin.H{"error": ErrorNoSession})
		return
	}
	if !playing {
		c.JSON(http.StatusConflict, gin.H{"error": ErrorPlayerFinished})
		return
	}
	if !canAsk {
		c.JSON(http.StatusConflict, gin.H{"error": ErrorNoMoreAsks})
		return
	}

	result, err := app.Judge.JudgeQuestion(c.Request.Context(), secret, text)
	if err != nil {
		app.respondAIError(c, err)
		return
	}

	var accepted bool
	var state PublicState
	app.withSessionLock(func() {
		accepted = session.Record(player, newAskRecord(text, result))
		state = session.PublicState()
	})
	if !accepted {
		// The player went terminal while the judgment was in flight.
		c.JSON(http.StatusConflict, gin.H{"error": ErrorPlayerFinished})
		return
	}
	c.JSON(http.StatusOK, gin.H{"result": result, "state": state})
}

// guessHandler judges a name guess. Guessing has no budget cap; a playing
// player may keep guessing until they win or give up.
func (app *App) guessHandler(c *gin.Context) {
	player, ok := playerParam(c)
	if !ok {
		return
	}
	text, ok := bindText(c)
	if !ok {
		return
	}

	session := app.currentSession()
	var canGuess bool
	var secret string
	app.withSessionLock(func() {
		canGuess = session.CanGuess(player)
		secret = session.SecretName(player)
	})
	if !session.Started {
		c.JSON(http.StatusConflict, gin.H{"error": ErrorNoSession})
		return
	}
	if !canGuess {
		c.JSON(http.StatusConflict, gin.H{"error": ErrorPlayerFinished})
		return
	}

	result, err := app.Judge.JudgeGuess(c.Request.Context(), secret, text)
	if err != nil {
		app.respondAIError(c, err)
		return
	}

	var accepted bool
	var state PublicState
	app.withSessionLock(func() {
		accepted = session.Record(player, newGuessRecord(text, result))
		state = session.PublicState()
	})
	if !accepted {
		c.JSON(http.StatusConflict, gin.H{"error": ErrorPlayerFinished})
		return
	}
	c.JSON(http.StatusOK, gin.H{"result": result, "state": state})
}

// hintHandler fetches one vague clue and records it. The hint consumes a
// question slot like any other record.
func (app *App) hintHandler(c *gin.Context) {
	player, ok := playerParam(c)
	if !ok {
		return
	}

	session := app.currentSession()
	var playing bool
	var secret string
	app.withSessionLock(func() {
		playing = session.CanGuess(player)
		secret = session.SecretName(player)
	})
	if !session.Started {
		c.JSON(http.StatusConflict, gin.H{"error": ErrorNoSession})
		return
	}
	if !playing {
		c.JSON(http.StatusConflict, gin.H{"error": ErrorPlayerFinished})
		return
	}

	hint, err := app.Judge.Hint(c.Request.Context(), secret)
	if err != nil {
		app.respondAIError(c, err)
		return
	}

	var accepted bool
	var state PublicState
	app.withSessionLock(func() {
		accepted = session.Record(player, newHintRecord("Hint: "+hint))
		state = session.PublicState()
	})
	if !accepted {
		c.JSON(http.StatusConflict, gin.H{"error": ErrorPlayerFinished})
		return
	}
	c.JSON(http.StatusOK, gin.H{"hint": hint, "state": state})
}

// giveUpHandler moves a playing player to gave_up.
func (app *App) giveUpHandler(c *gin.Context) {
	player, ok := playerParam(c)
	if !ok {
		return
	}

	session := app.currentSession()
	var accepted bool
	var state PublicState
	app.withSessionLock(func() {
		accepted = session.GiveUp(player)
		state = session.PublicState()
	})
	if !accepted {
		c.JSON(http.StatusConflict, gin.H{"error": ErrorPlayerFinished})
		return
	}
	c.JSON(http.StatusOK, state)
}

// stateHandler returns the redacted public snapshot.
func (app *App) stateHandler(c *gin.Context) {
	c.JSON(http.StatusOK, app.snapshotState())
}

// resetHandler discards the session. Settings are untouched; the next start
// uses the same config.
func (app *App) resetHandler(c *gin.Context) {
	app.withSessionLock(func() {
		next := app.Session.Reset()
		app.Session = next
		next.emitStateChange()
	})
	logInfo("Game session reset")
	c.JSON(http.StatusOK, app.snapshotState())
}

// healthzHandler returns a JSON health check with server stats.
func (app *App) healthzHandler(c *gin.Context) {
	uptime := time.Since(app.StartTime)
	state := app.snapshotState()
	c.JSON(http.StatusOK, gin.H{
		"status":       "ok",
		"provider":     app.Config.Provider,
		"category":     app.Config.Category,
		"corpus_names": app.Corpus.Size(),
		"game_started": state.Started,
		"game_over":    state.IsGameOver,
		"uptime":       formatUptime(uptime),
		"timestamp":    time.Now().UTC().Format(time.RFC3339),
	})
}

// snapshotState reads the public state under the session lock.
func (app *App) snapshotState() PublicState {
	app.SessionMutex.RLock()
	defer app.SessionMutex.RUnlock()
	return app.Session.PublicState()
}

// playerParam parses the :player route segment; anything but 1 or 2 is
// rejected with a 404.
func playerParam(c *gin.Context) (int, bool) {
	switch c.Param("player") {
	case "1":
		return 1, true
	case "2":
		return 2, true
	}
	c.JSON(http.StatusNotFound, gin.H{"error": ErrorInvalidPlayer})
	return 0, false
}

// bindText extracts and trims the request text, rejecting empty input.
func bindText(c *gin.Context) (string, bool) {
	var req textRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return "", false
	}
	text := strings.TrimSpace(req.Text)
	if text == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": ErrorEmptyText})
		return "", false
	}
	return text, true
}

// respondAIError maps AI-layer failures onto HTTP statuses. Everything here
// is surfaced verbatim; the core never swallows a failure.
func (app *App) respondAIError(c *gin.Context, err error) {
	logWarn("AI call failed: %v", err)
	status := http.StatusBadGateway
	switch {
	case errors.Is(err, ErrNoAPIKey):
		status = http.StatusBadRequest
	case errors.Is(err, ErrTimeout):
		status = http.StatusGatewayTimeout
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
