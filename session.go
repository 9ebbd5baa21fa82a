package main

// currentSession returns the active session pointer. Handlers capture it
// once per request; if a reset swaps in a new session while an AI call is in
// flight, the late record lands on the abandoned session and is discarded
// with it.
func (app *App) currentSession() *GameSession {
	app.SessionMutex.RLock()
	defer app.SessionMutex.RUnlock()
	return app.Session
}

// replaceSession installs a freshly constructed session. The outgoing session
// is detached first so in-flight work against it cannot record or publish, and
// the stateChange announcing the new session is emitted only after the swap,
// so a subscriber reacting to it reads the session it describes.
func (app *App) replaceSession(s *GameSession) {
	app.SessionMutex.Lock()
	app.Session.Detach()
	app.Session = s
	s.emitStateChange()
	app.SessionMutex.Unlock()
	logInfo("Installed new game session (started=%v, maxQuestions=%d, category=%s)",
		s.Started, s.MaxQuestions, s.Category)
}

// withSessionLock runs fn while holding the session write lock. State
// transitions and their event emissions happen inside the lock, which keeps
// the two players' concurrent updates from interleaving mid-notification.
func (app *App) withSessionLock(fn func()) {
	app.SessionMutex.Lock()
	defer app.SessionMutex.Unlock()
	fn()
}
