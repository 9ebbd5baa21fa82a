package main

// PlayerPhase tracks one player's progress through the duel.
type PlayerPhase string

const (
	PhaseIdle      PlayerPhase = "idle"
	PhasePlaying   PlayerPhase = "playing"
	PhaseWon       PlayerPhase = "won"
	PhaseGaveUp    PlayerPhase = "gave_up"
	PhaseExhausted PlayerPhase = "exhausted"
)

// Terminal reports whether the phase admits no further transitions.
func (p PlayerPhase) Terminal() bool {
	return p == PhaseWon || p == PhaseGaveUp || p == PhaseExhausted
}

// RecordKind tags a question record.
type RecordKind string

const (
	RecordAsk   RecordKind = "ask"
	RecordGuess RecordKind = "guess"
	RecordHint  RecordKind = "hint"
)

// QuestionRecord is one entry in a player's history. Result is nil only for
// hint records; the per-kind constructors below are the only way records are
// built, which keeps that invariant out of caller hands.
type QuestionRecord struct {
	Index  int        `json:"index"`
	Text   string     `json:"text"`
	Kind   RecordKind `json:"kind"`
	Result *bool      `json:"result,omitempty"`
}

// newAskRecord builds a record for a judged yes/no question.
func newAskRecord(text string, result bool) QuestionRecord {
	return QuestionRecord{Text: text, Kind: RecordAsk, Result: &result}
}

// newGuessRecord builds a record for a judged name guess.
func newGuessRecord(text string, result bool) QuestionRecord {
	return QuestionRecord{Text: text, Kind: RecordGuess, Result: &result}
}

// newHintRecord builds a record for a delivered hint.
func newHintRecord(text string) QuestionRecord {
	return QuestionRecord{Text: text, Kind: RecordHint}
}

// PlayerState holds one player's half of the session. The secret name is
// never serialized; it leaves the session only through SecretName (for the
// judge) and through terminal-state reveals.
type PlayerState struct {
	secretName    string
	Phase         PlayerPhase
	QuestionsUsed int
	Records       []QuestionRecord
}

func newIdlePlayer() *PlayerState {
	return &PlayerState{Phase: PhaseIdle}
}

func newPlayingPlayer(secretName string) *PlayerState {
	return &PlayerState{secretName: secretName, Phase: PhasePlaying}
}

// ResultType names the aggregate outcome of a finished duel.
type ResultType string

const (
	ResultBothWonP1Better ResultType = "both_won_p1_better"
	ResultBothWonP2Better ResultType = "both_won_p2_better"
	ResultBothWonTie      ResultType = "both_won_tie"
	ResultP1Wins          ResultType = "p1_wins"
	ResultP2Wins          ResultType = "p2_wins"
	ResultDraw            ResultType = "draw"
)

// PlayerSummary is the per-player slice of a MatchResult. Secrets are fair
// game here: results only exist once both players are terminal.
type PlayerSummary struct {
	Phase         PlayerPhase `json:"state"`
	SecretName    string      `json:"secretName"`
	QuestionsUsed int         `json:"questionsUsed"`
}

// MatchResult is derived on demand from two terminal player states.
type MatchResult struct {
	ResultType ResultType    `json:"resultType"`
	WinnerNum  int           `json:"winnerNum"` // 0 means tie or draw
	Player1    PlayerSummary `json:"player1"`
	Player2    PlayerSummary `json:"player2"`
}

// PublicPlayer is the redacted per-player view. SecretName stays empty until
// the player reaches a terminal phase.
type PublicPlayer struct {
	Phase         PlayerPhase      `json:"state"`
	QuestionsUsed int              `json:"questionsUsed"`
	Records       []QuestionRecord `json:"records"`
	SecretName    string           `json:"secretName,omitempty"`
}

// PublicState is the snapshot handed to the UI collaborator.
type PublicState struct {
	Started      bool         `json:"started"`
	MaxQuestions int          `json:"maxQuestions"`
	Category     string       `json:"category"`
	Player1      PublicPlayer `json:"player1"`
	Player2      PublicPlayer `json:"player2"`
	IsGameOver   bool         `json:"isGameOver"`
	Result       *MatchResult `json:"result,omitempty"`
}

// GameSession is one two-player match. It is an owned value, constructed by
// NewSession and replaced wholesale by Reset; nothing here is package-level
// state. All mutations notify the attached Notifier synchronously.
type GameSession struct {
	Started      bool
	MaxQuestions int
	Category     string
	player1      *PlayerState
	player2      *PlayerState
	events       *Notifier
}

// NewSession starts a match with both players playing. It does not announce
// itself; the installer emits the first stateChange once the session is
// reachable, so subscribers never react to a session that is not yet live.
func NewSession(name1, name2, category string, maxQuestions int, events *Notifier) *GameSession {
	if maxQuestions <= 0 {
		maxQuestions = DefaultMaxQuestions
	}
	if category == "" {
		category = CategoryAny
	}
	return &GameSession{
		Started:      true,
		MaxQuestions: maxQuestions,
		Category:     category,
		player1:      newPlayingPlayer(name1),
		player2:      newPlayingPlayer(name2),
		events:       events,
	}
}

// NewIdleSession is the pre-start state: both players idle, nothing assigned.
func NewIdleSession(category string, maxQuestions int, events *Notifier) *GameSession {
	return &GameSession{
		MaxQuestions: maxQuestions,
		Category:     category,
		player1:      newIdlePlayer(),
		player2:      newIdlePlayer(),
		events:       events,
	}
}

// player returns the addressed player state, or nil for an invalid number.
func (s *GameSession) player(num int) *PlayerState {
	switch num {
	case 1:
		return s.player1
	case 2:
		return s.player2
	}
	return nil
}

// SecretName exposes a player's hidden name for judging. The public snapshot
// never includes it while the player is still playing.
func (s *GameSession) SecretName(num int) string {
	p := s.player(num)
	if p == nil {
		return ""
	}
	return p.secretName
}

// Record applies one question/guess/hint record to a player. It returns
// false, changing nothing, unless the player is currently playing; that
// guard also makes late responses for already-terminal players a no-op.
//
// Every accepted record consumes a question slot. A correct guess wins
// immediately regardless of the count. A wrong guess at or past the budget
// exhausts the player; a wrong ask at the budget does not, it only stops
// further asking via CanAskQuestion. The budget rations asks, not guesses.
func (s *GameSession) Record(num int, rec QuestionRecord) bool {
	p := s.player(num)
	if p == nil || p.Phase != PhasePlaying {
		return false
	}

	p.QuestionsUsed++
	rec.Index = p.QuestionsUsed
	p.Records = append(p.Records, rec)

	if rec.Kind == RecordGuess && rec.Result != nil && *rec.Result {
		p.Phase = PhaseWon
		s.publish(Event{Kind: EventPlayerWon, PlayerNum: num})
	}

	if p.QuestionsUsed >= s.MaxQuestions && p.Phase == PhasePlaying {
		if rec.Kind == RecordGuess && rec.Result != nil && !*rec.Result {
			p.Phase = PhaseExhausted
			s.publish(Event{Kind: EventPlayerExhausted, PlayerNum: num})
		}
	}

	s.emitStateChange()
	s.emitGameOverIfDone()
	return true
}

// CanAskQuestion reports whether the player may submit another yes/no
// question.
func (s *GameSession) CanAskQuestion(num int) bool {
	p := s.player(num)
	return p != nil && p.Phase == PhasePlaying && p.QuestionsUsed < s.MaxQuestions
}

// CanGuess reports whether the player may submit a guess. There is no upper
// bound: a playing player may guess forever.
func (s *GameSession) CanGuess(num int) bool {
	p := s.player(num)
	return p != nil && p.Phase == PhasePlaying
}

// GiveUp moves a playing player to gave_up without consuming a question slot.
func (s *GameSession) GiveUp(num int) bool {
	p := s.player(num)
	if p == nil || p.Phase != PhasePlaying {
		return false
	}
	p.Phase = PhaseGaveUp
	s.publish(Event{Kind: EventPlayerGaveUp, PlayerNum: num})
	s.emitStateChange()
	s.emitGameOverIfDone()
	return true
}

// IsGameOver is true once neither player is playing or idle.
func (s *GameSession) IsGameOver() bool {
	return s.player1.Phase.Terminal() && s.player2.Phase.Terminal()
}

// Result computes the aggregate outcome. Valid only when the game is over;
// callers that ask early get nil.
func (s *GameSession) Result() *MatchResult {
	if !s.IsGameOver() {
		return nil
	}

	p1Won := s.player1.Phase == PhaseWon
	p2Won := s.player2.Phase == PhaseWon

	result := &MatchResult{
		Player1: PlayerSummary{Phase: s.player1.Phase, SecretName: s.player1.secretName, QuestionsUsed: s.player1.QuestionsUsed},
		Player2: PlayerSummary{Phase: s.player2.Phase, SecretName: s.player2.secretName, QuestionsUsed: s.player2.QuestionsUsed},
	}

	switch {
	case p1Won && p2Won:
		switch {
		case s.player1.QuestionsUsed < s.player2.QuestionsUsed:
			result.ResultType, result.WinnerNum = ResultBothWonP1Better, 1
		case s.player2.QuestionsUsed < s.player1.QuestionsUsed:
			result.ResultType, result.WinnerNum = ResultBothWonP2Better, 2
		default:
			result.ResultType, result.WinnerNum = ResultBothWonTie, 0
		}
	case p1Won:
		result.ResultType, result.WinnerNum = ResultP1Wins, 1
	case p2Won:
		result.ResultType, result.WinnerNum = ResultP2Wins, 2
	default:
		result.ResultType, result.WinnerNum = ResultDraw, 0
	}
	return result
}

// Detach abandons the session: both players drop back to idle so a late
// record (say, a judgment that was in flight when the session was replaced)
// rejects as a no-op, and the notifier is released so nothing recorded here
// can reach live subscribers.
func (s *GameSession) Detach() {
	s.Started = false
	s.player1.Phase = PhaseIdle
	s.player2.Phase = PhaseIdle
	s.events = nil
}

// Reset detaches the session and returns a fresh idle one on the same
// notifier. Settings held by the config layer are untouched; like NewSession,
// the result is announced by its installer.
func (s *GameSession) Reset() *GameSession {
	next := NewIdleSession(s.Category, s.MaxQuestions, s.events)
	s.Detach()
	return next
}

// PublicState builds the redacted snapshot, revealing each secret only once
// its player is terminal.
func (s *GameSession) PublicState() PublicState {
	state := PublicState{
		Started:      s.Started,
		MaxQuestions: s.MaxQuestions,
		Category:     s.Category,
		Player1:      publicPlayer(s.player1),
		Player2:      publicPlayer(s.player2),
		IsGameOver:   s.IsGameOver(),
	}
	if state.IsGameOver {
		state.Result = s.Result()
	}
	return state
}

func publicPlayer(p *PlayerState) PublicPlayer {
	pub := PublicPlayer{
		Phase:         p.Phase,
		QuestionsUsed: p.QuestionsUsed,
		Records:       append([]QuestionRecord(nil), p.Records...),
	}
	if p.Phase.Terminal() {
		pub.SecretName = p.secretName
	}
	return pub
}

func (s *GameSession) publish(e Event) {
	if s.events == nil {
		return
	}
	s.events.Publish(e)
}

func (s *GameSession) emitStateChange() {
	state := s.PublicState()
	s.publish(Event{Kind: EventStateChange, State: &state})
}

// Terminal players reject further records, so IsGameOver flips true at most
// once per session and gameOver fires exactly once.
func (s *GameSession) emitGameOverIfDone() {
	if !s.IsGameOver() {
		return
	}
	s.publish(Event{Kind: EventGameOver, Result: s.Result()})
}
