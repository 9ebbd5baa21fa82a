package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode"
)

// errUnparseableVerdict marks a reply that reached us but matched neither
// verdict token (or both); it is retried immediately, without delay.
var errUnparseableVerdict = errors.New("reply matched no verdict token")

// Judge turns free-text model replies into strict verdicts for the three
// judgment tasks: question evaluation, guess matching and hint generation.
type Judge struct {
	Client promptInvoker
	retry  retryPolicy
}

// NewJudge wires a judge with production retry policy: two parse attempts,
// with a short delay only before transport-failure retries.
func NewJudge(client promptInvoker) *Judge {
	return &Judge{
		Client: client,
		retry: retryPolicy{
			attempts:  VerdictAttempts,
			delay:     VerdictDelay,
			retryable: isRetryable,
			delayable: isTransportFailure,
		},
	}
}

// JudgeQuestion decides whether questionText states a fact about the secret.
func (j *Judge) JudgeQuestion(ctx context.Context, secret, questionText string) (bool, error) {
	prompt := fmt.Sprintf(`You are the referee of a name-guessing game. The player is trying to guess a person; judge the player's question against the facts.

Hidden answer: %s
Player's question: %s

Rules:
1. Judge by commonly accepted facts about "%s".
2. If the question is true of that person, answer "%s".
3. If the question is false of that person, answer "%s".
4. Answer with exactly one of those two words and nothing else.

Your verdict:`, secret, questionText, secret, VerdictCorrect, VerdictIncorrect)

	return j.judgeAndParse(ctx, prompt)
}

// JudgeGuess decides whether guessText names the secret person. Matching is
// deliberately fuzzy: containment, aliases, titles and cross-language
// renderings of the same identity all count.
func (j *Judge) JudgeGuess(ctx context.Context, secret, guessText string) (bool, error) {
	prompt := fmt.Sprintf(`You are the referee of a name-guessing game. Decide whether the player's guess names the right person.

Correct answer: %s
Player's guess: %s

Rules:
1. Core principle: if the guess points to the same person, answer "%s".
2. Fuzzy matching counts as correct:
   - containment: answer "Li Shimin" vs guess "Emperor Taizong of Tang"
   - alias or title: answer "Sun Wukong" vs guess "Monkey King"
   - another language's rendering: answer "Iron Man" vs guess a translation of it
3. If it is clearly a different person, answer "%s".
4. Answer with exactly one of those two words and nothing else.

Your verdict:`, secret, guessText, VerdictCorrect, VerdictIncorrect)

	return j.judgeAndParse(ctx, prompt)
}

// Hint asks for one short, deliberately vague clue that must not contain any
// part of the name. The reply skips verdict parsing and is returned cleaned.
func (j *Judge) Hint(ctx context.Context, secret string) (string, error) {
	prompt := fmt.Sprintf(`You are the hint master of a name-guessing game. The player is stuck on "%s"; give one final hint.

Requirements:
1. One short sentence describing a striking trait of the person (looks, deeds, identity).
2. It must stay ambiguous and mysterious, and it must NOT contain any part of the name.
3. At most 15 characters.
4. Be playful about it.

For example if the answer were "Spider-Man" a hint could be: "bitten by a mutated little bug".

Generate the hint for "%s":`, secret, secret)

	reply, err := j.Client.Invoke(ctx, prompt, DefaultTemperature)
	if err != nil {
		return "", err
	}
	return strings.TrimFunc(reply, func(r rune) bool {
		return unicode.IsSpace(r) || r == '"' || r == '\'' || r == '“' || r == '”'
	}), nil
}

// judgeAndParse runs the shared call/parse/retry routine. A reply counts
// only if exactly one verdict token appears in it.
func (j *Judge) judgeAndParse(ctx context.Context, prompt string) (bool, error) {
	var verdict bool
	err := j.retry.run(ctx, func() error {
		reply, err := j.Client.Invoke(ctx, prompt, DefaultTemperature)
		if err != nil {
			return err
		}
		v, ok := parseVerdict(reply)
		if !ok {
			logWarn("Unparseable verdict reply: %q", reply)
			return errUnparseableVerdict
		}
		verdict = v
		return nil
	})
	if err != nil {
		if errors.Is(err, errUnparseableVerdict) {
			return false, ErrJudgmentUnparseable
		}
		return false, err
	}
	return verdict, nil
}

// parseVerdict reduces a reply to a boolean. "INCORRECT" contains "CORRECT",
// so incorrect matches are masked out before looking for a correct one; a
// reply containing both tokens, or neither, parses as nothing.
func parseVerdict(reply string) (bool, bool) {
	cleaned := strings.ToUpper(strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, reply))

	hasIncorrect := strings.Contains(cleaned, VerdictIncorrect)
	hasCorrect := strings.Contains(strings.ReplaceAll(cleaned, VerdictIncorrect, ""), VerdictCorrect)

	switch {
	case hasCorrect == hasIncorrect:
		return false, false
	case hasCorrect:
		return true, true
	default:
		return false, true
	}
}
