package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"unicode"
	"unicode/utf8"
)

// categoryPrompts maps each category to the description embedded in the
// generation prompt.
var categoryPrompts = map[string]string{
	CategoryAny:               "any widely known person, real or fictional; choose broadly",
	CategoryAncientEmperor:    "an emperor of ancient China (pick from different dynasties at random)",
	CategoryAncientScholar:    "a literary figure of ancient China (a poet, lyricist or writer)",
	CategoryClassicCharacter:  "a well-known character from one of the Four Great Classic Chinese novels",
	CategoryEntertainmentStar: "a famous Chinese entertainment celebrity (an actor, a singer and so on)",
	CategorySportsStar:        "a famous Chinese sports star (an Olympic champion or professional athlete)",
	CategoryEntrepreneur:      "a well-known Chinese entrepreneur",
	CategoryJourneyWest:       "a main character of Journey to the West",
}

// errInvalidName marks a reply that survived the network but failed
// validation; it is retried without any delay.
var errInvalidName = errors.New("generated name failed validation")

// NameGenerator produces a secret name for one player, preferring the local
// corpus and falling back to AI synthesis.
type NameGenerator struct {
	Client promptInvoker
	Corpus NameCorpus

	// corpusOdds and retry are fixed in NewNameGenerator; tests tune them.
	corpusOdds int // percentage, 0-100
	retry      retryPolicy
}

// NewNameGenerator wires a generator with production retry policy.
func NewNameGenerator(client promptInvoker, corpus NameCorpus) *NameGenerator {
	return &NameGenerator{
		Client:     client,
		Corpus:     corpus,
		corpusOdds: int(CorpusOdds * 100),
		retry: retryPolicy{
			attempts:  NameAttempts,
			delay:     NameRetryDelay,
			retryable: isRetryable,
			delayable: isTransportFailure,
		},
	}
}

// Generate returns a secret name for the category, never equal to exclude.
// The corpus path is taken with CorpusOdds probability when it has
// candidates; otherwise the AI path runs with up to NameAttempts tries.
func (g *NameGenerator) Generate(ctx context.Context, category, exclude string) (string, error) {
	if g.Corpus != nil && rollPercent() < g.corpusOdds {
		if name, ok := g.Corpus.sample(category, exclude); ok {
			logInfo("Using corpus name for category %s", category)
			return name, nil
		}
	}

	prompt := buildNamePrompt(category, exclude)

	var name string
	err := g.retry.run(ctx, func() error {
		reply, err := g.Client.Invoke(ctx, prompt, NameTemperature)
		if err != nil {
			return err
		}
		cleaned := cleanGeneratedName(reply)
		if !validGeneratedName(cleaned, exclude) {
			logWarn("Discarding invalid generated name: %q", reply)
			return errInvalidName
		}
		name = cleaned
		return nil
	})
	if err != nil {
		if errors.Is(err, errInvalidName) {
			return "", ErrGenerationFailed
		}
		return "", err
	}
	return name, nil
}

// buildNamePrompt embeds the category description, the exclusion clause and
// a fresh seed token nudging the model away from the single most famous
// answer.
func buildNamePrompt(category, exclude string) string {
	desc, ok := categoryPrompts[category]
	if !ok {
		desc = categoryPrompts[CategoryAny]
	}

	var excludeClause string
	if exclude != "" {
		excludeClause = fmt.Sprintf("\nExcluded name: %s (must not be the same)", exclude)
	}

	return fmt.Sprintf(`You are the question master of a name-guessing game. Generate one person's name from the scope below.
Random seed: %s (base your random choice on this seed and ignore earlier context)

Scope: %s%s

Requirements:
1. The person must be famous enough that most people would recognize the name.
2. No obscure or niche figures.
3. Reply with the name only, no other words, punctuation or explanation.
4. IMPORTANT: be highly random! Do not always return the single most famous answer; pick at random from the top 20 best-known candidates.

Output the name now:`, seedToken(), desc, excludeClause)
}

// cleanGeneratedName strips quotes, brackets, whitespace and punctuation
// (including CJK forms) that models like to wrap names in.
func cleanGeneratedName(raw string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) || unicode.IsPunct(r) || unicode.IsSymbol(r) {
			return -1
		}
		return r
	}, raw)
}

// validGeneratedName enforces the 1-10 rune budget and the exclusion.
func validGeneratedName(name, exclude string) bool {
	n := utf8.RuneCountInString(name)
	if n < MinNameRunes || n > MaxNameRunes {
		return false
	}
	return exclude == "" || name != exclude
}

// seedToken returns a short random token for prompt diversity.
func seedToken() string {
	buf := make([]byte, 4)
	if _, err := rand.Read(buf); err != nil {
		return "0000"
	}
	return hex.EncodeToString(buf)
}

// rollPercent returns a uniform value in [0,100).
func rollPercent() int {
	n, err := rand.Int(rand.Reader, big.NewInt(100))
	if err != nil {
		logWarn("Error generating random number: %v, using fallback", err)
		return 0
	}
	return int(n.Int64())
}
