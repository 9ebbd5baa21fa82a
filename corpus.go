package main

import (
	"crypto/rand"
	"encoding/json"
	"fmt"
	"math/big"
	"os"
	"strings"

	"github.com/samber/lo"
)

// knownCategories fixes the category order so "any" unions deterministically.
var knownCategories = []string{
	CategoryAncientEmperor,
	CategoryAncientScholar,
	CategoryClassicCharacter,
	CategoryEntertainmentStar,
	CategorySportsStar,
	CategoryEntrepreneur,
	CategoryJourneyWest,
}

// NameCorpus is the local pool of secret names, keyed by category. It is an
// optimization over AI generation: fast, free and offline.
type NameCorpus map[string][]string

// loadNameCorpus reads and validates the corpus file. A missing file is an
// error; the caller decides whether to run without a corpus.
func loadNameCorpus(path string) (NameCorpus, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var corpus NameCorpus
	if err := json.Unmarshal(data, &corpus); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	for category, names := range corpus {
		if !lo.Contains(knownCategories, category) {
			return nil, fmt.Errorf("unknown category in %s: %q", path, category)
		}
		corpus[category] = lo.FilterMap(names, func(n string, _ int) (string, bool) {
			trimmed := strings.TrimSpace(n)
			return trimmed, trimmed != ""
		})
	}
	return corpus, nil
}

// Size returns the total number of entries across all categories.
func (nc NameCorpus) Size() int {
	return lo.SumBy(lo.Values(nc), func(names []string) int { return len(names) })
}

// candidates returns the pool for a category minus the excluded name.
// CategoryAny unions every category in knownCategories order.
func (nc NameCorpus) candidates(category, exclude string) []string {
	var pool []string
	if category == CategoryAny {
		for _, c := range knownCategories {
			pool = append(pool, nc[c]...)
		}
	} else {
		pool = nc[category]
	}
	if exclude == "" {
		return pool
	}
	return lo.Filter(pool, func(n string, _ int) bool { return n != exclude })
}

// sample picks a uniform random candidate, reporting false when the pool is
// empty so the caller can fall through to AI generation.
func (nc NameCorpus) sample(category, exclude string) (string, bool) {
	pool := nc.candidates(category, exclude)
	if len(pool) == 0 {
		return "", false
	}
	n, err := rand.Int(rand.Reader, big.NewInt(int64(len(pool))))
	if err != nil {
		logWarn("Error generating random number: %v, using fallback", err)
		return pool[0], true
	}
	return pool[n.Int64()], true
}
