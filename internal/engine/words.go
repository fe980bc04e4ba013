// Package engine - words.go
package engine

import (
	"fmt"
	"math/rand"
	"strings"

	"github.com/and1mon/clueless/internal/domain"
)

// DefaultWords is the built-in pool the board is dealt from when a game
// is created without a custom word list. Callers may pass their own
// words as long as at least domain.BoardSize unique entries survive
// deduplication.
var DefaultWords = []string{
	"ANCHOR", "ANGEL", "APPLE", "ARROW", "BANK", "BARK", "BEACH", "BEAR",
	"BELL", "BERLIN", "BOARD", "BOMB", "BOOT", "BOTTLE", "BRIDGE", "BRUSH",
	"BUTTON", "CABLE", "CANDLE", "CANYON", "CASTLE", "CHAIR", "CHARGE", "CHEST",
	"CIRCLE", "CLOUD", "COMET", "COMPASS", "CONCERT", "COPPER", "CRANE", "CROWN",
	"CYCLE", "DANCE", "DESERT", "DIAMOND", "DRAGON", "DREAM", "DRESS", "DRILL",
	"EAGLE", "ENGINE", "FALL", "FENCE", "FIELD", "FIRE", "FLUTE", "FOREST",
	"FORK", "FRAME", "GHOST", "GIANT", "GLASS", "GLOVE", "GRACE", "GREEN",
	"HAMMER", "HARBOR", "HAWK", "HONEY", "HORN", "HOTEL", "ICE", "IRON",
	"ISLAND", "JET", "KEY", "KING", "KNIGHT", "LASER", "LEMON", "LIGHT",
	"LION", "LOCK", "MAMMOTH", "MAPLE", "MARBLE", "MASK", "MATCH", "MIRROR",
	"MOON", "MOUNTAIN", "MOUSE", "NEEDLE", "NIGHT", "NOTE", "OCEAN", "OPERA",
	"ORANGE", "ORGAN", "PALACE", "PAPER", "PEARL", "PIANO", "PILOT", "PIPE",
	"PIRATE", "PLANET", "POCKET", "POISON", "QUEEN", "RAIL", "RIVER", "ROBOT",
	"ROCKET", "ROSE", "ROUND", "SADDLE", "SALT", "SATELLITE", "SCALE", "SCHOOL",
	"SEAL", "SHADOW", "SHARK", "SHIELD", "SILVER", "SNOW", "SPIDER", "SPRING",
	"STAR", "STATION", "STORM", "STRING", "SUGAR", "TABLE", "TEMPLE", "THIEF",
	"TIGER", "TORCH", "TOWER", "TRAIN", "TUNNEL", "VIOLIN", "WATCH", "WAVE",
	"WHALE", "WINTER", "WOLF", "YARD",
}

// dealBoard picks domain.BoardSize unique words and deals owners in the
// fixed 8/8/8/1 composition, both shuffled by the game's RNG.
func dealBoard(words []string, rng *rand.Rand) ([]domain.Card, error) {
	pool := dedupeWords(words)
	if len(pool) < domain.BoardSize {
		return nil, fmt.Errorf("word pool too small: need %d unique words, have %d", domain.BoardSize, len(pool))
	}

	rng.Shuffle(len(pool), func(i, j int) {
		pool[i], pool[j] = pool[j], pool[i]
	})
	chosen := pool[:domain.BoardSize]

	owners := make([]domain.CardOwner, 0, domain.BoardSize)
	for i := 0; i < domain.CardsPerTeam; i++ {
		owners = append(owners, domain.OwnerRed)
	}
	for i := 0; i < domain.CardsPerTeam; i++ {
		owners = append(owners, domain.OwnerBlue)
	}
	for i := 0; i < domain.NeutralCards; i++ {
		owners = append(owners, domain.OwnerNeutral)
	}
	owners = append(owners, domain.OwnerAssassin)
	rng.Shuffle(len(owners), func(i, j int) {
		owners[i], owners[j] = owners[j], owners[i]
	})

	cards := make([]domain.Card, domain.BoardSize)
	for i, word := range chosen {
		cards[i] = domain.Card{Word: word, Owner: owners[i]}
	}
	return cards, nil
}

// dedupeWords trims, uppercases and deduplicates a word pool.
func dedupeWords(words []string) []string {
	seen := make(map[string]bool, len(words))
	out := make([]string, 0, len(words))
	for _, w := range words {
		w = strings.ToUpper(strings.TrimSpace(w))
		if w == "" || seen[w] {
			continue
		}
		seen[w] = true
		out = append(out, w)
	}
	return out
}
