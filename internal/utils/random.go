package utils

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
)

var adjectives = []string{
	"Early", "Loud", "Lucky", "Sleepy", "Sharp",
	"Sneaky", "Rowdy", "Quiet", "Cosmic", "Sunny",
	"Midnight", "Electric", "Spicy", "Frosty", "Golden",
}

var nouns = []string{
	"Owls", "Otters", "Comets", "Pirates", "Wizards",
	"Foxes", "Rockets", "Ravens", "Llamas", "Badgers",
	"Krakens", "Sparrows", "Yetis", "Pandas", "Bandits",
}

// RandomIndex returns a uniformly random index in [0, n).
func RandomIndex(n int) (int, error) {
	if n <= 0 {
		return 0, errors.New("cannot pick from an empty set")
	}
	idx, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		return 0, fmt.Errorf("failed to generate random index: %w", err)
	}
	return int(idx.Int64()), nil
}

// GenerateSquadName creates a random name in the format "Adjective Noun XXX"
// where XXX is a random 3-digit number
func GenerateSquadName() (string, error) {
	adjIdx, err := RandomIndex(len(adjectives))
	if err != nil {
		return "", fmt.Errorf("failed to generate random adjective: %w", err)
	}

	nounIdx, err := RandomIndex(len(nouns))
	if err != nil {
		return "", fmt.Errorf("failed to generate random noun: %w", err)
	}

	suffix, err := RandomIndex(1000)
	if err != nil {
		return "", fmt.Errorf("failed to generate random suffix: %w", err)
	}

	return fmt.Sprintf("%s %s %03d", adjectives[adjIdx], nouns[nounIdx], suffix), nil
}
