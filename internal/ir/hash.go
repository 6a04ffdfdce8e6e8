package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content hashes. The version suffix leaves room for
// changing the algorithm without colliding with old digests.
const (
	DomainScenario = "novel/scenario/v1"
	DomainState    = "novel/state/v1"
)

// hashWithDomain computes SHA256(domain + 0x00 + data).
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// ScenarioHash fingerprints an ordered step list.
// Save files record it so a load against an edited scenario can be noticed.
func ScenarioHash(steps []Step) (string, error) {
	plain, err := ToPlain(steps)
	if err != nil {
		return "", fmt.Errorf("ScenarioHash: %w", err)
	}
	canonical, err := MarshalCanonical(plain)
	if err != nil {
		return "", fmt.Errorf("ScenarioHash: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainScenario, canonical), nil
}

// StateHash fingerprints an execution state. Decision order is significant.
func StateHash(state ExecutionState) (string, error) {
	plain, err := ToPlain(state)
	if err != nil {
		return "", fmt.Errorf("StateHash: %w", err)
	}
	canonical, err := MarshalCanonical(plain)
	if err != nil {
		return "", fmt.Errorf("StateHash: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainState, canonical), nil
}

// MustScenarioHash is like ScenarioHash but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustScenarioHash(steps []Step) string {
	h, err := ScenarioHash(steps)
	if err != nil {
		panic(err)
	}
	return h
}
