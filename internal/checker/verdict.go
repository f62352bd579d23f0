package checker

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"
)

// Verdict is the outcome class of a single topic check.
type Verdict string

const (
	// VerdictChanged means the AI found a significant update.
	VerdictChanged Verdict = "changed"
	// VerdictUnchanged means nothing noteworthy happened since last check.
	VerdictUnchanged Verdict = "unchanged"
	// VerdictInconclusive means the check could not reach a decision: tool
	// budget exhausted, timeout, or an unparseable final answer.
	VerdictInconclusive Verdict = "inconclusive"
)

// Valid reports whether v is one of the three defined verdicts.
func (v Verdict) Valid() bool {
	switch v {
	case VerdictChanged, VerdictUnchanged, VerdictInconclusive:
		return true
	}
	return false
}

// Result is the full outcome of one topic check. A failed attempt is still a
// Result: the verdict is inconclusive and Err carries the cause.
type Result struct {
	Topic       string
	Verdict     Verdict
	Summary     string
	Confidence  float64
	SourceURL   string
	Fingerprint string
	Err         string
	Rounds      int
	Duration    time.Duration
	CheckedAt   time.Time
}

// Fingerprint derives a stable identity for a reported update so the same
// news is not re-announced check after check. It hashes the normalized
// summary together with the source URL.
func Fingerprint(summary, sourceURL string) string {
	normalized := strings.ToLower(strings.Join(strings.Fields(summary), " "))
	h := sha256.New()
	fmt.Fprintf(h, "%s|%s", normalized, strings.TrimSpace(sourceURL))
	return hex.EncodeToString(h.Sum(nil))
}
