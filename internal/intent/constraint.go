package intent

import (
	"fmt"
	"strings"
)

var (
	constraintPrefixes = []string{"no ", "only "}
	constraintPhrases  = []string{"must have", "budget is", "prefer ", "without ", "not refurbished", "with warranty"}
)

// IsConstraintUpdate reports whether text reads like a buyer adding a
// requirement to a negotiation that is already running.
func IsConstraintUpdate(text string, hasActiveSession bool) bool {
	if !hasActiveSession {
		return false
	}
	lower := strings.ToLower(strings.TrimSpace(text))
	for _, p := range constraintPrefixes {
		if strings.HasPrefix(lower, p) {
			return true
		}
	}
	for _, p := range constraintPhrases {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}

// ConstraintAck is the confirmation posted after a constraint is recorded.
func ConstraintAck(text string) string {
	return fmt.Sprintf("✅ Noted! Constraint added: %q. Adjusting negotiation parameters...", text)
}
