package commsutil

import (
	"fmt"
	"strings"
)

// Default COMMS subjects.
const (
	// SubjectIntentChanged is the global subject for settlement intent
	// state changes.
	SubjectIntentChanged = "settlement.intent.changed"
)

// BuildIntentSubject builds a granular subject for one intent state, e.g.
// settlement.intent.changed.reconciled.
func BuildIntentSubject(state string) string {
	safe := strings.ReplaceAll(state, ".", "_")
	return fmt.Sprintf("%s.%s", SubjectIntentChanged, safe)
}
