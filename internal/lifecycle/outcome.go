package lifecycle

// Outcome records how a best-effort sub-step (identity account lookup,
// claims update, account deletion) ended, so callers can tell an acceptable
// skip from silent data loss.
type Outcome int

const (
	OutcomeApplied Outcome = iota
	OutcomeSkippedNotFound
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeApplied:
		return "applied"
	case OutcomeSkippedNotFound:
		return "skipped_not_found"
	case OutcomeFailed:
		return "failed"
	}
	return "unknown"
}
