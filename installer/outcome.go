package installer

// OutcomeKind tags the terminal result of one pipeline run.
type OutcomeKind int

const (
	OutcomeSuccess OutcomeKind = iota
	OutcomeAborted
	OutcomeFailed
)

// String returns the outcome name.
func (k OutcomeKind) String() string {
	switch k {
	case OutcomeSuccess:
		return "Success"
	case OutcomeAborted:
		return "Aborted"
	case OutcomeFailed:
		return "Failed"
	default:
		return "Unknown"
	}
}

// Outcome is produced exactly once per pipeline run. Err is set only for
// OutcomeFailed.
type Outcome struct {
	Kind OutcomeKind
	Err  error
}

// terminalEvent maps the outcome to the last event of the run.
func (o Outcome) terminalEvent(run uint64) Event {
	switch o.Kind {
	case OutcomeSuccess:
		return CompletedEvent(run)
	case OutcomeAborted:
		return AbortedEvent(run)
	default:
		return FailedEvent(run)
	}
}
