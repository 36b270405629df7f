package installer

// StageID identifies one phase of the install pipeline. The declaration
// order is the order stages run in.
type StageID int

const (
	StagePreparing StageID = iota
	StageDownloadingPrimary
	StageExtractingPrimary
	StageDownloadingOptional
	StageExtractingOptional
	StageCleaningUp
)

// String returns the stage name used in logs.
func (s StageID) String() string {
	switch s {
	case StagePreparing:
		return "Preparing"
	case StageDownloadingPrimary:
		return "DownloadingPrimary"
	case StageExtractingPrimary:
		return "ExtractingPrimary"
	case StageDownloadingOptional:
		return "DownloadingOptional"
	case StageExtractingOptional:
		return "ExtractingOptional"
	case StageCleaningUp:
		return "CleaningUp"
	default:
		return "Unknown"
	}
}

// Optional reports whether the stage only runs when optional assets are
// enabled.
func (s StageID) Optional() bool {
	return s == StageDownloadingOptional || s == StageExtractingOptional
}

// StagePlan returns the stages a run executes, in order.
func StagePlan(includeOptional bool) []StageID {
	plan := []StageID{StagePreparing, StageDownloadingPrimary, StageExtractingPrimary}
	if includeOptional {
		plan = append(plan, StageDownloadingOptional, StageExtractingOptional)
	}
	return append(plan, StageCleaningUp)
}

// Description returns the user-facing label for the stage.
func (s StageID) Description() string {
	switch s {
	case StagePreparing:
		return "Preparing installation"
	case StageDownloadingPrimary:
		return "Downloading game files"
	case StageExtractingPrimary:
		return "Unpacking game files"
	case StageDownloadingOptional:
		return "Downloading optional assets"
	case StageExtractingOptional:
		return "Unpacking optional assets"
	case StageCleaningUp:
		return "Cleaning up"
	default:
		return ""
	}
}
