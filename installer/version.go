package installer

import (
	"strings"

	"github.com/hashicorp/go-version"
)

// CompareVersions compares two version strings.
// Returns:
//   - negative if v1 < v2
//   - zero if v1 == v2
//   - positive if v1 > v2
//
// Versions that do not parse sort before versions that do; two
// unparsable versions are compared as plain strings.
func CompareVersions(v1, v2 string) int {
	a, errA := version.NewVersion(strings.TrimSpace(v1))
	b, errB := version.NewVersion(strings.TrimSpace(v2))
	switch {
	case errA != nil && errB != nil:
		return strings.Compare(v1, v2)
	case errA != nil:
		return -1
	case errB != nil:
		return 1
	}
	return a.Compare(b)
}

// InstallAction represents the type of installation action.
type InstallAction int

const (
	ActionFreshInstall InstallAction = iota
	ActionUpgrade
	ActionDowngrade
	ActionReinstall
)

// String returns the action name.
func (a InstallAction) String() string {
	switch a {
	case ActionFreshInstall:
		return "Fresh Install"
	case ActionUpgrade:
		return "Upgrade"
	case ActionDowngrade:
		return "Downgrade"
	case ActionReinstall:
		return "Reinstall"
	default:
		return "Install"
	}
}

// DetermineAction determines the installation action based on versions.
func DetermineAction(existingVersion, newVersion string) InstallAction {
	if existingVersion == "" {
		return ActionFreshInstall
	}

	cmp := CompareVersions(newVersion, existingVersion)
	switch {
	case cmp > 0:
		return ActionUpgrade
	case cmp < 0:
		return ActionDowngrade
	default:
		return ActionReinstall
	}
}
