package rulesrepo

import "errors"

var (
	// ErrAuth is returned when credentials cannot be built.
	ErrAuth = errors.New("rules repository auth failed")

	// ErrNotSynced is returned before the first successful Sync.
	ErrNotSynced = errors.New("rules repository not synced")

	// ErrRulesFileMissing is returned when the synced tree has no rules file
	// at the configured path.
	ErrRulesFileMissing = errors.New("rules file missing from repository")
)
