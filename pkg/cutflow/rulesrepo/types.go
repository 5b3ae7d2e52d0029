package rulesrepo

import (
	"slices"
	"time"
)

// CommitInfo contains metadata about a commit of the rules repository.
type CommitInfo struct {
	SHA        string    `json:"sha" yaml:"sha"`
	Author     string    `json:"author" yaml:"author"`
	Email      string    `json:"email" yaml:"email"`
	Timestamp  time.Time `json:"timestamp" yaml:"timestamp"`
	Message    string    `json:"message" yaml:"message"`
	Branch     string    `json:"branch" yaml:"branch"`
	Repository string    `json:"repository" yaml:"repository"`
}

// ShortSHA returns the first 12 characters of the commit SHA.
func (c *CommitInfo) ShortSHA() string {
	if len(c.SHA) > 12 {
		return c.SHA[:12]
	}
	return c.SHA
}

// SyncResult describes one clone or pull.
type SyncResult struct {
	// FromSHA is the commit checked out before the sync, empty after a clone.
	FromSHA string

	// ToSHA is the commit checked out after the sync.
	ToSHA string

	// ChangedFiles lists paths changed between FromSHA and ToSHA, relative
	// to the repository root.
	ChangedFiles []string

	// Cloned is set when the sync created the local copy.
	Cloned bool
}

// Changed reports whether the checked out commit moved.
func (r *SyncResult) Changed() bool {
	return r.FromSHA != r.ToSHA
}

// Touches reports whether path is among the changed files. A clone touches
// every path.
func (r *SyncResult) Touches(path string) bool {
	if r.Cloned {
		return true
	}
	return slices.Contains(r.ChangedFiles, path)
}

// Stats tracks git operation counts and timings.
type Stats struct {
	CloneDuration time.Duration
	PullDuration  time.Duration
	LastSHA       string
	LastSync      time.Time
	FailedSyncs   int64
	Syncs         int64
}
