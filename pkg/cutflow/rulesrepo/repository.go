package rulesrepo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/storer"
	"github.com/go-git/go-git/v5/plumbing/transport"

	"umd-lhcb/tupling/pkg/config"
)

// Repository manages a local copy of a rules repository. The local copy is
// a cache: Sync hard-resets it to the remote branch head or the pinned
// revision, discarding local edits.
type Repository struct {
	config    *config.RulesRepoConfig
	localPath string
	auth      AuthProvider
	logger    *slog.Logger

	mu    sync.RWMutex
	repo  *gogit.Repository
	stats Stats
}

// NewRepository creates a repository manager. Nothing is fetched until Sync.
func NewRepository(cfg *config.RulesRepoConfig, logger *slog.Logger) (*Repository, error) {
	if cfg == nil {
		return nil, fmt.Errorf("rules repository config cannot be nil")
	}
	if cfg.URL == "" {
		return nil, fmt.Errorf("rules repository URL cannot be empty")
	}
	if cfg.Path == "" {
		return nil, fmt.Errorf("rules file path cannot be empty")
	}
	if cfg.Branch == "" && cfg.Revision == "" {
		return nil, fmt.Errorf("rules repository needs a branch or a revision")
	}

	auth, err := NewAuthProvider(&cfg.Auth)
	if err != nil {
		return nil, err
	}

	localPath := cfg.LocalPath
	if localPath == "" {
		localPath = config.DefaultRulesRepoLocalPath
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Repository{
		config:    cfg,
		localPath: localPath,
		auth:      auth,
		logger:    logger.With("component", "cutflow.rulesrepo", "url", cfg.URL),
	}, nil
}

// Sync clones the repository if there is no local copy yet, otherwise
// fetches and moves the working tree to the target commit. It fails if the
// rules file is absent from the resulting tree.
func (r *Repository) Sync(ctx context.Context) (*SyncResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if timeout := r.config.Timeout; timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	result, err := r.sync(ctx)
	r.stats.LastSync = time.Now()
	if err != nil {
		r.stats.FailedSyncs++
		return nil, err
	}
	r.stats.Syncs++
	r.stats.LastSHA = result.ToSHA

	if _, err := os.Stat(r.rulesFile()); err != nil {
		return nil, fmt.Errorf("%w: %s at %s", ErrRulesFileMissing, r.config.Path, shortSHA(result.ToSHA))
	}

	r.logger.Info("rules repository synced",
		"from", shortSHA(result.FromSHA),
		"to", shortSHA(result.ToSHA),
		"cloned", result.Cloned,
		"changed_files", len(result.ChangedFiles),
	)
	return result, nil
}

func (r *Repository) sync(ctx context.Context) (*SyncResult, error) {
	auth, err := r.auth.Auth()
	if err != nil {
		return nil, err
	}

	if r.repo == nil {
		if _, err := os.Stat(filepath.Join(r.localPath, ".git")); err == nil {
			repo, err := gogit.PlainOpen(r.localPath)
			if err != nil {
				return nil, fmt.Errorf("failed to open rules repository at %s: %w", r.localPath, err)
			}
			r.repo = repo
		} else {
			return r.clone(ctx, auth)
		}
	}

	head, err := r.repo.Head()
	if err != nil {
		return nil, fmt.Errorf("failed to read HEAD: %w", err)
	}
	result := &SyncResult{FromSHA: head.Hash().String()}

	start := time.Now()
	err = r.repo.FetchContext(ctx, &gogit.FetchOptions{
		RemoteName: "origin",
		Auth:       auth,
		Depth:      r.config.Depth,
	})
	r.stats.PullDuration = time.Since(start)
	if err != nil && !errors.Is(err, gogit.NoErrAlreadyUpToDate) {
		return nil, fmt.Errorf("failed to fetch %s: %w", r.config.URL, err)
	}

	target, err := r.target()
	if err != nil {
		return nil, err
	}
	if err := r.reset(target); err != nil {
		return nil, err
	}
	result.ToSHA = target.String()

	if result.Changed() {
		files, err := r.changedFiles(result.FromSHA, result.ToSHA)
		if err != nil {
			return nil, err
		}
		result.ChangedFiles = files
	}
	return result, nil
}

func (r *Repository) clone(ctx context.Context, auth transport.AuthMethod) (*SyncResult, error) {
	if err := os.MkdirAll(filepath.Dir(r.localPath), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", filepath.Dir(r.localPath), err)
	}

	opts := &gogit.CloneOptions{
		URL:          r.config.URL,
		Auth:         auth,
		Depth:        r.config.Depth,
		SingleBranch: r.config.Depth > 0,
	}
	if r.config.Branch != "" {
		opts.ReferenceName = plumbing.NewBranchReferenceName(r.config.Branch)
	}

	start := time.Now()
	repo, err := gogit.PlainCloneContext(ctx, r.localPath, false, opts)
	r.stats.CloneDuration = time.Since(start)
	if err != nil {
		return nil, fmt.Errorf("failed to clone %s: %w", r.config.URL, err)
	}
	r.repo = repo

	result := &SyncResult{Cloned: true}
	if r.config.Revision != "" {
		target, err := r.target()
		if err != nil {
			return nil, err
		}
		if err := r.reset(target); err != nil {
			return nil, err
		}
	}

	head, err := repo.Head()
	if err != nil {
		return nil, fmt.Errorf("failed to read HEAD: %w", err)
	}
	result.ToSHA = head.Hash().String()
	return result, nil
}

// target resolves the pinned revision, or the remote head of the branch.
func (r *Repository) target() (plumbing.Hash, error) {
	if r.config.Revision != "" {
		hash, err := r.repo.ResolveRevision(plumbing.Revision(r.config.Revision))
		if err != nil {
			return plumbing.ZeroHash, fmt.Errorf("failed to resolve revision %q: %w", r.config.Revision, err)
		}
		return *hash, nil
	}

	ref, err := r.repo.Reference(plumbing.NewRemoteReferenceName("origin", r.config.Branch), true)
	if err != nil {
		return plumbing.ZeroHash, fmt.Errorf("failed to resolve branch %q: %w", r.config.Branch, err)
	}
	return ref.Hash(), nil
}

func (r *Repository) reset(target plumbing.Hash) error {
	worktree, err := r.repo.Worktree()
	if err != nil {
		return fmt.Errorf("failed to get worktree: %w", err)
	}
	if err := worktree.Reset(&gogit.ResetOptions{Commit: target, Mode: gogit.HardReset}); err != nil {
		return fmt.Errorf("failed to check out %s: %w", shortSHA(target.String()), err)
	}
	return nil
}

// CurrentCommit returns metadata about the checked out commit.
func (r *Repository) CurrentCommit() (*CommitInfo, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.repo == nil {
		return nil, ErrNotSynced
	}

	ref, err := r.repo.Head()
	if err != nil {
		return nil, fmt.Errorf("failed to read HEAD: %w", err)
	}
	commit, err := r.repo.CommitObject(ref.Hash())
	if err != nil {
		return nil, fmt.Errorf("failed to read commit %s: %w", shortSHA(ref.Hash().String()), err)
	}
	return r.commitInfo(commit), nil
}

// ChangedFiles returns the paths changed between two commits.
func (r *Repository) ChangedFiles(fromSHA, toSHA string) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.repo == nil {
		return nil, ErrNotSynced
	}
	return r.changedFiles(fromSHA, toSHA)
}

func (r *Repository) changedFiles(fromSHA, toSHA string) ([]string, error) {
	fromTree, err := r.tree(fromSHA)
	if err != nil {
		return nil, err
	}
	toTree, err := r.tree(toSHA)
	if err != nil {
		return nil, err
	}

	changes, err := fromTree.Diff(toTree)
	if err != nil {
		return nil, fmt.Errorf("failed to diff %s..%s: %w", shortSHA(fromSHA), shortSHA(toSHA), err)
	}

	files := make([]string, 0, len(changes))
	for _, change := range changes {
		if change.To.Name != "" {
			files = append(files, change.To.Name)
		} else {
			files = append(files, change.From.Name)
		}
	}
	return files, nil
}

func (r *Repository) tree(sha string) (*object.Tree, error) {
	commit, err := r.repo.CommitObject(plumbing.NewHash(sha))
	if err != nil {
		return nil, fmt.Errorf("failed to read commit %s: %w", shortSHA(sha), err)
	}
	tree, err := commit.Tree()
	if err != nil {
		return nil, fmt.Errorf("failed to read tree of %s: %w", shortSHA(sha), err)
	}
	return tree, nil
}

// History returns up to limit commits reachable from HEAD, newest first.
func (r *Repository) History(limit int) ([]*CommitInfo, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.repo == nil {
		return nil, ErrNotSynced
	}

	ref, err := r.repo.Head()
	if err != nil {
		return nil, fmt.Errorf("failed to read HEAD: %w", err)
	}
	iter, err := r.repo.Log(&gogit.LogOptions{From: ref.Hash()})
	if err != nil {
		return nil, fmt.Errorf("failed to read commit log: %w", err)
	}
	defer iter.Close()

	var history []*CommitInfo
	err = iter.ForEach(func(c *object.Commit) error {
		if len(history) >= limit {
			return storer.ErrStop
		}
		history = append(history, r.commitInfo(c))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk commit log: %w", err)
	}
	return history, nil
}

func (r *Repository) commitInfo(c *object.Commit) *CommitInfo {
	return &CommitInfo{
		SHA:        c.Hash.String(),
		Author:     c.Author.Name,
		Email:      c.Author.Email,
		Timestamp:  c.Author.When,
		Message:    c.Message,
		Branch:     r.config.Branch,
		Repository: r.config.URL,
	}
}

// RulesFile returns the local path of the rules file.
func (r *Repository) RulesFile() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.rulesFile()
}

func (r *Repository) rulesFile() string {
	return filepath.Join(r.localPath, filepath.FromSlash(r.config.Path))
}

// RulesPath returns the rules file path relative to the repository root, in
// the form git reports changed files.
func (r *Repository) RulesPath() string {
	return filepath.ToSlash(filepath.Clean(r.config.Path))
}

// LocalPath returns where the repository is cloned.
func (r *Repository) LocalPath() string {
	return r.localPath
}

// Stats returns a copy of the operation counters.
func (r *Repository) Stats() Stats {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.stats
}

func shortSHA(sha string) string {
	return (&CommitInfo{SHA: sha}).ShortSHA()
}
