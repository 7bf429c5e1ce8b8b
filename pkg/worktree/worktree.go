// Package worktree defines types for git worktree lifecycle management.
//
// Only the contract lives here. Implementations (shelling out to git, or
// using a git library) are provided by the embedding host application.
package worktree

import (
	"context"
	"time"
)

// State describes the lifecycle state of a worktree.
type State string

const (
	// StateActive is a checked-out, usable worktree.
	StateActive State = "active"

	// StateLocked is a worktree protected from pruning.
	StateLocked State = "locked"

	// StatePrunable is a worktree whose directory is gone and whose
	// administrative files can be removed.
	StatePrunable State = "prunable"
)

// Worktree describes a single git worktree.
type Worktree struct {
	// Path is the absolute filesystem path of the worktree.
	Path string `json:"path"`

	// Branch is the checked-out branch name, empty for a detached HEAD.
	Branch string `json:"branch,omitempty"`

	// Head is the commit hash the worktree points at.
	Head string `json:"head"`

	// Main reports whether this is the main worktree of the repository.
	Main bool `json:"main"`

	// State is the lifecycle state.
	State State `json:"state"`

	// LockReason is set when State is StateLocked.
	LockReason string `json:"lock_reason,omitempty"`

	// CreatedAt is when the worktree was added, zero if unknown.
	CreatedAt time.Time `json:"created_at,omitempty"`
}

// AddOptions controls worktree creation.
type AddOptions struct {
	// Branch to check out. When CreateBranch is set, the branch is created
	// at Ref first.
	Branch string

	// CreateBranch creates Branch instead of checking out an existing one.
	CreateBranch bool

	// Ref is the commit-ish the new worktree (or new branch) starts from.
	// Empty means HEAD.
	Ref string

	// Detach checks out Ref directly without a branch.
	Detach bool
}

// RemoveOptions controls worktree removal.
type RemoveOptions struct {
	// Force removes the worktree even with uncommitted changes.
	Force bool
}

// Manager manages the worktrees of a single repository.
type Manager interface {
	// Add creates a worktree at path and returns its description.
	Add(ctx context.Context, path string, opts AddOptions) (*Worktree, error)

	// Remove deletes the worktree at path.
	Remove(ctx context.Context, path string, opts RemoveOptions) error

	// List returns all worktrees of the repository, main worktree first.
	List(ctx context.Context) ([]*Worktree, error)

	// Prune removes administrative files for worktrees whose directories
	// no longer exist and returns the paths that were pruned.
	Prune(ctx context.Context) ([]string, error)
}
