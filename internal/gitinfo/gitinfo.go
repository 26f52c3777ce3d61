// Package gitinfo resolves a release stamp (commit, tag, dirty flag) from
// the working repository. A missing repository degrades to an empty stamp;
// release tasks must keep working in exported tarballs.
package gitinfo

import (
	"log/slog"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"

	"github.com/mflab/relkit/internal/logfields"
)

// Stamp identifies the repository state a release was built from.
type Stamp struct {
	Commit string `json:"commit,omitempty"` // short hash
	Tag    string `json:"tag,omitempty"`    // tag pointing at HEAD, if any
	Dirty  bool   `json:"dirty,omitempty"`  // uncommitted changes present
}

// IsZero reports whether no repository information was found.
func (s Stamp) IsZero() bool {
	return s.Commit == "" && s.Tag == "" && !s.Dirty
}

// String renders the stamp for logs and history rows.
func (s Stamp) String() string {
	if s.IsZero() {
		return ""
	}
	out := s.Commit
	if s.Tag != "" {
		out = s.Tag + "@" + out
	}
	if s.Dirty {
		out += "+dirty"
	}
	return out
}

// Resolve inspects the repository containing dir. Errors are logged at debug
// level and produce a zero Stamp rather than failing the release.
func Resolve(dir string) Stamp {
	repo, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		slog.Debug("No git repository found", logfields.Path(dir), logfields.Error(err))
		return Stamp{}
	}

	head, err := repo.Head()
	if err != nil {
		slog.Debug("Failed to resolve HEAD", logfields.Error(err))
		return Stamp{}
	}

	stamp := Stamp{Commit: head.Hash().String()[:8]}
	stamp.Tag = tagAt(repo, head.Hash())
	stamp.Dirty = isDirty(repo)
	slog.Debug("Resolved release stamp", logfields.Repository(dir), logfields.Commit(stamp.Commit))
	return stamp
}

// tagAt returns the name of a tag pointing at the given commit, or "".
// Both lightweight and annotated tags are considered.
func tagAt(repo *git.Repository, commit plumbing.Hash) string {
	tags, err := repo.Tags()
	if err != nil {
		return ""
	}
	defer tags.Close()

	var found string
	_ = tags.ForEach(func(ref *plumbing.Reference) error {
		target := ref.Hash()
		if tag, err := repo.TagObject(ref.Hash()); err == nil {
			// Annotated tag: follow to the tagged commit.
			target = tag.Target
		}
		if target == commit {
			found = ref.Name().Short()
		}
		return nil
	})
	return found
}

func isDirty(repo *git.Repository) bool {
	wt, err := repo.Worktree()
	if err != nil {
		return false
	}
	status, err := wt.Status()
	if err != nil {
		return false
	}
	return !status.IsClean()
}
