package gitinfo

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/require"
)

func initRepo(t *testing.T) (string, *git.Repository) {
	t.Helper()
	dir := t.TempDir()
	repo, err := git.PlainInit(dir, false)
	require.NoError(t, err)
	return dir, repo
}

func commitFile(t *testing.T, dir string, repo *git.Repository, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	wt, err := repo.Worktree()
	require.NoError(t, err)
	_, err = wt.Add(name)
	require.NoError(t, err)
	_, err = wt.Commit("add "+name, &git.CommitOptions{
		Author: &object.Signature{Name: "test", Email: "test@example.com", When: time.Now()},
	})
	require.NoError(t, err)
}

func TestResolve_NoRepository(t *testing.T) {
	stamp := Resolve(t.TempDir())
	require.True(t, stamp.IsZero())
	require.Equal(t, "", stamp.String())
}

func TestResolve_CleanCommit(t *testing.T) {
	dir, repo := initRepo(t)
	commitFile(t, dir, repo, "README.md", "hello")

	stamp := Resolve(dir)
	require.Len(t, stamp.Commit, 8)
	require.False(t, stamp.Dirty)
	require.Equal(t, stamp.Commit, stamp.String())
}

func TestResolve_DirtyWorktree(t *testing.T) {
	dir, repo := initRepo(t)
	commitFile(t, dir, repo, "README.md", "hello")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "untracked.txt"), []byte("x"), 0o644))

	stamp := Resolve(dir)
	require.True(t, stamp.Dirty)
	require.Contains(t, stamp.String(), "+dirty")
}

func TestResolve_TagAtHead(t *testing.T) {
	dir, repo := initRepo(t)
	commitFile(t, dir, repo, "README.md", "hello")

	head, err := repo.Head()
	require.NoError(t, err)
	_, err = repo.CreateTag("v1.0.0", head.Hash(), nil)
	require.NoError(t, err)

	stamp := Resolve(dir)
	require.Equal(t, "v1.0.0", stamp.Tag)
	require.Contains(t, stamp.String(), "v1.0.0@")
}

func TestResolve_FromSubdirectory(t *testing.T) {
	dir, repo := initRepo(t)
	commitFile(t, dir, repo, "README.md", "hello")

	sub := filepath.Join(dir, "docs", "source")
	require.NoError(t, os.MkdirAll(sub, 0o750))

	stamp := Resolve(sub)
	require.False(t, stamp.IsZero())
}
