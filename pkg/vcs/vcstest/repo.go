// Package vcstest builds throwaway git repositories for backend tests.
package vcstest

import (
	"os"
	"os/exec"
	"strings"
	"testing"
)

// Repo is a git repository in a temporary directory.
type Repo struct {
	t   testing.TB
	Dir string
}

// NewRepo initializes an empty repository on branch main. The test is
// skipped when the git binary is not available.
func NewRepo(t testing.TB) *Repo {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not available")
	}
	r := &Repo{t: t, Dir: t.TempDir()}
	r.Git("init", "-q", "-b", "main")
	r.Git("config", "user.email", "test@example.com")
	r.Git("config", "user.name", "Test User")
	r.Git("config", "commit.gpgsign", "false")
	r.Git("config", "tag.gpgsign", "false")
	return r
}

// Git runs git in the repository and returns its trimmed standard output.
// The test fails on a non-zero exit.
func (r *Repo) Git(args ...string) string {
	r.t.Helper()
	cmd := exec.Command("git", args...)
	cmd.Dir = r.Dir
	cmd.Env = append(os.Environ(), "GIT_CONFIG_NOSYSTEM=1", "GIT_TERMINAL_PROMPT=0")
	out, err := cmd.Output()
	if err != nil {
		var stderr string
		if ee, ok := err.(*exec.ExitError); ok {
			stderr = string(ee.Stderr)
		}
		r.t.Fatalf("git %v: %v\n%s", args, err, stderr)
	}
	return strings.TrimSpace(string(out))
}

// Commit records an empty commit on the current branch and returns its id.
func (r *Repo) Commit(message string) string {
	r.t.Helper()
	r.Git("commit", "-q", "--allow-empty", "-m", message)
	return r.Head()
}

// Head returns the id of the checked out commit.
func (r *Repo) Head() string {
	r.t.Helper()
	return r.Git("rev-parse", "HEAD")
}

// Branch creates name at the current commit and checks it out.
func (r *Repo) Branch(name string) {
	r.t.Helper()
	r.Git("checkout", "-q", "-b", name)
}

// Checkout switches to an existing branch.
func (r *Repo) Checkout(name string) {
	r.t.Helper()
	r.Git("checkout", "-q", name)
}

// Merge merges branch into the current branch with a merge commit and
// returns its id.
func (r *Repo) Merge(branch, message string) string {
	r.t.Helper()
	r.Git("merge", "-q", "--no-ff", "-m", message, branch)
	return r.Head()
}

// Tag creates an annotated tag at the current commit.
func (r *Repo) Tag(name string) {
	r.t.Helper()
	r.Git("tag", "-a", "-m", name, name)
}

// Fork is a repository with two feature branches forked from main and one of
// them merged back:
//
//	base --- main1 --------- merge   (main)
//	    \                   /
//	     a1 --- a2 --------'         (feature-a)
//	      \
//	       b1                        (feature-b)
type Fork struct {
	*Repo
	Base, Main1, A1, A2, B1, Merge string
}

// NewFork builds the [Fork] repository. Tag v1.0 (annotated) points at base.
func NewFork(t testing.TB) *Fork {
	t.Helper()
	r := NewRepo(t)
	f := &Fork{Repo: r}

	f.Base = r.Commit("base")
	r.Tag("v1.0")

	r.Branch("feature-a")
	f.A1 = r.Commit("a1")

	r.Branch("feature-b")
	f.B1 = r.Commit("b1")

	r.Checkout("feature-a")
	f.A2 = r.Commit("a2")

	r.Checkout("main")
	f.Main1 = r.Commit("main1")
	f.Merge = r.Merge("feature-a", "merge feature-a")
	return f
}
