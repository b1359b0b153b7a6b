// Package gitexec implements a repository backend that runs the git binary.
//
// Every query is one short-lived git process:
//
//	Resolve         git rev-parse --verify --quiet <ref>^{commit}
//	CommonAncestor  git merge-base <a> <b>
//	Distance        git rev-list --count <from>..<to>
//
// The backend holds no state besides the repository path, so it is safe for
// concurrent use.
package gitexec

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/gitdag/pkg/ancestry"
	"github.com/matzehuels/gitdag/pkg/cache"
	"github.com/matzehuels/gitdag/pkg/vcs"
)

// Backend runs git in a repository directory.
type Backend struct {
	git    string
	dir    string
	remote string
	logger *log.Logger
}

// Option configures a Backend.
type Option func(*Backend)

// WithGit sets the git executable. The default is "git" looked up in PATH.
func WithGit(path string) Option {
	return func(b *Backend) {
		if path != "" {
			b.git = path
		}
	}
}

// WithRemote sets the remote used by Fetch and ResolveBranch.
func WithRemote(name string) Option {
	return func(b *Backend) { b.remote = name }
}

// WithLogger sets the logger for command tracing at debug level.
func WithLogger(l *log.Logger) Option {
	return func(b *Backend) {
		if l != nil {
			b.logger = l
		}
	}
}

// Open checks that dir is inside a git repository and returns a backend for
// it.
func Open(ctx context.Context, dir string, opts ...Option) (*Backend, error) {
	b := &Backend{git: "git", dir: dir, logger: log.Default()}
	for _, opt := range opts {
		opt(b)
	}
	if _, err := b.run(ctx, "rev-parse", "--git-dir"); err != nil {
		return nil, fmt.Errorf("open %s: %w", dir, err)
	}
	return b, nil
}

// Dir returns the repository directory.
func (b *Backend) Dir() string { return b.dir }

// Resolve implements [ancestry.Backend]. Anything git cannot peel to a commit
// is reported as an [*ancestry.ReferenceError].
func (b *Backend) Resolve(ctx context.Context, ref string) (ancestry.CommitID, error) {
	if ref == "" || strings.HasPrefix(ref, "-") {
		return "", &ancestry.ReferenceError{Ref: ref}
	}
	out, err := b.run(ctx, "rev-parse", "--verify", "--quiet", ref+"^{commit}")
	if err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) && !IsTransient(err) {
			return "", &ancestry.ReferenceError{Ref: ref, Cause: err}
		}
		return "", err
	}
	return ancestry.CommitID(out), nil
}

// ResolveBranch resolves a branch, qualifying it with the configured remote
// when the branch does not name one itself.
func (b *Backend) ResolveBranch(ctx context.Context, br vcs.Branch) (ancestry.CommitID, error) {
	if br.Remote == "" {
		br.Remote = b.remote
	}
	return b.Resolve(ctx, br.Ref())
}

// CommonAncestor implements [ancestry.Backend]. When several merge bases
// exist git picks one of them.
func (b *Backend) CommonAncestor(ctx context.Context, a, c ancestry.CommitID) (ancestry.CommitID, error) {
	out, err := b.run(ctx, "merge-base", string(a), string(c))
	if err != nil {
		var exitErr *ExitError
		// merge-base exits 1 without output for unrelated histories
		if errors.As(err, &exitErr) && exitErr.Code == 1 && exitErr.Stderr == "" {
			return "", fmt.Errorf("%s and %s have no common ancestor", a.Short(), c.Short())
		}
		return "", err
	}
	return ancestry.CommitID(out), nil
}

// Distance implements [vcs.Backend].
func (b *Backend) Distance(ctx context.Context, from, to ancestry.CommitID) (int, error) {
	out, err := b.run(ctx, "rev-list", "--count", string(from)+".."+string(to))
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(out)
	if err != nil {
		return 0, fmt.Errorf("rev-list --count: unexpected output %q", out)
	}
	return n, nil
}

// Fetch updates the remote-tracking refs of the configured remote.
func (b *Backend) Fetch(ctx context.Context) error {
	if b.remote == "" {
		return errors.New("no remote configured")
	}
	_, err := b.run(ctx, "fetch", "--quiet", "--prune", b.remote)
	return err
}

// Close does nothing; git processes do not outlive their calls.
func (b *Backend) Close() error { return nil }

// run executes git with args in the repository and returns trimmed stdout.
func (b *Backend) run(ctx context.Context, args ...string) (string, error) {
	start := time.Now()
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, b.git, args...)
	cmd.Dir = b.dir
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	b.logger.Debug("git", "args", strings.Join(args, " "), "took", time.Since(start).Round(time.Microsecond))
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", fmt.Errorf("git %s: %w", args[0], ctxErr)
		}
		var ee *exec.ExitError
		if errors.As(err, &ee) {
			exitErr := &ExitError{
				Args:   args,
				Code:   ee.ExitCode(),
				Stderr: strings.TrimSpace(stderr.String()),
			}
			if exitErr.transient() {
				return "", cache.Retryable(exitErr)
			}
			return "", exitErr
		}
		return "", fmt.Errorf("git %s: %w", args[0], err)
	}
	return strings.TrimSpace(stdout.String()), nil
}

// ExitError reports a git process that exited unsuccessfully.
type ExitError struct {
	Args   []string
	Code   int
	Stderr string
}

func (e *ExitError) Error() string {
	msg := fmt.Sprintf("git %s: exit status %d", strings.Join(e.Args, " "), e.Code)
	if e.Stderr != "" {
		msg += ": " + e.Stderr
	}
	return msg
}

// transient reports failures that may succeed when retried: a process killed
// by a signal, or a lock held by a concurrent git process.
func (e *ExitError) transient() bool {
	return e.Code < 0 || strings.Contains(e.Stderr, ".lock': File exists")
}

// IsTransient reports whether err is a git failure worth retrying.
func IsTransient(err error) bool {
	return cache.IsRetryable(err)
}

// Ensure Backend implements vcs.Backend.
var _ vcs.Backend = (*Backend)(nil)
