// Package rewrite applies command-specific argument rules before a command
// is sent to a remote host.
package rewrite

import (
	"context"
	"errors"
	"fmt"
	"path"
	"path/filepath"
	"strings"
)

// WrappedTool is the only command with rewriting rules.
const WrappedTool = "git"

const fileFlag = "--file="

// ErrStage indicates a file could not be copied to the remote host.
var ErrStage = errors.New("staging failed")

// Target is the remote side of a mapped directory.
type Target struct {
	Login string
	Root  string
}

// Host is Login without any user@ prefix.
func (t Target) Host() string {
	if _, host, ok := strings.Cut(t.Login, "@"); ok {
		return host
	}
	return t.Login
}

// Stager copies a local file to remotePath on the host named by login.
type Stager interface {
	Stage(ctx context.Context, localPath, login, remotePath string) error
}

// Staging records one completed copy.
type Staging struct {
	Local  string
	Remote string
}

// Result is the rewritten invocation. PrintWorkdir asks the caller to
// answer with the local working directory instead of running anything.
type Result struct {
	Args         []string
	PrintWorkdir bool
	Staged       []Staging
}

// Options configure Rewrite.
type Options struct {
	Stager   Stager
	StageDir string
}

type shape int

const (
	shapeOther shape = iota
	shapeToplevelQuery
	shapeCommit
)

// classify matches the argument list against the closed set of shapes that
// have rules. New rules are new shapes.
func classify(command string, args []string) shape {
	if command != WrappedTool || len(args) == 0 {
		return shapeOther
	}
	switch {
	case len(args) == 2 && args[0] == "rev-parse" && (args[1] == "--absolute-git-dir" || args[1] == "--show-toplevel"):
		return shapeToplevelQuery
	case args[0] == "commit":
		return shapeCommit
	default:
		return shapeOther
	}
}

// Rewrite applies the rule matching command and args. Without a target the
// arguments pass through untouched. args is never modified.
func Rewrite(ctx context.Context, command string, args []string, target *Target, opts Options) (Result, error) {
	out := Result{Args: append([]string(nil), args...)}
	if target == nil {
		return out, nil
	}

	switch classify(command, args) {
	case shapeToplevelQuery:
		// The remote git dir means nothing to a local caller; the mount
		// point is the answer it can use.
		out.PrintWorkdir = true
		return out, nil
	case shapeCommit:
		return stageCommitFiles(ctx, out, *target, opts)
	default:
		return out, nil
	}
}

func stageCommitFiles(ctx context.Context, out Result, target Target, opts Options) (Result, error) {
	stageDir := opts.StageDir
	if stageDir == "" {
		stageDir = "/tmp"
	}
	for i := 1; i < len(out.Args); i++ {
		local, ok := strings.CutPrefix(out.Args[i], fileFlag)
		if !ok {
			continue
		}
		if opts.Stager == nil {
			return Result{}, fmt.Errorf("%w: no stager for %s", ErrStage, local)
		}
		remote := path.Join(stageDir, filepath.Base(local))
		if err := opts.Stager.Stage(ctx, local, target.Login, remote); err != nil {
			return Result{}, fmt.Errorf("%w: %s -> %s:%s: %v", ErrStage, local, target.Login, remote, err)
		}
		out.Args[i] = fileFlag + remote
		out.Staged = append(out.Staged, Staging{Local: local, Remote: remote})
	}
	return out, nil
}
