// Package engine turns one shim invocation into one dispatched command.
package engine

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/brandonbloom/sshfsexec/internal/config"
	"github.com/brandonbloom/sshfsexec/internal/dispatch"
	"github.com/brandonbloom/sshfsexec/internal/environ"
	"github.com/brandonbloom/sshfsexec/internal/gitutil"
	"github.com/brandonbloom/sshfsexec/internal/lookup"
	"github.com/brandonbloom/sshfsexec/internal/rewrite"
	"github.com/brandonbloom/sshfsexec/internal/shellcmd"
	"github.com/brandonbloom/sshfsexec/internal/tty"
)

const gitDirVar = "GIT_DIR"

// Invocation is everything the shim knows about how it was called.
type Invocation struct {
	Command string
	Args    []string
	Dir     string
	Env     environ.Env
	TTY     tty.State
	// Self is the shim's own executable; resolution never returns it.
	Self string
}

// Engine plans and runs invocations. The zero value is not usable; fill in
// Settings at least, or use New.
type Engine struct {
	Settings config.Settings
	// LoadMapping defaults to config.LoadMapping.
	LoadMapping func(dir string) (*config.Mapping, error)
	// Stager defaults to scp with the configured ssh options.
	Stager     rewrite.Stager
	Dispatcher *dispatch.Dispatcher
	Logger     *slog.Logger
	Now        func() time.Time
	// DryRun plans without side effects: nothing is staged and the HEAD
	// reflog is left alone.
	DryRun bool
}

func New(settings config.Settings, logger *slog.Logger) *Engine {
	return &Engine{
		Settings:   settings,
		Dispatcher: dispatch.New(logger),
		Logger:     logger,
	}
}

// Prepared is a planned invocation together with the mapping it was
// planned against. Mapping is nil for a plain local directory.
type Prepared struct {
	Mapping *config.Mapping
	Command dispatch.Command
}

// Plan resolves inv into the command that would be dispatched. Outside of
// DryRun it performs the side effects that must precede dispatch.
func (e *Engine) Plan(ctx context.Context, inv Invocation) (dispatch.Command, error) {
	p, err := e.Prepare(ctx, inv)
	if err != nil {
		return nil, err
	}
	return p.Command, nil
}

// Prepare is Plan, also reporting the mapping that was used.
func (e *Engine) Prepare(ctx context.Context, inv Invocation) (Prepared, error) {
	logger := e.logger()

	mapping, err := withTraceRegion(ctx, "load mapping", func() (*config.Mapping, error) {
		return e.loadMapping(inv.Dir)
	})
	if err != nil {
		return Prepared{}, err
	}
	if mapping != nil {
		logger.DebugContext(ctx, "mapping", "dir", inv.Dir, "remote-host", mapping.RemoteHost, "remote-root", mapping.RemoteRoot, "git-dir", mapping.GitDir)
	}

	if e.touchesHead(inv, mapping) {
		path, err := gitutil.TouchHeadLog(inv.Dir, mapping.GitDir, e.now())
		if err != nil {
			logger.WarnContext(ctx, "could not touch HEAD reflog", "path", path, "err", err)
		} else {
			logger.DebugContext(ctx, "touched HEAD reflog", "path", path)
		}
	}

	plan, region := e.planLocal, "plan local"
	if mapping.Remote() {
		plan, region = e.planRemote, "plan remote"
	}
	cmd, err := withTraceRegion(ctx, region, func() (dispatch.Command, error) {
		return plan(ctx, inv, mapping)
	})
	if err != nil {
		return Prepared{}, err
	}
	return Prepared{Mapping: mapping, Command: cmd}, nil
}

// Run plans inv and dispatches the result.
func (e *Engine) Run(ctx context.Context, inv Invocation) (dispatch.Outcome, error) {
	cmd, err := e.Plan(ctx, inv)
	if err != nil {
		return dispatch.Outcome{}, err
	}
	d := e.Dispatcher
	if d == nil {
		d = dispatch.New(e.logger())
	}
	return d.Dispatch(ctx, cmd)
}

func (e *Engine) planRemote(ctx context.Context, inv Invocation, mapping *config.Mapping) (dispatch.Command, error) {
	options, err := e.Settings.Options()
	if err != nil {
		return nil, err
	}
	target := &rewrite.Target{Login: mapping.RemoteHost, Root: mapping.RemoteRoot}

	res, err := rewrite.Rewrite(ctx, inv.Command, inv.Args, target, rewrite.Options{
		Stager:   e.stager(inv, options),
		StageDir: e.Settings.StageDir,
	})
	if err != nil {
		return nil, err
	}
	for _, s := range res.Staged {
		e.logger().DebugContext(ctx, "staged", "local", s.Local, "remote", target.Login+":"+s.Remote)
	}
	if res.PrintWorkdir {
		return dispatch.Reply{Text: inv.Dir + "\n"}, nil
	}

	directive := tty.Decide(inv.TTY, e.Settings.PreservesIsatty(inv.Command))
	command := shellcmd.Compose(inv.Command, res.Args, e.Settings.Env, mapping.RemoteRoot)
	argv := shellcmd.SSHArgv(e.Settings.SSH, options, mapping.RemoteHost, directive, command)
	e.logger().DebugContext(ctx, "remote command", "allocate", directive.Allocate.String(), "argv", argv)
	return dispatch.Remote{Argv: argv, Env: inv.Env}, nil
}

func (e *Engine) planLocal(ctx context.Context, inv Invocation, mapping *config.Mapping) (dispatch.Command, error) {
	env := inv.Env
	if mapping != nil && mapping.GitDir != "" {
		env = env.With(gitDirVar, mapping.GitDir)
	}

	exe, err := lookup.Resolve(inv.Command, inv.Dir, env, inv.Self)
	if err != nil {
		return nil, err
	}
	argv := append(append([]string(nil), exe.Argv...), inv.Args...)
	e.logger().DebugContext(ctx, "local command", "argv", argv, "bridged", exe.Bridged)
	return dispatch.Local{Argv: argv, Env: env, Bridged: exe.Bridged}, nil
}

// touchesHead reports whether inv should refresh the HEAD reflog timestamp
// before running. Only checkouts whose metadata lives on the mount qualify.
func (e *Engine) touchesHead(inv Invocation, mapping *config.Mapping) bool {
	if e.DryRun || mapping == nil || inv.Command != rewrite.WrappedTool {
		return false
	}
	if !mapping.Remote() && mapping.GitDir != "." {
		return false
	}
	return gitutil.MovesHead(inv.Args)
}

func (e *Engine) stager(inv Invocation, options []string) rewrite.Stager {
	if e.DryRun {
		return dryStager{}
	}
	if e.Stager != nil {
		return e.Stager
	}
	return rewrite.SCP{Binary: e.Settings.SCP, Options: options, Dir: inv.Dir}
}

func (e *Engine) loadMapping(dir string) (*config.Mapping, error) {
	load := e.LoadMapping
	if load == nil {
		load = config.LoadMapping
	}
	m, err := load(dir)
	if err != nil {
		return nil, fmt.Errorf("load mapping: %w", err)
	}
	return m, nil
}

func (e *Engine) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

func (e *Engine) logger() *slog.Logger {
	if e.Logger != nil {
		return e.Logger
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type dryStager struct{}

func (dryStager) Stage(context.Context, string, string, string) error {
	return nil
}
