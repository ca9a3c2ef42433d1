// Package dispatch runs a synthesized command and turns its result into
// the shim's own exit status.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/brandonbloom/sshfsexec/internal/bridge"
	"github.com/brandonbloom/sshfsexec/internal/environ"
)

// ErrReplaceUnsupported is returned by executors that cannot replace the
// running process image.
var ErrReplaceUnsupported = errors.New("process replacement unsupported on this platform")

// execPathVar is set by some GUI clients and would point git at the
// client's bundled helpers instead of those of the resolved binary.
const execPathVar = "GIT_EXEC_PATH"

// sharedVar crosses a bridge so the bridged git sees the same repository.
const sharedVar = "GIT_DIR"

// Command is a synthesized command. The variants are Local, Remote, and
// Reply.
type Command interface {
	isCommand()
}

// Local runs the resolved executable on this machine.
type Local struct {
	Argv    []string
	Env     environ.Env
	Bridged bool
}

// Remote runs an ssh client whose last argument is the remote command.
type Remote struct {
	Argv []string
	Env  environ.Env
}

// Reply answers the caller directly without starting anything.
type Reply struct {
	Text string
}

func (Local) isCommand()  {}
func (Remote) isCommand() {}
func (Reply) isCommand()  {}

// Outcome is how a dispatch ended. A Replaced outcome is only observable
// with executors that do not really replace the process.
type Outcome struct {
	Replaced bool
	Code     int
}

func Replaced() Outcome {
	return Outcome{Replaced: true}
}

func Exited(code int) Outcome {
	return Outcome{Code: code}
}

func (o Outcome) String() string {
	if o.Replaced {
		return "replaced"
	}
	return fmt.Sprintf("exited(%d)", o.Code)
}

// Executor starts programs with the given argv and KEY=VALUE environment.
type Executor interface {
	// Replace swaps the running process for argv and returns only on
	// failure.
	Replace(argv, env []string) error
	// Run starts argv with inherited stdio, waits for it, and reports its
	// exit status. A non-nil error means the program never ran.
	Run(argv, env []string) (int, error)
}

// Dispatcher consumes exactly one Command.
type Dispatcher struct {
	Executor Executor
	Stdout   io.Writer
	Logger   *slog.Logger
}

// New returns a Dispatcher bound to the real process.
func New(logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		Executor: NewOSExecutor(logger),
		Stdout:   os.Stdout,
		Logger:   logger,
	}
}

// LocalEnv is the environment handed to a local executable.
func LocalEnv(env environ.Env, bridged bool) environ.Env {
	env = env.Without(execPathVar)
	if bridged {
		env = bridge.Share(env, sharedVar)
	}
	return env
}

func (d *Dispatcher) Dispatch(ctx context.Context, cmd Command) (Outcome, error) {
	logger := d.logger()
	switch c := cmd.(type) {
	case Local:
		if len(c.Argv) == 0 {
			return Outcome{}, errors.New("empty local command")
		}
		env := LocalEnv(c.Env, c.Bridged).List()
		if !c.Bridged {
			logger.DebugContext(ctx, "replacing process", "argv", c.Argv)
			err := d.Executor.Replace(c.Argv, env)
			if err == nil {
				return Replaced(), nil
			}
			if !errors.Is(err, ErrReplaceUnsupported) {
				return Outcome{}, fmt.Errorf("exec %s: %w", c.Argv[0], err)
			}
		}
		logger.DebugContext(ctx, "running local child", "argv", c.Argv, "bridged", c.Bridged)
		return d.run(c.Argv, env)

	case Remote:
		if len(c.Argv) == 0 {
			return Outcome{}, errors.New("empty remote command")
		}
		logger.DebugContext(ctx, "running ssh", "argv", c.Argv)
		return d.run(c.Argv, c.Env.List())

	case Reply:
		if _, err := io.WriteString(d.Stdout, c.Text); err != nil {
			return Outcome{}, err
		}
		return Exited(0), nil

	default:
		return Outcome{}, fmt.Errorf("unknown command type %T", cmd)
	}
}

func (d *Dispatcher) run(argv, env []string) (Outcome, error) {
	code, err := d.Executor.Run(argv, env)
	if err != nil {
		return Exited(code), fmt.Errorf("%s: %w", argv[0], err)
	}
	return Exited(code), nil
}

func (d *Dispatcher) logger() *slog.Logger {
	if d.Logger != nil {
		return d.Logger
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
