// Package fakeroot runs commands under a simulated root environment.
//
// A Broker lazily starts a single faked daemon the first time a privileged
// command needs it and hands every later caller the same session key. The
// daemon lives until Close is called or the Broker's context is cancelled;
// owners should defer Close right after New.
package fakeroot

import (
	"bufio"
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"

	"github.com/glorpus-work/pkgsmith/internal/logger"
	pkgerrors "github.com/glorpus-work/pkgsmith/pkg/errors"
	"github.com/glorpus-work/pkgsmith/pkg/fsutil"
	"github.com/glorpus-work/pkgsmith/pkg/observer"
	"github.com/glorpus-work/pkgsmith/pkg/runner"
)

// DefaultLibDirs is searched for the preload library when none are configured.
var DefaultLibDirs = []string{
	"/usr/lib/libfakeroot",
	"/usr/lib64/libfakeroot",
	"/usr/lib32/libfakeroot",
}

// DefaultDaemon starts faked in the foreground so it announces its key on
// stdout and can be killed directly.
var DefaultDaemon = []string{"faked", "--foreground"}

// Options configures a Broker. Zero fields take the defaults.
type Options struct {
	LibDirs []string
	Library string
	Daemon  []string
}

func (o Options) withDefaults() Options {
	if len(o.LibDirs) == 0 {
		o.LibDirs = DefaultLibDirs
	}
	if o.Library == "" {
		o.Library = LibraryName
	}
	if len(o.Daemon) == 0 {
		o.Daemon = DefaultDaemon
	}
	return o
}

type session struct {
	key string
	cmd *exec.Cmd
}

// Broker memoizes one fakeroot session.
type Broker struct {
	ctx  context.Context
	opts Options
	obs  observer.Observer

	mu      sync.Mutex
	session *session
	closed  bool
}

// New returns a Broker whose daemon, once started, is bound to ctx.
func New(ctx context.Context, opts Options, obs observer.Observer) *Broker {
	if obs == nil {
		obs = observer.Nop{}
	}
	return &Broker{ctx: ctx, opts: opts.withDefaults(), obs: obs}
}

// EnsureSession starts the daemon on first use and returns its key. Later
// calls return the cached key without spawning.
func (b *Broker) EnsureSession(ctx context.Context) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.session != nil {
		return b.session.key, nil
	}
	if b.closed {
		return "", fmt.Errorf("fakeroot broker is closed")
	}

	if err := b.obs.Event(observer.Event{Kind: observer.StartingFakeroot}); err != nil {
		return "", fmt.Errorf("%w: %w", pkgerrors.ErrIO, err)
	}
	if err := b.findLibrary(); err != nil {
		return "", err
	}

	s, err := b.start(ctx)
	if err != nil {
		return "", err
	}
	b.session = s
	logger.Debug("fakeroot daemon started", logger.Fields{"key": s.key, "pid": s.cmd.Process.Pid})
	return s.key, nil
}

func (b *Broker) findLibrary() error {
	for _, dir := range b.opts.LibDirs {
		if fsutil.Exists(filepath.Join(dir, b.opts.Library)) {
			return nil
		}
	}
	return &pkgerrors.ComponentNotFoundError{Component: b.opts.Library, Searched: b.opts.LibDirs}
}

func (b *Broker) start(ctx context.Context) (*session, error) {
	argv := b.opts.Daemon
	cmd := exec.CommandContext(b.ctx, argv[0], argv[1:]...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, &pkgerrors.CommandError{Kind: pkgerrors.ErrIO, Args: argv, Stream: "stdout", Err: err}
	}
	if err := cmd.Start(); err != nil {
		return nil, &pkgerrors.CommandError{Kind: pkgerrors.ErrCannotExecute, Args: argv, Err: err}
	}

	type line struct {
		text string
		err  error
	}
	ch := make(chan line, 1)
	go func() {
		text, err := bufio.NewReader(stdout).ReadString('\n')
		ch <- line{text, err}
	}()

	var got line
	select {
	case got = <-ch:
	case <-ctx.Done():
		got.err = ctx.Err()
	}
	stdout.Close()

	key, _, _ := strings.Cut(strings.TrimSpace(got.text), ":")
	if key == "" {
		_ = cmd.Process.Kill()
		_ = cmd.Wait()
		if got.err == nil {
			got.err = fmt.Errorf("empty announcement")
		}
		return nil, &pkgerrors.CommandError{Kind: pkgerrors.ErrIO, Args: argv, Stream: "stdout",
			Err: fmt.Errorf("%w: %w", pkgerrors.ErrFakerootKey, got.err)}
	}
	return &session{key: key, cmd: cmd}, nil
}

// Env returns the environment a command needs to run under the session,
// starting the session if necessary.
func (b *Broker) Env(ctx context.Context) ([]string, error) {
	key, err := b.EnsureSession(ctx)
	if err != nil {
		return nil, err
	}
	return append(loaderEnv(strings.Join(b.opts.LibDirs, ":"), b.opts.Library), "FAKEROOTKEY="+key), nil
}

// Apply adds the session environment to cmd.
func (b *Broker) Apply(ctx context.Context, cmd *runner.Command) error {
	env, err := b.Env(ctx)
	if err != nil {
		return err
	}
	cmd.Env = append(cmd.Env, env...)
	return nil
}

// Close kills the daemon if one was started. It is safe to call more than
// once.
func (b *Broker) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.closed = true
	if b.session == nil {
		return nil
	}
	s := b.session
	b.session = nil

	_ = s.cmd.Process.Kill()
	_ = s.cmd.Wait()
	logger.Debug("fakeroot daemon stopped", logger.Fields{"key": s.key})
	return nil
}
