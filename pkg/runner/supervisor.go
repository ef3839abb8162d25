// Package runner executes external programs for the build core.
//
// A Supervisor starts one process, or a two-process pipeline, feeds it an
// optional input payload and drains every output stream concurrently into the
// requested sinks: a capture buffer, a caller writer, a log file and the
// per-stream capture policy chosen by the observer. Each stream is served by
// its own goroutine on a poller-backed socket, so a child flooding one stream
// can never stall the drain of another.
package runner

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net"
	"os"
	"os/exec"
	"sync"
	"sync/atomic"
	"syscall"
	"unicode/utf8"

	"github.com/kballard/go-shellquote"
	"golang.org/x/sync/errgroup"

	"github.com/glorpus-work/pkgsmith/internal/logger"
	pkgerrors "github.com/glorpus-work/pkgsmith/pkg/errors"
	"github.com/glorpus-work/pkgsmith/pkg/observer"
)

const chunkSize = 32 * 1024

// Command describes one invocation.
type Command struct {
	Name string
	Args []string
	Dir  string
	// Env is appended to the current environment. Later entries win.
	Env []string
	// Input is written to the child's stdin, which is then half-closed.
	// When empty the child's stdin is /dev/null.
	Input []byte
	Kind  observer.CommandKind

	// Capture collects the final stdout into Result.Stdout.
	Capture bool
	// Stdout receives the final stdout as it arrives.
	Stdout io.Writer
	// Echo also forwards a captured stdout through the capture policy.
	Echo bool
	// Log receives every chunk of every stream, unfiltered by policy.
	Log io.Writer

	// Pipe receives this command's stdout on its stdin. Only its Name, Args,
	// Dir, Env and Kind are used; the output options above apply to the
	// pipeline's final stdout.
	Pipe *Command
}

func (c *Command) argv() []string {
	return append([]string{c.Name}, c.Args...)
}

// String returns the shell-quoted command line.
func (c *Command) String() string {
	s := shellquote.Join(c.argv()...)
	if c.Pipe != nil {
		s += " | " + c.Pipe.String()
	}
	return s
}

// Result is the outcome of a successful Run.
type Result struct {
	Stdout   []byte
	ExitCode int
}

// Supervisor runs commands. It holds no lock across invocations and may be
// used from several goroutines at once.
type Supervisor struct {
	obs observer.Observer
	ids atomic.Uint64

	// Stdout and Stderr back the Inherit policy.
	Stdout *os.File
	Stderr *os.File
}

// New returns a Supervisor reporting to obs. A nil obs inherits all output.
func New(obs observer.Observer) *Supervisor {
	if obs == nil {
		obs = observer.Nop{}
	}
	return &Supervisor{obs: obs, Stdout: os.Stdout, Stderr: os.Stderr}
}

func (s *Supervisor) terminal(f, fallback *os.File) *os.File {
	if f != nil {
		return f
	}
	return fallback
}

// Observer returns the observer the Supervisor reports to.
func (s *Supervisor) Observer() observer.Observer {
	return s.obs
}

// Output runs cmd and returns its stdout without forwarding it.
func (s *Supervisor) Output(ctx context.Context, cmd Command) ([]byte, error) {
	cmd.Capture = true
	res, err := s.Run(ctx, &cmd)
	if err != nil {
		return nil, err
	}
	return res.Stdout, nil
}

// Text is like Output but requires the output to be valid UTF-8.
func (s *Supervisor) Text(ctx context.Context, cmd Command) (string, error) {
	out, err := s.Output(ctx, cmd)
	if err != nil {
		return "", err
	}
	if !utf8.Valid(out) {
		return "", &pkgerrors.CommandError{Kind: pkgerrors.ErrInvalidText, Args: cmd.argv(), Dir: cmd.Dir}
	}
	return string(out), nil
}

// Spawn runs cmd with its output going wherever the policy says.
func (s *Supervisor) Spawn(ctx context.Context, cmd Command) error {
	_, err := s.Run(ctx, &cmd)
	return err
}

type proc struct {
	cmd    *Command
	exec   *exec.Cmd
	id     uint64
	policy observer.OutputPolicy
}

type drain struct {
	p       *proc
	stream  observer.Stream
	conn    *net.UnixConn
	capture *bytes.Buffer
	writer  io.Writer
	forward bool
}

type invocation struct {
	s      *Supervisor
	top    *Command
	ctx    context.Context
	cancel context.CancelFunc
	procs  []*proc
	conns  []*net.UnixConn
	files  []*os.File
	drains []*drain
	stdin  *net.UnixConn

	// mu serialises delivery to every sink of this invocation.
	mu     sync.Mutex
	stdout bytes.Buffer
}

// Run executes cmd and blocks until the process, or both processes of a
// pipeline, have exited and every stream has been drained.
//
// A pipeline whose upstream fails reports the upstream failure; otherwise the
// downstream status governs.
func (s *Supervisor) Run(ctx context.Context, cmd *Command) (*Result, error) {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	inv := &invocation{s: s, top: cmd, ctx: runCtx, cancel: cancel}
	defer inv.closeAll()

	cmds := []*Command{cmd}
	if cmd.Pipe != nil {
		cmds = append(cmds, cmd.Pipe)
	}
	for _, c := range cmds {
		p, err := s.register(runCtx, c)
		if err != nil {
			inv.unregister()
			return nil, err
		}
		inv.procs = append(inv.procs, p)
	}

	if err := inv.wire(); err != nil {
		inv.unregister()
		return nil, err
	}
	if err := inv.start(); err != nil {
		inv.unregister()
		return nil, err
	}

	stop := context.AfterFunc(runCtx, inv.closeConns)
	defer stop()

	var g errgroup.Group
	if inv.stdin != nil {
		g.Go(inv.feed)
	}
	for _, d := range inv.drains {
		g.Go(func() error { return inv.drain(d) })
	}
	streamErr := g.Wait()

	exitErr := inv.unregister()
	res, waitErr := inv.wait(ctx)

	switch {
	case streamErr != nil:
		return nil, streamErr
	case waitErr != nil:
		return nil, waitErr
	case exitErr != nil:
		return nil, exitErr
	}
	return res, nil
}

func (s *Supervisor) register(ctx context.Context, c *Command) (*proc, error) {
	id := s.ids.Add(1)
	policy, err := s.obs.CommandStarted(id, c.Kind)
	if err != nil {
		return nil, &pkgerrors.CommandError{Kind: pkgerrors.ErrIO, Args: c.argv(), Dir: c.Dir, Stream: "observer", Err: err}
	}

	ec := exec.CommandContext(ctx, c.Name, c.Args...)
	ec.Dir = c.Dir
	if len(c.Env) > 0 {
		ec.Env = append(os.Environ(), c.Env...)
	}

	logger.Debug("spawning command", logger.Fields{
		"id":     id,
		"argv":   shellquote.Join(c.argv()...),
		"dir":    c.Dir,
		"stdout": policy.Stdout.Mode.String(),
		"stderr": policy.Stderr.Mode.String(),
	})
	return &proc{cmd: c, exec: ec, id: id, policy: policy}, nil
}

// unregister reports every registered command as exited and returns the
// first delivery error.
func (inv *invocation) unregister() error {
	var first error
	for _, p := range inv.procs {
		if err := inv.s.obs.CommandExited(p.id, p.cmd.Kind); err != nil && first == nil {
			first = &pkgerrors.CommandError{Kind: pkgerrors.ErrIO, Args: p.cmd.argv(), Dir: p.cmd.Dir, Stream: "observer", Err: err}
		}
	}
	return first
}

func (inv *invocation) wire() error {
	top := inv.top
	last := inv.procs[len(inv.procs)-1]

	if len(top.Input) > 0 {
		conn, child, err := Pair()
		if err != nil {
			return inv.ioError(inv.procs[0], observer.Stdin, err)
		}
		inv.conns = append(inv.conns, conn)
		inv.files = append(inv.files, child)
		inv.stdin = conn
		inv.procs[0].exec.Stdin = child
	}

	if len(inv.procs) == 2 {
		up, down, err := socketpair()
		if err != nil {
			return inv.ioError(inv.procs[0], observer.Stdout, err)
		}
		inv.files = append(inv.files, up, down)
		inv.procs[0].exec.Stdout = up
		inv.procs[1].exec.Stdin = down
	}

	captured := top.Capture || top.Stdout != nil
	out := &drain{p: last, stream: observer.Stdout, writer: top.Stdout, forward: !captured || top.Echo}
	if top.Capture {
		out.capture = &inv.stdout
	}
	f, err := inv.output(out, captured || top.Log != nil)
	if err != nil {
		return err
	}
	if f != nil {
		last.exec.Stdout = f
	}

	for _, p := range inv.procs {
		f, err := inv.output(&drain{p: p, stream: observer.Stderr, forward: true}, top.Log != nil)
		if err != nil {
			return err
		}
		if f != nil {
			p.exec.Stderr = f
		}
	}
	return nil
}

// sink returns the policy and terminal for one stream of p.
func (inv *invocation) sink(p *proc, stream observer.Stream) (observer.Capture, *os.File) {
	if stream == observer.Stdout {
		return p.policy.Stdout, inv.s.terminal(inv.s.Stdout, os.Stdout)
	}
	return p.policy.Stderr, inv.s.terminal(inv.s.Stderr, os.Stderr)
}

// output returns the file a child stream should be attached to. Streams that
// need no parent-side processing are wired straight to their destination.
func (inv *invocation) output(d *drain, mux bool) (*os.File, error) {
	c, term := inv.sink(d.p, d.stream)
	if !mux && c.Mode != observer.Callback {
		switch c.Mode {
		case observer.Inherit:
			return term, nil
		case observer.File:
			return c.File, nil // nil means /dev/null
		default:
			return nil, nil
		}
	}

	conn, child, err := Pair()
	if err != nil {
		return nil, inv.ioError(d.p, d.stream, err)
	}
	d.conn = conn
	inv.conns = append(inv.conns, conn)
	inv.files = append(inv.files, child)
	inv.drains = append(inv.drains, d)
	return child, nil
}

func (inv *invocation) start() error {
	for i, p := range inv.procs {
		if err := p.exec.Start(); err != nil {
			for _, q := range inv.procs[:i] {
				_ = q.exec.Process.Kill()
				_ = q.exec.Wait()
			}
			return &pkgerrors.CommandError{Kind: pkgerrors.ErrCannotExecute, Args: p.cmd.argv(), Dir: p.cmd.Dir, Err: err}
		}
	}
	for _, f := range inv.files {
		f.Close()
	}
	inv.files = nil
	return nil
}

func (inv *invocation) feed() error {
	_, err := inv.stdin.Write(inv.top.Input)
	if err == nil {
		err = inv.stdin.CloseWrite()
	}
	if err != nil && !isBrokenPipe(err) && inv.ctx.Err() == nil {
		inv.cancel()
		return inv.ioError(inv.procs[0], observer.Stdin, err)
	}
	return nil
}

func (inv *invocation) drain(d *drain) error {
	buf := make([]byte, chunkSize)
	last := byte('\n')
	for {
		n, err := d.conn.Read(buf)
		if n > 0 {
			if werr := inv.deliver(d, buf[:n]); werr != nil {
				inv.cancel()
				return inv.ioError(d.p, d.stream, werr)
			}
			last = buf[n-1]
		}
		if err != nil {
			if errors.Is(err, io.EOF) || inv.ctx.Err() != nil {
				break
			}
			inv.cancel()
			return inv.ioError(d.p, d.stream, err)
		}
	}

	if d.forward && last != '\n' {
		inv.mu.Lock()
		err := inv.forward(d, []byte{'\n'})
		inv.mu.Unlock()
		if err != nil {
			return inv.ioError(d.p, d.stream, err)
		}
	}
	return nil
}

func (inv *invocation) deliver(d *drain, chunk []byte) error {
	inv.mu.Lock()
	defer inv.mu.Unlock()

	if d.capture != nil {
		d.capture.Write(chunk)
	}
	if d.writer != nil {
		if _, err := d.writer.Write(chunk); err != nil {
			return err
		}
	}
	if inv.top.Log != nil {
		if _, err := inv.top.Log.Write(chunk); err != nil {
			return err
		}
	}
	if d.forward {
		return inv.forward(d, chunk)
	}
	return nil
}

// forward delivers chunk according to the stream's capture policy. The
// caller holds inv.mu.
func (inv *invocation) forward(d *drain, chunk []byte) error {
	c, term := inv.sink(d.p, d.stream)
	var err error
	switch c.Mode {
	case observer.Inherit:
		_, err = term.Write(chunk)
	case observer.Callback:
		err = inv.s.obs.CommandOutput(d.p.id, d.p.cmd.Kind, d.stream, chunk)
	case observer.File:
		if c.File != nil {
			_, err = c.File.Write(chunk)
		}
	}
	return err
}

func (inv *invocation) wait(parent context.Context) (*Result, error) {
	errs := make([]error, len(inv.procs))
	for i := len(inv.procs) - 1; i >= 0; i-- {
		errs[i] = inv.procs[i].exec.Wait()
	}

	for i, err := range errs {
		if err != nil {
			return nil, exitFailure(parent, inv.procs[i], err)
		}
	}

	last := inv.procs[len(inv.procs)-1]
	return &Result{Stdout: inv.stdout.Bytes(), ExitCode: last.exec.ProcessState.ExitCode()}, nil
}

func exitFailure(ctx context.Context, p *proc, err error) error {
	ce := &pkgerrors.CommandError{Kind: pkgerrors.ErrCommandFailed, Args: p.cmd.argv(), Dir: p.cmd.Dir, ExitCode: -1, Err: err}
	var ee *exec.ExitError
	if errors.As(err, &ee) {
		ce.ExitCode = ee.ExitCode()
		if ws, ok := ee.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
			ce.Signal = ws.Signal().String()
		}
	}
	if ctx.Err() != nil {
		ce.Err = errors.Join(err, context.Cause(ctx))
	}
	return ce
}

func (inv *invocation) ioError(p *proc, stream observer.Stream, err error) error {
	return &pkgerrors.CommandError{Kind: pkgerrors.ErrIO, Args: p.cmd.argv(), Dir: p.cmd.Dir, Stream: string(stream), Err: err}
}

func (inv *invocation) closeConns() {
	for _, c := range inv.conns {
		c.Close()
	}
}

func (inv *invocation) closeAll() {
	inv.closeConns()
	for _, f := range inv.files {
		f.Close()
	}
}

func isBrokenPipe(err error) bool {
	return errors.Is(err, syscall.EPIPE) || errors.Is(err, syscall.ECONNRESET)
}
