package runner

import (
	"fmt"
	"net"
	"os"
	"syscall"

	"golang.org/x/sys/unix"
)

// socketpair returns both ends of a connected local stream socket as plain
// files. Both descriptors are close-on-exec; exec.Cmd dups the ones it hands
// to a child.
func socketpair() (a, b *os.File, err error) {
	syscall.ForkLock.RLock()
	fds, err := unix.Socketpair(unix.AF_UNIX, unix.SOCK_STREAM, 0)
	if err == nil {
		unix.CloseOnExec(fds[0])
		unix.CloseOnExec(fds[1])
	}
	syscall.ForkLock.RUnlock()
	if err != nil {
		return nil, nil, fmt.Errorf("socketpair: %w", err)
	}
	return os.NewFile(uintptr(fds[0]), "pair-a"), os.NewFile(uintptr(fds[1]), "pair-b"), nil
}

// Pair creates a duplex channel between this process and a child. The parent
// end is registered with the runtime poller so reads and writes on it park
// the calling goroutine instead of a thread; the child end is meant to be
// installed as one of the child's standard streams and closed in the parent
// once the child has started.
func Pair() (parent *net.UnixConn, child *os.File, err error) {
	a, b, err := socketpair()
	if err != nil {
		return nil, nil, err
	}
	defer a.Close()

	conn, err := net.FileConn(a)
	if err != nil {
		b.Close()
		return nil, nil, fmt.Errorf("socketpair: %w", err)
	}
	uc, ok := conn.(*net.UnixConn)
	if !ok {
		conn.Close()
		b.Close()
		return nil, nil, fmt.Errorf("socketpair: unexpected connection type %T", conn)
	}
	return uc, b, nil
}
