// Package server owns the HTTP listener lifecycle: acquiring a socket
// (inherited from a supervisor or freshly bound), applying worker
// concurrency, serving, and graceful shutdown.
//
// Listener acquisition is a two-step state machine:
//
//	CheckInherited --(socket present)--> Listening
//	CheckInherited --(none)--> BindFresh --(bound)--> Listening
//	BindFresh --(bind error)--> fatal
//
// An inherited socket always wins; the configured bind address is then
// ignored.
package server

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
)

// State names a step of listener acquisition.
type State int

const (
	CheckInherited State = iota
	BindFresh
	Listening
)

func (s State) String() string {
	switch s {
	case CheckInherited:
		return "check_inherited"
	case BindFresh:
		return "bind_fresh"
	case Listening:
		return "listening"
	default:
		return "unknown"
	}
}

// ErrNoInheritedSocket reports that no supervisor handed us a socket.
var ErrNoInheritedSocket = errors.New("no inherited socket")

// SocketSource yields a listening socket.
type SocketSource interface {
	Listen() (net.Listener, error)
}

// Socket activation environment (systemd and listenfd convention): the
// supervisor passes LISTEN_FDS sockets starting at fd 3, and LISTEN_PID
// names the process they are meant for.
const (
	envListenFDs   = "LISTEN_FDS"
	envListenPID   = "LISTEN_PID"
	listenFDsStart = 3
)

// Inherited reads the socket activation environment. Getenv and Getpid
// default to the os package.
type Inherited struct {
	Getenv func(string) string
	Getpid func() int
	// Unset, when true, clears the activation variables after a successful
	// take so child processes do not inherit them.
	Unset bool
}

// Listen returns the first inherited socket or ErrNoInheritedSocket.
func (s Inherited) Listen() (net.Listener, error) {
	getenv := s.Getenv
	if getenv == nil {
		getenv = os.Getenv
	}
	getpid := s.Getpid
	if getpid == nil {
		getpid = os.Getpid
	}

	n, err := strconv.Atoi(getenv(envListenFDs))
	if err != nil || n < 1 {
		return nil, ErrNoInheritedSocket
	}
	if pid := getenv(envListenPID); pid != "" {
		if p, err := strconv.Atoi(pid); err != nil || p != getpid() {
			return nil, ErrNoInheritedSocket
		}
	}

	f := os.NewFile(uintptr(listenFDsStart), "listenfd")
	if f == nil {
		return nil, ErrNoInheritedSocket
	}
	defer f.Close() // FileListener dups the descriptor

	ln, err := net.FileListener(f)
	if err != nil {
		return nil, fmt.Errorf("inherited fd %d: %w", listenFDsStart, err)
	}
	if s.Unset {
		os.Unsetenv(envListenFDs)
		os.Unsetenv(envListenPID)
	}
	return ln, nil
}

// FreshBind binds Addr over TCP.
type FreshBind struct {
	Addr string
}

// Listen binds the configured address.
func (s FreshBind) Listen() (net.Listener, error) {
	ln, err := net.Listen("tcp", s.Addr)
	if err != nil {
		return nil, fmt.Errorf("bind %s: %w", s.Addr, err)
	}
	return ln, nil
}

// Acquire runs the acquisition state machine. The returned State is the
// step that produced the listener (CheckInherited or BindFresh), or the step
// that failed.
func Acquire(inherited, fresh SocketSource) (net.Listener, State, error) {
	state := CheckInherited
	for {
		switch state {
		case CheckInherited:
			ln, err := inherited.Listen()
			if err == nil {
				return ln, CheckInherited, nil
			}
			if !errors.Is(err, ErrNoInheritedSocket) {
				return nil, CheckInherited, err
			}
			state = BindFresh
		case BindFresh:
			ln, err := fresh.Listen()
			if err != nil {
				return nil, BindFresh, err
			}
			return ln, BindFresh, nil
		default:
			return nil, state, fmt.Errorf("unexpected acquisition state %s", state)
		}
	}
}
