package publish

import (
	"bufio"
	"fmt"
	"io"
	"net"
	"path"
	"strings"
	"sync"
	"testing"
	"time"
)

// fakeFTPServer is a minimal FTP server for publisher tests. It supports
// USER, PASS, FEAT, TYPE, OPTS, CWD, PWD, EPSV, PASV, STOR and QUIT.
type fakeFTPServer struct {
	listener net.Listener
	user     string
	password string
	dirs     map[string]bool

	mu       sync.Mutex
	files    map[string][]byte
	commands []string
	sessions int
	closed   int
}

func newFakeFTPServer(t *testing.T, user, password string, dirs ...string) *fakeFTPServer {
	t.Helper()

	l, err := net.Listen("tcp", "127.0.0.1:0") //nolint:noctx // test code
	if err != nil {
		t.Fatalf("failed to listen: %v", err)
	}

	s := &fakeFTPServer{
		listener: l,
		user:     user,
		password: password,
		dirs:     map[string]bool{"/": true},
		files:    make(map[string][]byte),
	}
	for _, d := range dirs {
		s.dirs[path.Clean(d)] = true
	}

	go s.serve()
	t.Cleanup(func() { _ = l.Close() })
	return s
}

func (s *fakeFTPServer) addr() string {
	return s.listener.Addr().String()
}

func (s *fakeFTPServer) file(name string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.files[name]
	return data, ok
}

func (s *fakeFTPServer) sawCommand(cmd string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.commands {
		if c == cmd {
			return true
		}
	}
	return false
}

// waitCommand reports whether cmd arrives within a short grace period.
// The client does not wait for the QUIT reply, so it can land after Publish returns.
func (s *fakeFTPServer) waitCommand(cmd string) bool {
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if s.sawCommand(cmd) {
			return true
		}
		time.Sleep(10 * time.Millisecond)
	}
	return false
}

func (s *fakeFTPServer) sessionCount() (opened, closed int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessions, s.closed
}

func (s *fakeFTPServer) serve() {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			return
		}
		s.mu.Lock()
		s.sessions++
		s.mu.Unlock()
		go s.handle(conn)
	}
}

func (s *fakeFTPServer) handle(conn net.Conn) {
	defer func() {
		_ = conn.Close()
		s.mu.Lock()
		s.closed++
		s.mu.Unlock()
	}()

	reply := func(format string, args ...any) {
		_, _ = fmt.Fprintf(conn, format+"\r\n", args...)
	}

	reply("220 fake FTP ready")

	var (
		reader   = bufio.NewReader(conn)
		user     string
		loggedIn bool
		cwd      = "/"
		data     net.Listener
	)
	defer func() {
		if data != nil {
			_ = data.Close()
		}
	}()

	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			return
		}
		line = strings.TrimRight(line, "\r\n")
		cmd, arg, _ := strings.Cut(line, " ")
		cmd = strings.ToUpper(cmd)

		s.mu.Lock()
		s.commands = append(s.commands, cmd)
		s.mu.Unlock()

		switch cmd {
		case "USER":
			user = arg
			reply("331 password required")
		case "PASS":
			if user == s.user && arg == s.password {
				loggedIn = true
				reply("230 logged in")
			} else {
				reply("530 login incorrect")
			}
		case "FEAT":
			reply("502 not implemented")
		case "TYPE", "OPTS":
			reply("200 ok")
		case "PWD":
			reply("257 %q", cwd)
		case "CWD":
			dir := path.Clean(path.Join(cwd, arg))
			if !loggedIn || !s.dirs[dir] {
				reply("550 no such directory")
				continue
			}
			cwd = dir
			reply("250 directory changed")
		case "EPSV", "PASV":
			if data != nil {
				_ = data.Close()
			}
			data, err = net.Listen("tcp", "127.0.0.1:0") //nolint:noctx // test code
			if err != nil {
				reply("425 cannot open data connection")
				continue
			}
			port := data.Addr().(*net.TCPAddr).Port
			if cmd == "EPSV" {
				reply("229 Entering Extended Passive Mode (|||%d|)", port)
			} else {
				reply("227 Entering Passive Mode (127,0,0,1,%d,%d)", port/256, port%256)
			}
		case "STOR":
			if !loggedIn || data == nil {
				reply("425 use EPSV first")
				continue
			}
			reply("150 ok to send data")
			dc, err := data.Accept()
			if err != nil {
				reply("425 cannot open data connection")
				continue
			}
			body, _ := io.ReadAll(dc)
			_ = dc.Close()
			_ = data.Close()
			data = nil

			s.mu.Lock()
			s.files[path.Join(cwd, arg)] = body
			s.mu.Unlock()
			reply("226 transfer complete")
		case "QUIT":
			reply("221 bye")
			return
		default:
			reply("502 command not implemented")
		}
	}
}
