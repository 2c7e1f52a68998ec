package testutil

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"testing"
	"time"

	mcp "github.com/felixgeelhaar/weather-mcp"
	"github.com/felixgeelhaar/weather-mcp/protocol"
	"github.com/felixgeelhaar/weather-mcp/server"
	"github.com/felixgeelhaar/weather-mcp/transport"
)

// StdioSession runs a server on a stdio transport connected to pipes, so
// tests exercise the real framing.
type StdioSession struct {
	t     testing.TB
	in    *io.PipeWriter
	out   *bufio.Scanner
	errc  chan error
	srv   *server.Server
	ended error
	done  bool
}

// NewStdioSession starts srv on piped stdio. The session is closed when
// the test ends.
func NewStdioSession(t testing.TB, srv *server.Server, opts ...mcp.ServeOption) *StdioSession {
	t.Helper()
	inR, inW := io.Pipe()
	outR, outW := io.Pipe()

	s := &StdioSession{
		t:    t,
		in:   inW,
		out:  bufio.NewScanner(outR),
		errc: make(chan error, 1),
		srv:  srv,
	}
	s.out.Buffer(make([]byte, 0, 64*1024), transport.DefaultMaxMessageSize)

	stdio := transport.NewStdio(transport.WithStdin(inR), transport.WithStdout(outW))
	go func() {
		err := mcp.Serve(context.Background(), srv, stdio, opts...)
		_ = outW.Close()
		s.errc <- err
	}()

	t.Cleanup(func() {
		_ = inW.Close()
		_ = outR.Close()
	})
	return s
}

// Send writes one raw line to the server.
func (s *StdioSession) Send(line string) {
	s.t.Helper()
	if _, err := io.WriteString(s.in, line+"\n"); err != nil {
		s.t.Fatalf("write to server: %v", err)
	}
}

// Receive reads the next response line.
func (s *StdioSession) Receive() *protocol.Response {
	s.t.Helper()
	if !s.out.Scan() {
		s.t.Fatalf("no response from server: %v", s.out.Err())
	}
	var resp protocol.Response
	if err := json.Unmarshal(s.out.Bytes(), &resp); err != nil {
		s.t.Fatalf("decode response %q: %v", s.out.Text(), err)
	}
	return &resp
}

// Call sends a line and reads its response.
func (s *StdioSession) Call(line string) *protocol.Response {
	s.t.Helper()
	s.Send(line)
	return s.Receive()
}

// CloseInput closes the server's stdin.
func (s *StdioSession) CloseInput() {
	_ = s.in.Close()
}

// Wait blocks until Serve returns and reports its error.
func (s *StdioSession) Wait(timeout time.Duration) error {
	s.t.Helper()
	if s.done {
		return s.ended
	}
	select {
	case err := <-s.errc:
		s.done, s.ended = true, err
		return err
	case <-time.After(timeout):
		s.t.Fatalf("session did not end within %v", timeout)
		return nil
	}
}
