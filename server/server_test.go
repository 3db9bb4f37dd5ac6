package server_test

import (
	"bufio"
	"fmt"
	"net"
	"strings"
	"testing"

	"github.com/tvuorela/pedalhost/engine"
	"github.com/tvuorela/pedalhost/server"
)

func startTestServer(t *testing.T) (*server.Server, *engine.Coordinator) {
	t.Helper()
	coord := engine.NewCoordinator(sampleRate, blockSize)
	broker := engine.NewBroker()
	srv := server.NewServer(coord, broker, sampleRate)
	if err := srv.Listen("127.0.0.1:0"); err != nil {
		t.Fatalf("Listen failed: %v", err)
	}
	t.Cleanup(srv.Close)
	return srv, coord
}

func dialTestServer(t *testing.T, srv *server.Server) (net.Conn, *bufio.Scanner) {
	t.Helper()
	conn, err := net.Dial("tcp", srv.Addr().String())
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn, bufio.NewScanner(conn)
}

func roundTrip(t *testing.T, conn net.Conn, scanner *bufio.Scanner, line string) string {
	t.Helper()
	if _, err := fmt.Fprintf(conn, "%s\n", line); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	if !scanner.Scan() {
		t.Fatalf("no response to %q: %v", line, scanner.Err())
	}
	return scanner.Text()
}

func TestServerCommandSession(t *testing.T) {
	srv, coord := startTestServer(t)
	conn, scanner := dialTestServer(t, srv)

	if got := roundTrip(t, conn, scanner, `addpedalboard {"name":"lead","pedals":[{"kind":"gain","parameters":{"volume":2}}]}`); got != "ok" {
		t.Fatalf("addpedalboard: %q", got)
	}
	if got := roundTrip(t, conn, scanner, "play 0"); got != "ok" {
		t.Fatalf("play: %q", got)
	}
	if got := roundTrip(t, conn, scanner, "master 0.5"); got != "ok" {
		t.Fatalf("master: %q", got)
	}
	if got := roundTrip(t, conn, scanner, "master 1.5"); !strings.HasPrefix(got, "err validation ") {
		t.Fatalf("master 1.5: %q", got)
	}
	if got := roundTrip(t, conn, scanner, "gibberish"); !strings.HasPrefix(got, "err protocol ") {
		t.Fatalf("gibberish: %q", got)
	}
	if got := roundTrip(t, conn, scanner, "play 7"); !strings.HasPrefix(got, "err validation ") {
		t.Fatalf("play 7: %q", got)
	}
	if coord.Mix().Master != 0.5 {
		t.Errorf("master should be 0.5, got %v", coord.Mix().Master)
	}
	if coord.Snapshot().ActiveBoard() == nil {
		t.Errorf("board 0 should still be active")
	}
}

func TestServerSurvivesClientDisconnect(t *testing.T) {
	srv, coord := startTestServer(t)
	conn, scanner := dialTestServer(t, srv)
	if got := roundTrip(t, conn, scanner, `addpedalboard {"name":"x"}`); got != "ok" {
		t.Fatalf("addpedalboard: %q", got)
	}
	conn.Close()

	conn2, scanner2 := dialTestServer(t, srv)
	if got := roundTrip(t, conn2, scanner2, "play 0"); got != "ok" {
		t.Fatalf("second client should see earlier state: %q", got)
	}
	if coord.Snapshot().Active != 0 {
		t.Errorf("board 0 should be active")
	}
}

func TestServerKillClosesDown(t *testing.T) {
	srv, _ := startTestServer(t)
	conn, _ := dialTestServer(t, srv)
	if _, err := fmt.Fprintln(conn, "kill"); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	<-srv.Done
}
