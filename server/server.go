package server

import (
	"bufio"
	"fmt"
	"log"
	"net"
	"sync"

	"github.com/tvuorela/pedalhost/engine"
)

type (
	// Server accepts client connections and runs the command protocol over
	// them. Each connection gets its own goroutine; commands from one
	// connection apply strictly in receipt order, while connections race
	// against each other only at the coordinator's swap boundary. One more
	// goroutine drains the engine broker and fans analysis results (tuner
	// frequency, overrun counts) out to every connected client.
	Server struct {
		coord     *engine.Coordinator
		broker    *engine.Broker
		processor *Processor
		tuner     *engine.TunerAnalyzer

		listener net.Listener

		mu      sync.Mutex
		clients map[*client]struct{}
		closing bool

		// Done is closed when the server has shut down, either by Close or
		// by a kill command.
		Done chan struct{}
	}

	// client serializes writes to one connection: command responses and
	// asynchronous pushes interleave on the same socket.
	client struct {
		conn net.Conn
		mu   sync.Mutex
		w    *bufio.Writer
	}
)

func NewServer(coord *engine.Coordinator, broker *engine.Broker, sampleRate int) *Server {
	s := &Server{
		coord:   coord,
		broker:  broker,
		tuner:   engine.NewTunerAnalyzer(sampleRate),
		clients: make(map[*client]struct{}),
		Done:    make(chan struct{}),
	}
	s.processor = NewProcessor(coord, s.broadcast, s.Close)
	return s
}

// Processor returns the server's command processor, for alternative command
// sources such as MIDI input.
func (s *Server) Processor() *Processor { return s.processor }

// Addr returns the bound listen address, nil before Listen.
func (s *Server) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Listen binds addr and starts accepting connections. It returns once the
// listener is up; accepting and serving happen on their own goroutines.
func (s *Server) Listen(addr string) error {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listening on %v: %w", addr, err)
	}
	s.listener = listener
	go s.acceptLoop()
	go s.controlLoop()
	return nil
}

// Close shuts the server down: stops accepting, disconnects every client and
// stops the control loop. Safe to call more than once.
func (s *Server) Close() {
	s.mu.Lock()
	if s.closing {
		s.mu.Unlock()
		return
	}
	s.closing = true
	clients := make([]*client, 0, len(s.clients))
	for c := range s.clients {
		clients = append(clients, c)
	}
	s.mu.Unlock()
	if s.listener != nil {
		s.listener.Close()
	}
	for _, c := range clients {
		c.conn.Close()
	}
	engine.TrySend(s.broker.CloseEngine, struct{}{})
	close(s.Done)
}

func (s *Server) acceptLoop() {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			return // listener closed
		}
		c := &client{conn: conn, w: bufio.NewWriter(conn)}
		s.mu.Lock()
		if s.closing {
			s.mu.Unlock()
			conn.Close()
			return
		}
		s.clients[c] = struct{}{}
		s.mu.Unlock()
		log.Printf("client connected from %v", conn.RemoteAddr())
		go s.serve(c)
	}
}

// serve runs the per-connection command loop. A connection dying mid-command
// aborts only that command; applied state stays as it is.
func (s *Server) serve(c *client) {
	defer func() {
		s.mu.Lock()
		delete(s.clients, c)
		s.mu.Unlock()
		c.conn.Close()
		log.Printf("client %v disconnected", c.conn.RemoteAddr())
	}()
	scanner := bufio.NewScanner(c.conn)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		c.writeLine(s.respond(line))
	}
}

// respond executes one command line and formats its single response.
func (s *Server) respond(line string) string {
	cmd, err := ParseCommand(line)
	if err != nil {
		return fmt.Sprintf("err protocol %v", err)
	}
	switch err := s.processor.Apply(cmd).(type) {
	case nil:
		return "ok"
	case *ProtocolError:
		return fmt.Sprintf("err protocol %v", err)
	case *ValidationError:
		return fmt.Sprintf("err validation %v", err)
	default:
		return fmt.Sprintf("err validation %v", err)
	}
}

// controlLoop drains messages from the render engine: tuner frames get
// analyzed and the frequency broadcast, overruns are logged, and a finished
// backup track stops playback.
func (s *Server) controlLoop() {
	for {
		select {
		case msg := <-s.broker.ToControl:
			s.handleEngineMsg(msg)
		case <-s.broker.CloseEngine:
			close(s.broker.FinishedEngine)
			return
		}
	}
}

func (s *Server) handleEngineMsg(msg engine.MsgToControl) {
	if msg.TunerFrame != nil {
		if freq, ok := s.tuner.Feed(*msg.TunerFrame); ok {
			s.broadcast(fmt.Sprintf("tuner %.2f", freq))
		}
		s.broker.PutAudioBuffer(msg.TunerFrame)
	}
	if msg.HasOverruns {
		log.Printf("render overruns: %d", msg.Overruns)
	}
	if msg.BackupDone {
		if err := s.coord.SetBackupPlaying(false); err == nil {
			s.broadcast("backupdone")
		}
	}
}

// broadcast pushes one line to every connected client.
func (s *Server) broadcast(line string) {
	s.mu.Lock()
	clients := make([]*client, 0, len(s.clients))
	for c := range s.clients {
		clients = append(clients, c)
	}
	s.mu.Unlock()
	for _, c := range clients {
		c.writeLine(line)
	}
}

func (c *client) writeLine(line string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.w.WriteString(line)
	c.w.WriteByte('\n')
	c.w.Flush()
}
