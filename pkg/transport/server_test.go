package transport_test

import (
	"context"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/krac-home/krac-go/pkg/log"
	"github.com/krac-home/krac-go/pkg/transport"
)

// eventRecorder captures log events for transport tests.
type eventRecorder struct {
	mu     sync.Mutex
	events []log.Event
}

func (r *eventRecorder) Log(event log.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *eventRecorder) Events() []log.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]log.Event(nil), r.events...)
}

// waitFor polls cond until it returns true or the timeout expires.
func waitFor(t *testing.T, timeout time.Duration, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timeout waiting for %s", msg)
}

func startTestServer(t *testing.T, config transport.ServerConfig) *transport.Server {
	t.Helper()

	if config.Address == "" {
		config.Address = "127.0.0.1:0"
	}

	server := transport.NewServer(config)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	if err := server.Start(ctx); err != nil {
		t.Fatalf("Failed to start server: %v", err)
	}
	t.Cleanup(func() { server.Stop() })

	return server
}

func TestServerReceivesFramedMessages(t *testing.T) {
	var receivedMsg []byte
	var msgMu sync.Mutex
	msgReceived := make(chan struct{})

	server := startTestServer(t, transport.ServerConfig{
		OnMessage: func(conn *transport.ServerConn, msg []byte) {
			msgMu.Lock()
			receivedMsg = msg
			msgMu.Unlock()
			close(msgReceived)
		},
	})

	conn, err := net.Dial("tcp", server.Addr().String())
	if err != nil {
		t.Fatalf("Connection failed: %v", err)
	}
	defer conn.Close()

	testMsg := []byte("hello device")
	framer := transport.NewFramer(conn)
	if err := framer.WriteFrame(testMsg); err != nil {
		t.Fatalf("Failed to send frame: %v", err)
	}

	select {
	case <-msgReceived:
		msgMu.Lock()
		if string(receivedMsg) != string(testMsg) {
			t.Errorf("Expected %q, got %q", testMsg, receivedMsg)
		}
		msgMu.Unlock()
	case <-time.After(2 * time.Second):
		t.Fatal("Timeout waiting for message")
	}
}

func TestServerSendsReplies(t *testing.T) {
	server := startTestServer(t, transport.ServerConfig{
		OnMessage: func(conn *transport.ServerConn, msg []byte) {
			// Echo back
			if err := conn.Send(msg); err != nil {
				t.Errorf("Send failed: %v", err)
			}
		},
	})

	conn, err := net.Dial("tcp", server.Addr().String())
	if err != nil {
		t.Fatalf("Connection failed: %v", err)
	}
	defer conn.Close()

	framer := transport.NewFramer(conn)
	testMsg := []byte("ping-me")
	if err := framer.WriteFrame(testMsg); err != nil {
		t.Fatalf("Failed to send frame: %v", err)
	}

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	reply, err := framer.ReadFrame()
	if err != nil {
		t.Fatalf("Failed to read reply: %v", err)
	}
	if string(reply) != string(testMsg) {
		t.Errorf("Expected %q, got %q", testMsg, reply)
	}
}

func TestServerConcurrentConnections(t *testing.T) {
	var connCount int
	var mu sync.Mutex

	server := startTestServer(t, transport.ServerConfig{
		OnConnect: func(_ *transport.ServerConn) {
			mu.Lock()
			connCount++
			mu.Unlock()
		},
	})

	addr := server.Addr().String()

	numClients := 5
	var wg sync.WaitGroup
	conns := make([]net.Conn, numClients)

	for i := 0; i < numClients; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			conn, err := net.Dial("tcp", addr)
			if err != nil {
				t.Errorf("Client %d: Connection failed: %v", idx, err)
				return
			}
			conns[idx] = conn
		}(i)
	}

	wg.Wait()

	waitFor(t, 2*time.Second, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return connCount == numClients
	}, "all clients to connect")

	if active := server.ConnectionCount(); active != numClients {
		t.Errorf("Expected %d active connections, got %d", numClients, active)
	}

	for _, conn := range conns {
		if conn != nil {
			conn.Close()
		}
	}
}

func TestServerOnDisconnect(t *testing.T) {
	connected := make(chan string, 1)
	disconnected := make(chan string, 1)

	server := startTestServer(t, transport.ServerConfig{
		OnConnect: func(conn *transport.ServerConn) {
			connected <- conn.ConnID()
		},
		OnDisconnect: func(conn *transport.ServerConn) {
			disconnected <- conn.ConnID()
		},
	})

	conn, err := net.Dial("tcp", server.Addr().String())
	if err != nil {
		t.Fatalf("Connection failed: %v", err)
	}

	var connID string
	select {
	case connID = <-connected:
	case <-time.After(2 * time.Second):
		t.Fatal("Timeout waiting for connect callback")
	}
	if connID == "" {
		t.Error("connection ID should not be empty")
	}

	conn.Close()

	select {
	case gotID := <-disconnected:
		if gotID != connID {
			t.Errorf("disconnect ConnID = %q, want %q", gotID, connID)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Timeout waiting for disconnect callback")
	}

	waitFor(t, 2*time.Second, func() bool {
		return server.ConnectionCount() == 0
	}, "connection to be unregistered")
}

func TestServerStopClosesConnections(t *testing.T) {
	server := startTestServer(t, transport.ServerConfig{})

	conn, err := net.Dial("tcp", server.Addr().String())
	if err != nil {
		t.Fatalf("Connection failed: %v", err)
	}
	defer conn.Close()

	waitFor(t, 2*time.Second, func() bool {
		return server.ConnectionCount() == 1
	}, "connection to register")

	if err := server.Stop(); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}

	// Reads on the client side should fail once the server closed the socket
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	framer := transport.NewFramer(conn)
	if _, err := framer.ReadFrame(); err == nil {
		t.Error("expected read error after server stop")
	}
}

func TestServerStartTwice(t *testing.T) {
	server := startTestServer(t, transport.ServerConfig{})

	if err := server.Start(context.Background()); err == nil {
		t.Error("expected error starting a running server")
	}
}

func TestServerLogsConnectionLifecycle(t *testing.T) {
	recorder := &eventRecorder{}

	server := startTestServer(t, transport.ServerConfig{
		Logger: recorder,
	})

	conn, err := net.Dial("tcp", server.Addr().String())
	if err != nil {
		t.Fatalf("Connection failed: %v", err)
	}

	waitFor(t, 2*time.Second, func() bool {
		return server.ConnectionCount() == 1
	}, "connection to register")

	conn.Close()

	waitFor(t, 2*time.Second, func() bool {
		for _, e := range recorder.Events() {
			if e.StateChange != nil && e.StateChange.NewState == "DISCONNECTED" {
				return true
			}
		}
		return false
	}, "disconnect event")

	var sawConnected, sawDisconnected bool
	var connID string
	for _, e := range recorder.Events() {
		if e.StateChange == nil {
			continue
		}
		if e.Layer != log.LayerTransport || e.Category != log.CategoryState {
			t.Errorf("state event has Layer=%v Category=%v", e.Layer, e.Category)
		}
		if e.StateChange.Entity != log.StateEntityConnection {
			t.Errorf("state event Entity = %v, want StateEntityConnection", e.StateChange.Entity)
		}
		if e.LocalRole != log.RoleDevice {
			t.Errorf("state event LocalRole = %v, want RoleDevice", e.LocalRole)
		}
		if e.RemoteAddr == "" {
			t.Error("state event should carry the remote address")
		}
		switch e.StateChange.NewState {
		case "CONNECTED":
			sawConnected = true
			connID = e.ConnectionID
		case "DISCONNECTED":
			sawDisconnected = true
			if e.ConnectionID != connID {
				t.Errorf("disconnect ConnectionID = %q, want %q", e.ConnectionID, connID)
			}
		}
	}

	if !sawConnected {
		t.Error("missing CONNECTED state event")
	}
	if !sawDisconnected {
		t.Error("missing DISCONNECTED state event")
	}
}
