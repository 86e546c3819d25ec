package main

import (
	"fmt"
	"io"
	"log"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/horgh/irc"
	"github.com/pkg/errors"
)

// Server holds the state for a server.
// I put everything global to a server in an instance of struct rather than
// have global variables.
type Server struct {
	Config   Config
	Port     uint16
	Password string

	// Connection id to Client. Clients in here have not completed
	// registration.
	Clients map[uint64]*Client

	// Connection id to UserClient. These have completed registration.
	Users map[uint64]*UserClient

	// Canonicalized nickname to connection id. The client may be registered
	// or not; an unregistered client reserves its nick here too.
	Nicks map[string]uint64

	// Channel name to Channel. Names are case sensitive.
	Channels map[string]*Channel

	// When we close this channel, this indicates that we're shutting down.
	// Other goroutines can check if this channel is closed.
	ShutdownChan chan struct{}

	// Tell the server something on this channel.
	ToServerChan chan Event

	// TCP listener.
	Listener net.Listener

	// WaitGroup to ensure all goroutines clean up before we end.
	WG sync.WaitGroup

	stopOnce sync.Once
}

// Event holds a message containing something to tell the server.
type Event struct {
	Type EventType

	Client *Client

	Message irc.Message

	// Err is set on DeadClientEvent when an I/O problem killed the client.
	Err error
}

// EventType is a type of event we can tell the server about.
type EventType int

const (
	// NullEvent is a default event. This means the event was not populated.
	NullEvent EventType = iota

	// NewClientEvent means a new client connected.
	NewClientEvent

	// DeadClientEvent means the client died for some reason. Clean it up.
	DeadClientEvent

	// MessageFromClientEvent means a client sent a message.
	MessageFromClientEvent

	// WakeUpEvent means the server should wake up and do bookkeeping.
	WakeUpEvent
)

func newServer(cfg Config, port uint16, password string) *Server {
	return &Server{
		Config:   cfg,
		Port:     port,
		Password: password,

		Clients:  make(map[uint64]*Client),
		Users:    make(map[uint64]*UserClient),
		Nicks:    make(map[string]uint64),
		Channels: make(map[string]*Channel),

		// Stop() closes this channel.
		ShutdownChan: make(chan struct{}),

		// We never manually close this channel.
		ToServerChan: make(chan Event),
	}
}

// Setup opens the TCP port. We keep it separate from Run so a listen
// failure can be reported before any goroutine starts.
func (s *Server) Setup() error {
	ln, err := net.Listen("tcp", fmt.Sprintf("%s:%d", s.Config.ListenHost,
		s.Port))
	if err != nil {
		return errors.Wrapf(err, "unable to listen on port %d", s.Port)
	}
	s.Listener = ln

	if len(s.Config.MetricsListen) > 0 {
		serveMetrics(s.Config.MetricsListen)
	}

	log.Printf("Server is listening on port %d", s.Port)
	return nil
}

// Run starts the goroutines and processes events until shutdown.
func (s *Server) Run() {
	// acceptConnections accepts connections on the TCP listener.
	s.WG.Add(1)
	go s.acceptConnections()

	// Alarm is a goroutine to wake up this one periodically so we can do
	// things like ping clients and expire half-registered connections.
	s.WG.Add(1)
	go s.alarm()

	s.eventLoop()

	// The loop is done. Make sure the listener is down, then tear down every
	// client. This runs on the loop's goroutine, so it may touch state.
	s.Stop()

	for _, client := range s.Clients {
		client.quit("Server shutting down")
	}
	for _, user := range s.Users {
		user.quit("Server shutting down")
	}

	s.WG.Wait()
}

// Stop initiates shutdown. Any goroutine may call it; it does not touch
// server state beyond the shutdown channel and the listener.
func (s *Server) Stop() {
	s.stopOnce.Do(func() {
		log.Printf("Server shutdown initiated.")

		// Closing ShutdownChan indicates to other goroutines that we're
		// shutting down.
		close(s.ShutdownChan)

		if s.Listener != nil {
			if err := s.Listener.Close(); err != nil {
				log.Printf("Problem closing TCP listener: %s", err)
			}
		}
	})
}

// eventLoop processes events on the server's channel.
//
// It continues until the shutdown channel closes, indicating shutdown.
// Every piece of server state is owned by this goroutine; processing one
// event at a time is what serializes command dispatch.
func (s *Server) eventLoop() {
	for {
		select {
		case evt := <-s.ToServerChan:
			switch evt.Type {
			case NewClientEvent:
				log.Printf("New client connection: %s", evt.Client)
				s.Clients[evt.Client.ID] = evt.Client

			case DeadClientEvent:
				if client, exists := s.Clients[evt.Client.ID]; exists {
					log.Printf("Client %s died: %s", client, evt.Err)
					client.quit(s.errorToQuitMessage(evt.Err))
				}
				if user, exists := s.Users[evt.Client.ID]; exists {
					log.Printf("Client %s died: %s", user, evt.Err)
					user.quit(s.errorToQuitMessage(evt.Err))
				}

			case MessageFromClientEvent:
				if client, exists := s.Clients[evt.Client.ID]; exists {
					client.handleMessage(evt.Message)
				}
				if user, exists := s.Users[evt.Client.ID]; exists {
					user.handleMessage(evt.Message)
				}

			case WakeUpEvent:
				s.checkAndPingClients()

			default:
				log.Fatalf("Unexpected event: %d", evt.Type)
			}

			s.updateGauges()

		case <-s.ShutdownChan:
			return
		}
	}
}

// acceptConnections accepts TCP connections and tells the main server loop
// through a channel. It sets up separate goroutines for reading/writing to
// and from the client.
func (s *Server) acceptConnections() {
	defer s.WG.Done()

	id := uint64(0)

	for {
		if s.isShuttingDown() {
			break
		}

		conn, err := s.Listener.Accept()
		if err != nil {
			if s.isShuttingDown() {
				break
			}
			log.Printf("Failed to accept connection: %s", err)
			continue
		}

		connectionsAccepted.Inc()

		client := NewClient(s, id, conn)

		// Handle rollover of uint64. Unlikely to happen (outside abuse) but.
		if id+1 == 0 {
			log.Fatalf("Unique ids rolled over!")
		}
		id++

		// ToServerChan is synchronous. We want to make sure the server knows
		// about the client before it starts hearing anything from its other
		// goroutines about the client. If shutdown wins the race instead, the
		// client never existed as far as the server is concerned.
		accepted := false
		select {
		case s.ToServerChan <- Event{Type: NewClientEvent, Client: client}:
			accepted = true
		case <-s.ShutdownChan:
		}

		if !accepted {
			_ = client.Conn.Close()
			break
		}

		s.WG.Add(1)
		go client.readLoop()
		s.WG.Add(1)
		go client.writeLoop()
	}

	log.Printf("Connection accepter shutting down.")
}

// newEvent tells the server something happened.
//
// Any goroutine can call this function.
func (s *Server) newEvent(evt Event) {
	select {
	case s.ToServerChan <- evt:
	case <-s.ShutdownChan:
	}
}

// Return true if the server is shutting down.
func (s *Server) isShuttingDown() bool {
	// No messages get sent to this channel, so if we receive a message on
	// it, then we know the channel was closed.
	select {
	case <-s.ShutdownChan:
		return true
	default:
		return false
	}
}

// alarm sends a message to the server goroutine to wake it up.
func (s *Server) alarm() {
	defer s.WG.Done()

	for {
		select {
		case <-time.After(s.Config.WakeupTime):
			s.newEvent(Event{Type: WakeUpEvent})
		case <-s.ShutdownChan:
			log.Printf("Alarm shutting down.")
			return
		}
	}
}

// checkAndPingClients looks at each connected client.
//
// A connection that sat in registration too long gets cut off. A
// registered client that has been idle a short time gets a PING; idle a
// long time, we kill its connection. Clients that overflowed their send
// queue are killed too.
func (s *Server) checkAndPingClients() {
	now := time.Now()

	for _, client := range s.Clients {
		if client.SendQueueExceeded {
			client.quit("SendQ exceeded")
			continue
		}

		if now.Sub(client.ConnectionStartTime) > s.Config.RegistrationTime {
			client.quit("Registration timeout")
		}
	}

	for _, user := range s.Users {
		if user.SendQueueExceeded {
			user.quit("SendQ exceeded")
			continue
		}

		timeIdle := now.Sub(user.LastActivityTime)

		// Was it active recently enough that we don't need to do anything?
		if timeIdle < s.Config.PingTime {
			continue
		}

		// It's been idle a while.

		// Has it been idle long enough that we consider it dead?
		if timeIdle > s.Config.DeadTime {
			user.quit(fmt.Sprintf("Ping timeout: %d seconds",
				int(timeIdle.Seconds())))
			continue
		}

		// Should we ping it? We might have pinged it recently.
		if now.Sub(user.LastPingTime) < s.Config.PingTime {
			continue
		}

		user.messageFromServer("PING", []string{s.Config.ServerName})
		user.LastPingTime = now
	}
}

// errorToQuitMessage turns a read/write error into the message we use when
// cutting the client off.
func (s *Server) errorToQuitMessage(err error) string {
	if err == nil {
		return "I/O error"
	}

	cause := errors.Cause(err)

	if cause == errInputBufferFull {
		return "Client exceeded buffer size limit"
	}

	if cause == io.EOF {
		return "Connection closed"
	}

	text := err.Error()

	if strings.Contains(text, "i/o timeout") {
		return fmt.Sprintf("Ping timeout: %d seconds",
			int(s.Config.DeadTime.Seconds()))
	}

	if strings.Contains(text, "connection reset by peer") {
		return "Connection reset by peer"
	}

	if len(text) == 0 {
		return "I/O error"
	}

	return text
}
