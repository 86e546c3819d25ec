package main

import (
	"fmt"
	"log"
	"net"
	"time"

	"github.com/horgh/irc"
)

// sendQueueLength is how many messages we hold for a client before we
// consider it stuck.
const sendQueueLength = 32768

// Client holds state about a single client connection.
// All clients are in this state until they complete registration.
type Client struct {
	// Conn is the TCP connection to the client.
	Conn *Conn

	// WriteChan is the channel to send to to write to the client. It is the
	// client's output queue; the writer goroutine drains it in order.
	WriteChan chan irc.Message

	// A unique id, internal to this server. It is the stable handle for the
	// connection for its whole lifetime.
	ID uint64

	Server *Server

	ConnectionStartTime time.Time

	// Track if we overflow our send queue. If we do, we'll kill the client.
	SendQueueExceeded bool

	// Set once PASS arrived with the correct password.
	PasswordValidated bool

	// Info the client may send us before registration completes.
	PreRegDisplayNick string
	PreRegUser        string
	PreRegRealName    string
}

// NewClient creates a Client
func NewClient(s *Server, id uint64, conn net.Conn) *Client {
	return &Client{
		Conn: NewConn(conn, s.Config.DeadTime),

		// Buffered channel. We don't want to block sending to the client from
		// the server. The client may be stuck. Make the buffer large enough
		// that it should only max out in case of connection issues.
		WriteChan: make(chan irc.Message, sendQueueLength),

		ID:                  id,
		Server:              s,
		ConnectionStartTime: time.Now(),
	}
}

func (c *Client) String() string {
	return fmt.Sprintf("%d %s", c.ID, c.Conn.RemoteAddr())
}

// maybeQueueMessage queues a message to send to the client, unless its
// queue is full.
//
// Note: Only the server goroutine should call this (due to channel use).
func (c *Client) maybeQueueMessage(m irc.Message) {
	if c.SendQueueExceeded {
		return
	}

	select {
	case c.WriteChan <- m:
	default:
		c.SendQueueExceeded = true
	}
}

// readLoop endlessly reads from the client's TCP connection. It frames and
// parses each message and passes it to the server through the server's
// channel.
func (c *Client) readLoop() {
	defer c.Server.WG.Done()

	for {
		if c.Server.isShuttingDown() {
			break
		}

		line, err := c.Conn.ReadLine()
		if err != nil {
			log.Printf("Client %s: %s", c, err)
			c.Server.newEvent(Event{Type: DeadClientEvent, Client: c, Err: err})
			break
		}

		// Empty lines are fine. Skip them.
		if len(line) == 0 {
			continue
		}

		message, ok := parseMessage(line)
		if !ok {
			// Malformed frame. Drop it and carry on.
			log.Printf("Client %s: Dropping malformed line: %q", c, line)
			continue
		}

		messagesReceived.Inc()

		c.Server.newEvent(Event{
			Type:    MessageFromClientEvent,
			Client:  c,
			Message: message,
		})
	}

	log.Printf("Client %s: Reader shutting down.", c)
}

// writeLoop endlessly reads from the client's channel, encodes each
// message, and writes it to the client's TCP connection.
//
// The writer owns closing the connection: once the write channel closes,
// everything queued before the close has been flushed.
func (c *Client) writeLoop() {
	defer c.Server.WG.Done()

	for message := range c.WriteChan {
		if err := c.Conn.WriteMessage(message); err != nil {
			log.Printf("Client %s: %s", c, err)
			c.Server.newEvent(Event{Type: DeadClientEvent, Client: c, Err: err})
			break
		}
		messagesSent.Inc()
	}

	if err := c.Conn.Close(); err != nil {
		log.Printf("Client %s: Problem closing connection: %s", c, err)
	}

	log.Printf("Client %s: Writer shutting down.", c)
}

// Send an IRC message to a client. Appears to be from the server.
//
// Numeric replies name the client's nick ahead of any other argument.
// Before the client has a nick we leave it out entirely.
//
// Note: Only the server goroutine should call this (due to channel use).
func (c *Client) messageFromServer(command string, params []string) {
	if isNumericCommand(command) && len(c.PreRegDisplayNick) > 0 {
		newParams := []string{c.PreRegDisplayNick}
		newParams = append(newParams, params...)
		params = newParams
	}

	c.maybeQueueMessage(irc.Message{
		Command: command,
		Params:  params,
	})
}

// handleMessage takes action based on a message from an unregistered
// client. Only PASS, NICK, USER, and QUIT do anything at this stage.
func (c *Client) handleMessage(m irc.Message) {
	switch m.Command {
	case "PASS":
		c.passCommand(m)
	case "NICK":
		c.nickCommand(m)
	case "USER":
		c.userCommand(m)
	case "QUIT":
		c.quit("")
	default:
		// 451 ERR_NOTREGISTERED
		c.messageFromServer("451", []string{"You have not registered"})
	}
}

func (c *Client) passCommand(m irc.Message) {
	if len(m.Params) == 0 {
		// 461 ERR_NEEDMOREPARAMS
		c.messageFromServer("461", []string{"PASS", "Not enough parameters"})
		return
	}

	if m.Params[0] != c.Server.Password {
		// 464 ERR_PASSWDMISMATCH. Getting the password wrong costs the
		// connection.
		c.messageFromServer("464", []string{"Password incorrect"})
		c.quit("")
		return
	}

	c.PasswordValidated = true

	c.maybeCompleteRegistration()
}

func (c *Client) nickCommand(m irc.Message) {
	if len(m.Params) == 0 {
		// 431 ERR_NONICKNAMEGIVEN
		c.messageFromServer("431", []string{"No nickname given"})
		return
	}

	nick := m.Params[0]

	if !isValidNick(c.Server.Config.MaxNickLength, nick) {
		// 432 ERR_ERRONEUSNICKNAME
		c.messageFromServer("432", []string{nick, "Erroneous nickname"})
		return
	}

	canonical := canonicalizeNick(nick)

	if id, exists := c.Server.Nicks[canonical]; exists && id != c.ID {
		// 433 ERR_NICKNAMEINUSE
		c.messageFromServer("433", []string{nick, "Nickname is already in use"})
		return
	}

	// They may be picking a different nick before registration completes.
	// Free the old one.
	if len(c.PreRegDisplayNick) > 0 {
		delete(c.Server.Nicks, canonicalizeNick(c.PreRegDisplayNick))
	}

	c.Server.Nicks[canonical] = c.ID
	c.PreRegDisplayNick = nick

	c.maybeCompleteRegistration()
}

func (c *Client) userCommand(m irc.Message) {
	// USER is not acceptable until the connection password checked out.
	if !c.PasswordValidated {
		c.messageFromServer("464", []string{"Password incorrect"})
		return
	}

	if len(m.Params) < 4 {
		c.messageFromServer("461", []string{"USER", "Not enough parameters"})
		return
	}

	c.PreRegUser = m.Params[0]
	// Params 1 and 2 are mode and unused.
	c.PreRegRealName = m.Params[3]

	c.maybeCompleteRegistration()
}

// maybeCompleteRegistration promotes the client once PASS, NICK, and USER
// have all succeeded, in whatever order NICK and USER arrived.
func (c *Client) maybeCompleteRegistration() {
	if !c.PasswordValidated {
		return
	}
	if len(c.PreRegDisplayNick) == 0 || len(c.PreRegUser) == 0 {
		return
	}

	c.completeRegistration()
}

// completeRegistration promotes the client to a registered user and sends
// the welcome numerics, in order: 001, 002, 003, 004, 422.
func (c *Client) completeRegistration() {
	user := NewUserClient(c)

	// 001 RPL_WELCOME
	user.messageFromServer("001", []string{
		fmt.Sprintf("Welcome to the Internet Relay Network %s",
			user.nickUhost()),
	})

	// 002 RPL_YOURHOST
	user.messageFromServer("002", []string{
		fmt.Sprintf("Your host is %s, running version %s",
			c.Server.Config.ServerName,
			c.Server.Config.Version),
	})

	// 003 RPL_CREATED
	user.messageFromServer("003", []string{
		fmt.Sprintf("This server was created %s", c.Server.Config.CreatedDate),
	})

	// 004 RPL_MYINFO
	// <servername> <version> <available user modes> <available channel modes>
	user.messageFromServer("004", []string{
		c.Server.Config.ServerName,
		c.Server.Config.Version,
		"o",
		"o",
	})

	// 422 ERR_NOMOTD. There is no MOTD to offer.
	user.messageFromServer("422", []string{"MOTD File is missing"})

	delete(c.Server.Clients, c.ID)
	c.Server.Users[c.ID] = user

	log.Printf("Client %s registered as %s", c, user.DisplayNick)
}

// quit closes an unregistered client's connection, optionally sending a
// final ERROR with the reason first.
//
// Note: Only the server goroutine should call this (due to closing
// channel).
func (c *Client) quit(msg string) {
	if len(msg) > 0 {
		c.messageFromServer("ERROR", []string{msg})
	}

	// May have reserved a nick.
	if len(c.PreRegDisplayNick) > 0 {
		delete(c.Server.Nicks, canonicalizeNick(c.PreRegDisplayNick))
	}

	delete(c.Server.Clients, c.ID)

	c.destroy()
}

// destroy closes the client's write channel. The writer flushes what is
// queued and then closes the TCP connection, which in turn stops the
// reader.
func (c *Client) destroy() {
	close(c.WriteChan)
}
