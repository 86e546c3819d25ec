package main

import (
	"fmt"
	"time"

	"github.com/horgh/irc"
)

// UserClient holds information relevant only to a client that completed
// registration.
type UserClient struct {
	Client

	// Nick. Not canonicalized.
	DisplayNick string

	// Sent by USER command
	User string

	// Sent by USER command
	RealName string

	// Channel name to Channel for each channel the user is in.
	Channels map[string]*Channel

	// The last time we heard anything from the client.
	LastActivityTime time.Time

	// The last time we sent the client a PING.
	LastPingTime time.Time
}

// NewUserClient makes a UserClient from a Client.
func NewUserClient(c *Client) *UserClient {
	now := time.Now()

	return &UserClient{
		Client: *c,

		DisplayNick:      c.PreRegDisplayNick,
		User:             c.PreRegUser,
		RealName:         c.PreRegRealName,
		Channels:         make(map[string]*Channel),
		LastActivityTime: now,
		LastPingTime:     now,
	}
}

func (u *UserClient) String() string {
	return fmt.Sprintf("%d: %s", u.ID, u.nickUhost())
}

// nickUhost makes the nick!user@host prefix we put on messages from this
// user. We don't resolve or reveal addresses; every user is at the
// literal "host".
func (u *UserClient) nickUhost() string {
	return fmt.Sprintf("%s!%s@host", u.DisplayNick, u.User)
}

func (u *UserClient) onChannel(channel *Channel) bool {
	_, exists := u.Channels[channel.Name]
	return exists
}

// Send an IRC message to the user. Appears to be from the server.
//
// Note: Only the server goroutine should call this (due to channel use).
func (u *UserClient) messageFromServer(command string, params []string) {
	// Numeric replies name the client's nick ahead of any other argument.
	if isNumericCommand(command) {
		newParams := []string{u.DisplayNick}
		newParams = append(newParams, params...)
		params = newParams
	}

	u.maybeQueueMessage(irc.Message{
		Command: command,
		Params:  params,
	})
}

// Send an IRC message to a client from this user. The server does the
// sending, but it appears to come from the user through the prefix.
//
// Note: Only the server goroutine should call this (due to channel use).
func (u *UserClient) messageClient(to *UserClient, command string,
	params []string) {
	to.maybeQueueMessage(irc.Message{
		Prefix:  u.nickUhost(),
		Command: command,
		Params:  params,
	})
}

// quit removes the user from the server, propagating a QUIT to every
// channel it is in.
//
// Note: Only the server goroutine should call this (due to closing
// channel).
func (u *UserClient) quit(msg string) {
	quitMessage := irc.Message{
		Prefix:  u.nickUhost(),
		Command: "QUIT",
		Params:  []string{msg},
	}

	// Tell each client sharing a channel with the user exactly once. The
	// user itself is still on every roster at this point, so it hears the
	// QUIT too.
	toldClients := map[uint64]struct{}{}

	for _, channel := range u.Channels {
		// The roster snapshot matters: removal below mutates it.
		for _, member := range channel.membersInOrder(u.Server) {
			if _, exists := toldClients[member.ID]; exists {
				continue
			}

			member.maybeQueueMessage(quitMessage)
			toldClients[member.ID] = struct{}{}
		}

		channel.removeMember(u)

		// If they were the last member, the channel goes away.
		if len(channel.Members) == 0 {
			delete(u.Server.Channels, channel.Name)
		}
	}

	// The nick becomes available again.
	delete(u.Server.Nicks, canonicalizeNick(u.DisplayNick))
	delete(u.Server.Users, u.ID)

	if len(msg) > 0 {
		u.messageFromServer("ERROR", []string{msg})
	}

	u.destroy()
}
