package main

import (
	"fmt"
	"strings"
)

// Channel holds everything to do with a channel.
type Channel struct {
	// Name is case sensitive and immutable after creation.
	Name string

	// Current topic. May be blank.
	Topic string

	// Channel key (+k). Blank means none.
	Password string

	// Members in join order, by connection id. The order drives the NAMES
	// reply and the order broadcasts fan out in.
	Members []uint64

	// Ops tracks members who have operator status in the channel.
	Ops map[uint64]struct{}

	// Invited tracks clients eligible to join while the channel is +i.
	// Unlike Ops, entries need not be members.
	Invited map[uint64]struct{}

	// Member cap (+l). 0 means unlimited.
	UserLimit int

	// +i
	InviteOnly bool

	// +t. Channels start out with the topic restricted to operators.
	TopicRestricted bool
}

// NewChannel creates a Channel.
func NewChannel(name string) *Channel {
	return &Channel{
		Name:            name,
		Ops:             make(map[uint64]struct{}),
		Invited:         make(map[uint64]struct{}),
		TopicRestricted: true,
	}
}

func (c *Channel) hasMember(id uint64) bool {
	for _, member := range c.Members {
		if member == id {
			return true
		}
	}
	return false
}

// addMember appends the user to the roster and records the membership on
// the user. Membership is always recorded on both sides or neither.
func (c *Channel) addMember(u *UserClient) {
	if c.hasMember(u.ID) {
		return
	}

	c.Members = append(c.Members, u.ID)
	u.Channels[c.Name] = c
}

// removeMember removes the user from the roster and the operator set, and
// the channel from the user.
func (c *Channel) removeMember(u *UserClient) {
	for i, member := range c.Members {
		if member == u.ID {
			c.Members = append(c.Members[:i], c.Members[i+1:]...)
			break
		}
	}

	delete(c.Ops, u.ID)
	delete(u.Channels, c.Name)
}

// grantOps gives a member operator status. Only members can hold ops.
func (c *Channel) grantOps(id uint64) {
	if !c.hasMember(id) {
		return
	}
	c.Ops[id] = struct{}{}
}

// Check if a user has operator status in the channel.
func (c *Channel) hasOps(id uint64) bool {
	_, exists := c.Ops[id]
	return exists
}

func (c *Channel) invite(id uint64) {
	c.Invited[id] = struct{}{}
}

func (c *Channel) isInvited(id uint64) bool {
	_, exists := c.Invited[id]
	return exists
}

// membersInOrder resolves the roster against the server's user table, in
// join order. The result is a snapshot; callers may remove members while
// iterating it. An id with no user behind it means the user is already
// gone, and is skipped.
func (c *Channel) membersInOrder(s *Server) []*UserClient {
	members := make([]*UserClient, 0, len(c.Members))

	for _, id := range c.Members {
		user, exists := s.Users[id]
		if !exists {
			continue
		}
		members = append(members, user)
	}

	return members
}

// namesList builds the 353 payload: each member in join order, operators
// marked with @, every name followed by a space.
func (c *Channel) namesList(s *Server) string {
	var sb strings.Builder

	for _, member := range c.membersInOrder(s) {
		if c.hasOps(member.ID) {
			sb.WriteByte('@')
		}
		sb.WriteString(member.DisplayNick)
		sb.WriteByte(' ')
	}

	return sb.String()
}

// modeString renders the channel's modes: letters in the fixed order
// i, t, k, l, then any parameters, space separated.
func (c *Channel) modeString() string {
	modes := "+"
	params := ""

	if c.InviteOnly {
		modes += "i"
	}

	if c.TopicRestricted {
		modes += "t"
	}

	if len(c.Password) > 0 {
		modes += "k"
		params += " " + c.Password
	}

	if c.UserLimit > 0 {
		modes += "l"
		params += fmt.Sprintf(" %d", c.UserLimit)
	}

	return modes + params
}
