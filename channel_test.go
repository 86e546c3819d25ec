package main

import (
	"testing"

	"github.com/horgh/irc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestModeString(t *testing.T) {
	tests := []struct {
		channel Channel
		output  string
	}{
		{
			Channel{},
			"+",
		},
		{
			Channel{TopicRestricted: true},
			"+t",
		},
		{
			Channel{InviteOnly: true},
			"+i",
		},
		{
			Channel{Password: "sekrit"},
			"+k sekrit",
		},
		{
			Channel{UserLimit: 5},
			"+l 5",
		},
		{
			Channel{
				InviteOnly:      true,
				TopicRestricted: true,
				Password:        "sekrit",
				UserLimit:       10,
			},
			"+itkl sekrit 10",
		},
		{
			Channel{TopicRestricted: true, UserLimit: 3},
			"+tl 3",
		},
	}

	for _, test := range tests {
		output := test.channel.modeString()
		if output != test.output {
			t.Errorf("modeString() = %s, wanted %s", output, test.output)
		}

		// Rendering is deterministic.
		if again := test.channel.modeString(); again != output {
			t.Errorf("modeString() = %s on second call, wanted %s", again, output)
		}
	}
}

func TestNewChannelDefaults(t *testing.T) {
	channel := NewChannel("#x")

	assert.Equal(t, "#x", channel.Name)
	assert.True(t, channel.TopicRestricted, "channels start out +t")
	assert.False(t, channel.InviteOnly)
	assert.Empty(t, channel.Password)
	assert.Zero(t, channel.UserLimit)
	assert.Equal(t, "+t", channel.modeString())
}

func TestMembership(t *testing.T) {
	channel := NewChannel("#x")

	alice := &UserClient{
		Client:      Client{ID: 1},
		DisplayNick: "alice",
		Channels:    make(map[string]*Channel),
	}
	bob := &UserClient{
		Client:      Client{ID: 2},
		DisplayNick: "bob",
		Channels:    make(map[string]*Channel),
	}

	channel.addMember(alice)
	channel.addMember(bob)

	// Adding twice changes nothing.
	channel.addMember(alice)

	require.Equal(t, []uint64{1, 2}, channel.Members)
	assert.True(t, channel.hasMember(1))
	assert.Equal(t, channel, alice.Channels["#x"])

	// Ops only attach to members.
	channel.grantOps(1)
	channel.grantOps(99)
	assert.True(t, channel.hasOps(1))
	assert.False(t, channel.hasOps(99))

	// The invite list has no such constraint.
	channel.invite(99)
	assert.True(t, channel.isInvited(99))
	assert.False(t, channel.isInvited(1))

	channel.removeMember(alice)
	assert.Equal(t, []uint64{2}, channel.Members)
	assert.False(t, channel.hasOps(1), "removal revokes ops")
	assert.NotContains(t, alice.Channels, "#x")

	// Removing a non-member is a no-op.
	channel.removeMember(alice)
	assert.Equal(t, []uint64{2}, channel.Members)
}

func TestNamesListOrdering(t *testing.T) {
	s := newTestServer()

	nicks := []string{"alice", "bob", "charlie"}
	for i, nick := range nicks {
		u := register(t, s, uint64(i), nick)
		u.handleMessage(irc.Message{Command: "JOIN", Params: []string{"#r"}})
	}

	channel := s.Channels["#r"]
	require.NotNil(t, channel)

	assert.Equal(t, "@alice bob charlie ", channel.namesList(s))

	// A member the server no longer knows is skipped rather than breaking
	// the listing.
	s.Users[1].quit("Connection closed")
	assert.Equal(t, "@alice charlie ", channel.namesList(s))
}
