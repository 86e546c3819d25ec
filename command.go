package main

import (
	"strings"
	"time"

	"github.com/horgh/irc"
)

// handleMessage takes action based on a registered client's message.
func (u *UserClient) handleMessage(m irc.Message) {
	// Record that the client said something to us just now.
	u.LastActivityTime = time.Now()

	switch m.Command {
	case "PASS", "USER":
		// 462 ERR_ALREADYREGISTRED
		u.messageFromServer("462", []string{"You may not reregister"})
	case "NICK":
		u.nickCommand(m)
	case "JOIN":
		u.joinCommand(m)
	case "PART":
		u.partCommand(m)
	case "PRIVMSG":
		u.privmsgCommand(m)
	case "TOPIC":
		u.topicCommand(m)
	case "QUIT":
		msg := "Connection closed"
		if len(m.Params) > 0 && len(m.Params[0]) > 0 {
			msg = m.Params[0]
		}
		u.quit(msg)
	case "PING":
		u.pingCommand(m)
	case "PONG":
		// Nothing to do beyond noting the activity.
	case "CAP":
		// Non-RFC command that appears to be widely supported. Just ignore
		// it.
	default:
		// 421 ERR_UNKNOWNCOMMAND
		u.messageFromServer("421", []string{m.Command, "Unknown command"})
	}
}

// nickCommand renames the user. Validation matches pre-registration NICK;
// a successful rename is announced to everyone sharing a channel with the
// user, and to the user itself.
func (u *UserClient) nickCommand(m irc.Message) {
	if len(m.Params) == 0 {
		u.messageFromServer("431", []string{"No nickname given"})
		return
	}

	nick := m.Params[0]

	if !isValidNick(u.Server.Config.MaxNickLength, nick) {
		u.messageFromServer("432", []string{nick, "Erroneous nickname"})
		return
	}

	canonical := canonicalizeNick(nick)

	if id, exists := u.Server.Nicks[canonical]; exists {
		if id != u.ID {
			u.messageFromServer("433", []string{nick, "Nickname is already in use"})
			return
		}
		if nick == u.DisplayNick {
			// No change.
			return
		}
	}

	// The announcement carries the old identity.
	nickMessage := irc.Message{
		Prefix:  u.nickUhost(),
		Command: "NICK",
		Params:  []string{nick},
	}

	delete(u.Server.Nicks, canonicalizeNick(u.DisplayNick))
	u.Server.Nicks[canonical] = u.ID
	u.DisplayNick = nick

	toldClients := map[uint64]struct{}{u.ID: {}}
	u.maybeQueueMessage(nickMessage)

	for _, channel := range u.Channels {
		for _, member := range channel.membersInOrder(u.Server) {
			if _, exists := toldClients[member.ID]; exists {
				continue
			}

			member.maybeQueueMessage(nickMessage)
			toldClients[member.ID] = struct{}{}
		}
	}
}

func (u *UserClient) joinCommand(m irc.Message) {
	// NOTE: Difference from RFC 2812: We accept only one channel at a time.
	if len(m.Params) == 0 {
		u.messageFromServer("461", []string{"JOIN", "Not enough parameters"})
		return
	}

	channelName := m.Params[0]

	if !isValidChannel(channelName) {
		// 403 ERR_NOSUCHCHANNEL. Used to indicate the name is invalid too.
		u.messageFromServer("403", []string{channelName, "No such channel"})
		return
	}

	channel, exists := u.Server.Channels[channelName]
	if !exists {
		channel = NewChannel(channelName)
		u.Server.Channels[channelName] = channel
	}

	// A join for a channel they are already on changes nothing, but still
	// gets the broadcast and the replies below.
	channel.addMember(u)

	// Creating a channel makes the creator its first operator.
	if !exists {
		channel.grantOps(u.ID)
	}

	// Announce the join to everyone in the channel, the joiner included,
	// in join order.
	joinMessage := irc.Message{
		Prefix:  u.nickUhost(),
		Command: "JOIN",
		Params:  []string{channelName},
	}
	for _, member := range channel.membersInOrder(u.Server) {
		member.maybeQueueMessage(joinMessage)
	}

	// Then the topic and the names list, for the joiner only.
	if len(channel.Topic) > 0 {
		// 332 RPL_TOPIC
		u.messageFromServer("332", []string{channelName, channel.Topic})
	} else {
		// 331 RPL_NOTOPIC
		u.messageFromServer("331", []string{channelName, "No topic is set"})
	}

	// 353 RPL_NAMREPLY
	u.messageFromServer("353", []string{"=", channelName,
		channel.namesList(u.Server)})

	// 366 RPL_ENDOFNAMES
	u.messageFromServer("366", []string{channelName, "End of /NAMES list"})
}

func (u *UserClient) partCommand(m irc.Message) {
	if len(m.Params) == 0 {
		u.messageFromServer("461", []string{"PART", "Not enough parameters"})
		return
	}

	channelName := m.Params[0]

	channel, exists := u.Server.Channels[channelName]
	if !exists {
		u.messageFromServer("403", []string{channelName, "No such channel"})
		return
	}

	if !u.onChannel(channel) {
		// 442 ERR_NOTONCHANNEL
		u.messageFromServer("442", []string{channelName,
			"You're not on that channel"})
		return
	}

	params := []string{channelName}
	if len(m.Params) >= 2 && len(m.Params[1]) > 0 {
		params = append(params, m.Params[1])
	}

	// Everyone in the channel hears the part, the leaver included.
	for _, member := range channel.membersInOrder(u.Server) {
		u.messageClient(member, "PART", params)
	}

	channel.removeMember(u)

	// If they were the last member, the channel goes away.
	if len(channel.Members) == 0 {
		delete(u.Server.Channels, channel.Name)
	}
}

func (u *UserClient) privmsgCommand(m irc.Message) {
	if len(m.Params) < 2 {
		u.messageFromServer("461", []string{"PRIVMSG", "Not enough parameters"})
		return
	}

	target := m.Params[0]
	text := m.Params[1]

	if strings.HasPrefix(target, "#") {
		channel, exists := u.Server.Channels[target]
		if !exists {
			u.messageFromServer("403", []string{target, "No such channel"})
			return
		}

		// Everyone but the sender hears it.
		for _, member := range channel.membersInOrder(u.Server) {
			if member.ID == u.ID {
				continue
			}
			u.messageClient(member, "PRIVMSG", []string{target, text})
		}
		return
	}

	id, exists := u.Server.Nicks[canonicalizeNick(target)]
	if !exists {
		// 401 ERR_NOSUCHNICK
		u.messageFromServer("401", []string{target, "No such nick/channel"})
		return
	}

	to, exists := u.Server.Users[id]
	if !exists {
		// The nick is reserved by a connection that has not registered.
		u.messageFromServer("401", []string{target, "No such nick/channel"})
		return
	}

	u.messageClient(to, "PRIVMSG", []string{target, text})
}

func (u *UserClient) topicCommand(m irc.Message) {
	if len(m.Params) == 0 {
		u.messageFromServer("461", []string{"TOPIC", "Not enough parameters"})
		return
	}

	channelName := m.Params[0]

	channel, exists := u.Server.Channels[channelName]
	if !exists {
		u.messageFromServer("403", []string{channelName, "No such channel"})
		return
	}

	if !u.onChannel(channel) {
		u.messageFromServer("442", []string{channelName,
			"You're not on that channel"})
		return
	}

	// One parameter reads the topic.
	if len(m.Params) == 1 {
		if len(channel.Topic) > 0 {
			u.messageFromServer("332", []string{channelName, channel.Topic})
		} else {
			u.messageFromServer("331", []string{channelName, "No topic is set"})
		}
		return
	}

	// Two or more writes it, if allowed.
	if channel.TopicRestricted && !channel.hasOps(u.ID) {
		// 482 ERR_CHANOPRIVSNEEDED
		u.messageFromServer("482", []string{channelName,
			"You're not channel operator"})
		return
	}

	channel.Topic = m.Params[1]

	for _, member := range channel.membersInOrder(u.Server) {
		u.messageClient(member, "TOPIC", []string{channelName, channel.Topic})
	}
}

func (u *UserClient) pingCommand(m irc.Message) {
	if len(m.Params) == 0 {
		u.messageFromServer("461", []string{"PING", "Not enough parameters"})
		return
	}

	u.messageFromServer("PONG", []string{u.Server.Config.ServerName,
		m.Params[0]})
}
