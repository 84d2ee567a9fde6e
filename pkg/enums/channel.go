package enums

import "fmt"

// Channel identifies a customer notification delivery channel.
type Channel string

const (
	ChannelEmail Channel = "email"
	ChannelChat  Channel = "chat"
)

var validChannels = []Channel{
	ChannelEmail,
	ChannelChat,
}

// IsValid checks whether the given channel matches the canonical enum.
func (c Channel) IsValid() bool {
	for _, candidate := range validChannels {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseChannel converts raw strings into Channel.
func ParseChannel(value string) (Channel, error) {
	for _, candidate := range validChannels {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid channel %q", value)
}

// DefaultChannels is the standard fan-out order: email first, chat second.
func DefaultChannels() []Channel {
	return []Channel{ChannelEmail, ChannelChat}
}
