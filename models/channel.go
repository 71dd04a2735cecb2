package models

// ChannelState is the lifecycle state of the real-time update channel.
type ChannelState string

const (
	ChannelDisconnected ChannelState = "disconnected"
	ChannelConnecting   ChannelState = "connecting"
	ChannelConnected    ChannelState = "connected"
	ChannelReconnecting ChannelState = "reconnecting"
	ChannelExhausted    ChannelState = "exhausted"
	ChannelPolling      ChannelState = "polling"
)

// ChannelStatus is what the presentation layer shows about live updates.
type ChannelStatus struct {
	State ChannelState `json:"state"`
	// Attempt is the number of consecutive failed connection attempts.
	Attempt int `json:"attempt"`
	// Message is a user-facing description, e.g. "Reconnecting in 4s".
	Message string `json:"message,omitempty"`
	// Error is the last connection error, empty once a connection opens.
	Error string `json:"error,omitempty"`
}
