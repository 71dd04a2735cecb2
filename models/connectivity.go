package models

import "time"

// ConnectivityState is the cached reachability of the remote server.
type ConnectivityState string

const (
	// ConnectivityUnknown is held from construction until the first probe
	// resolves.
	ConnectivityUnknown ConnectivityState = "unknown"
	ConnectivityOnline  ConnectivityState = "online"
	ConnectivityOffline ConnectivityState = "offline"
)

// ConnectivityEvent describes a single state transition.
type ConnectivityEvent struct {
	Previous ConnectivityState `json:"previous"`
	Current  ConnectivityState `json:"current"`
	At       time.Time         `json:"at"`
}
