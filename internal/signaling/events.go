package signaling

import (
	"encoding/json"
	"errors"
)

var (
	errEmptyEvent       = errors.New("event has no payload")
	errMultiplePayloads = errors.New("event has multiple payloads")
	errMissingField     = errors.New("event is missing a required field")
)

// ClientEvent is the envelope for events sent by a client. Exactly one of
// the payload fields is set; Validate rejects anything else before the
// event reaches the server loop.
type ClientEvent struct {
	Join   *Join   `json:"join,omitempty"`
	Leave  *Leave  `json:"leave,omitempty"`
	Signal *Signal `json:"signal,omitempty"`

	client *Client
}

type Join struct {
	ChannelId string `json:"channelId"`
	UserId    int    `json:"userId"`
}

type Leave struct {
	ChannelId string `json:"channelId"`
}

// Signal carries an opaque negotiation payload from one connection to
// another. To and From are connection ids.
type Signal struct {
	To   string          `json:"to"`
	From string          `json:"from"`
	Data json.RawMessage `json:"data"`
}

func (e *ClientEvent) Validate() error {
	var n int
	if e.Join != nil {
		n++
	}
	if e.Leave != nil {
		n++
	}
	if e.Signal != nil {
		n++
	}

	switch {
	case n == 0:
		return errEmptyEvent
	case n > 1:
		return errMultiplePayloads
	}

	switch {
	case e.Join != nil && (e.Join.ChannelId == "" || e.Join.UserId == 0):
		return errMissingField
	case e.Leave != nil && e.Leave.ChannelId == "":
		return errMissingField
	case e.Signal != nil && (e.Signal.To == "" || e.Signal.From == ""):
		return errMissingField
	}

	return nil
}

// ServerEvent is the envelope for events delivered to a client. Field names
// mirror the wire event names.
type ServerEvent struct {
	Connected  *Connected      `json:"connected,omitempty"`
	UserJoined *UserJoined     `json:"user-joined,omitempty"`
	UserLeft   *UserLeft       `json:"user-left,omitempty"`
	Signal     *SignalDelivery `json:"signal,omitempty"`
	VoiceUsers *VoiceUsers     `json:"voice-users,omitempty"`
}

// Connected tells a client its own connection id right after the
// transport handshake, so it can identify itself in signal payloads.
type Connected struct {
	SocketId string `json:"socketId"`
}

type UserJoined struct {
	UserId    int    `json:"userId"`
	SocketId  string `json:"socketId"`
	ChannelId string `json:"channelId"`
}

type UserLeft struct {
	UserId    int    `json:"userId"`
	SocketId  string `json:"socketId"`
	ChannelId string `json:"channelId"`
}

type SignalDelivery struct {
	From string          `json:"from"`
	Data json.RawMessage `json:"data"`
}

// VoiceUsers is the current roster of a room, broadcast to all members
// after every membership change.
type VoiceUsers struct {
	ChannelId string `json:"channelId"`
	UserIds   []int  `json:"userIds"`
}
