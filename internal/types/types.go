package types

import (
	"time"
)

const (
	StatusOnline  = "online"
	StatusOffline = "offline"
)

const (
	ChannelKindText  = "text"
	ChannelKindVoice = "voice"
)

type User struct {
	Id           int       `json:"id"`
	Username     string    `json:"username"`
	EmailAddress string    `json:"email_address,omitempty"`
	Status       string    `json:"status,omitempty"`
	Password     string    `json:"-"`
	CreatedAt    time.Time `json:"created_at,omitempty"`
	UpdatedAt    time.Time `json:"updated_at,omitempty"`
}

type Server struct {
	Id          int       `json:"id"`
	ExternalId  string    `json:"external_id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	OwnerId     int       `json:"owner_id"`
	Channels    []Channel `json:"channels,omitempty"`
	CreatedAt   time.Time `json:"created_at,omitempty"`
	UpdatedAt   time.Time `json:"updated_at,omitempty"`
}

type Channel struct {
	Id         int       `json:"id"`
	ExternalId string    `json:"external_id"`
	ServerId   int       `json:"server_id"`
	Name       string    `json:"name"`
	Kind       string    `json:"kind"`
	CreatedAt  time.Time `json:"created_at,omitempty"`
	UpdatedAt  time.Time `json:"updated_at,omitempty"`
}

type Message struct {
	Id        int       `json:"id"`
	ChannelId int       `json:"channel_id"`
	UserId    int       `json:"user_id"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

type Invitation struct {
	Id        int       `json:"id"`
	Token     string    `json:"token"`
	ServerId  int       `json:"server_id"`
	Email     string    `json:"email"`
	Accepted  bool      `json:"accepted"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at,omitempty"`
}

// VoiceState is the durable record of a user's voice channel occupancy.
// A user occupies at most one voice channel at a time.
type VoiceState struct {
	UserId    int       `json:"user_id"`
	ChannelId int       `json:"channel_id"`
	Muted     bool      `json:"muted"`
	Deafened  bool      `json:"deafened"`
	UpdatedAt time.Time `json:"updated_at,omitempty"`
}
