package database

import "time"

type User struct {
	Id           int
	Username     string
	EmailAddress string
	PasswordHash string
	Status       string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type Server struct {
	Id          int
	ExternalId  string
	Name        string
	Description string
	OwnerId     int
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type Channel struct {
	Id         int
	ExternalId string
	ServerId   int
	Name       string
	Kind       string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

type Message struct {
	Id        int
	ChannelId int
	UserId    int
	Content   string
	CreatedAt time.Time
}

type Invitation struct {
	Id        int
	Token     string
	ServerId  int
	Email     string
	Accepted  bool
	ExpiresAt time.Time
	CreatedAt time.Time
}

type VoiceState struct {
	UserId    int
	ChannelId int
	Muted     bool
	Deafened  bool
	UpdatedAt time.Time
}

type CreateAccountParams struct {
	Username     string
	EmailAddress string
	PasswordHash string
}

type CreateServerParams struct {
	Name        string
	Description string
	OwnerId     int
	ExternalId  string
}

type CreateChannelParams struct {
	ServerId   int
	Name       string
	Kind       string
	ExternalId string
}

type CreateInvitationParams struct {
	Token     string
	ServerId  int
	Email     string
	ExpiresAt time.Time
}
