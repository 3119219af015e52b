package database

type AuraRepository interface {
	Ping() error
	CreateAccount(params CreateAccountParams) (User, error)
	GetAccountById(accountId int) (User, error)
	GetAccountByEmail(email string) (User, error)
	UpdateAccountStatus(accountId int, status string) error
	CreateServer(params CreateServerParams) (Server, error)
	GetServerByExternalId(externalId string) (Server, error)
	ListServersForAccount(accountId int) ([]Server, error)
	DeleteServer(id int) error
	AddServerMember(serverId, accountId int) error
	CreateChannel(params CreateChannelParams) (Channel, error)
	GetChannelByExternalId(externalId string) (Channel, error)
	ListChannels(serverId int) ([]Channel, error)
	CreateMessage(msg Message) (Message, error)
	GetMessages(channelId, before, limit int) ([]Message, error)
	CreateInvitation(params CreateInvitationParams) (Invitation, error)
	GetInvitationByToken(token string) (Invitation, error)
	AcceptInvitation(id int) error
	JoinVoiceChannel(accountId, channelId int) (VoiceState, error)
	LeaveVoiceChannel(accountId int) error
	UpdateVoiceState(accountId int, muted, deafened bool) (VoiceState, error)
	GetVoiceStates(channelId int) ([]VoiceState, error)
}
