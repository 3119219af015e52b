package database

import (
	"github.com/stretchr/testify/mock"
)

type MockAuraRepository struct {
	mock.Mock
}

func (m *MockAuraRepository) Ping() error {
	args := m.Called()
	return args.Error(0)
}
func (m *MockAuraRepository) CreateAccount(params CreateAccountParams) (User, error) {
	args := m.Called(params)
	return args.Get(0).(User), args.Error(1)
}
func (m *MockAuraRepository) GetAccountById(accountId int) (User, error) {
	args := m.Called(accountId)
	return args.Get(0).(User), args.Error(1)
}
func (m *MockAuraRepository) GetAccountByEmail(email string) (User, error) {
	args := m.Called(email)
	return args.Get(0).(User), args.Error(1)
}
func (m *MockAuraRepository) UpdateAccountStatus(accountId int, status string) error {
	args := m.Called(accountId, status)
	return args.Error(0)
}
func (m *MockAuraRepository) CreateServer(params CreateServerParams) (Server, error) {
	args := m.Called(params)
	return args.Get(0).(Server), args.Error(1)
}
func (m *MockAuraRepository) GetServerByExternalId(externalId string) (Server, error) {
	args := m.Called(externalId)
	return args.Get(0).(Server), args.Error(1)
}
func (m *MockAuraRepository) ListServersForAccount(accountId int) ([]Server, error) {
	args := m.Called(accountId)
	return args.Get(0).([]Server), args.Error(1)
}
func (m *MockAuraRepository) DeleteServer(id int) error {
	args := m.Called(id)
	return args.Error(0)
}
func (m *MockAuraRepository) AddServerMember(serverId, accountId int) error {
	args := m.Called(serverId, accountId)
	return args.Error(0)
}
func (m *MockAuraRepository) CreateChannel(params CreateChannelParams) (Channel, error) {
	args := m.Called(params)
	return args.Get(0).(Channel), args.Error(1)
}
func (m *MockAuraRepository) GetChannelByExternalId(externalId string) (Channel, error) {
	args := m.Called(externalId)
	return args.Get(0).(Channel), args.Error(1)
}
func (m *MockAuraRepository) ListChannels(serverId int) ([]Channel, error) {
	args := m.Called(serverId)
	return args.Get(0).([]Channel), args.Error(1)
}
func (m *MockAuraRepository) CreateMessage(msg Message) (Message, error) {
	args := m.Called(msg)
	return args.Get(0).(Message), args.Error(1)
}
func (m *MockAuraRepository) GetMessages(channelId, before, limit int) ([]Message, error) {
	args := m.Called(channelId, before, limit)
	return args.Get(0).([]Message), args.Error(1)
}
func (m *MockAuraRepository) CreateInvitation(params CreateInvitationParams) (Invitation, error) {
	args := m.Called(params)
	return args.Get(0).(Invitation), args.Error(1)
}
func (m *MockAuraRepository) GetInvitationByToken(token string) (Invitation, error) {
	args := m.Called(token)
	return args.Get(0).(Invitation), args.Error(1)
}
func (m *MockAuraRepository) AcceptInvitation(id int) error {
	args := m.Called(id)
	return args.Error(0)
}
func (m *MockAuraRepository) JoinVoiceChannel(accountId, channelId int) (VoiceState, error) {
	args := m.Called(accountId, channelId)
	return args.Get(0).(VoiceState), args.Error(1)
}
func (m *MockAuraRepository) UpdateVoiceState(accountId int, muted, deafened bool) (VoiceState, error) {
	args := m.Called(accountId, muted, deafened)
	return args.Get(0).(VoiceState), args.Error(1)
}
func (m *MockAuraRepository) LeaveVoiceChannel(accountId int) error {
	args := m.Called(accountId)
	return args.Error(0)
}
func (m *MockAuraRepository) GetVoiceStates(channelId int) ([]VoiceState, error) {
	args := m.Called(channelId)
	return args.Get(0).([]VoiceState), args.Error(1)
}
