package api

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/aurachat/aura/internal/config"
	"github.com/aurachat/aura/internal/database"
	"github.com/aurachat/aura/internal/signaling"
	"github.com/aurachat/aura/internal/stats"
	"github.com/aurachat/aura/internal/testutil"
	"github.com/aurachat/aura/internal/types"
)

func newTestApp(t *testing.T, repo database.AuraRepository) *AuraApp {
	t.Helper()

	su := &stats.MockStatsUpdater{}
	su.On("RegisterMetric", mock.Anything).Maybe()

	gw := signaling.NewGateway(testutil.TestLogger(t), "/api/socket", nil, su)
	cfg := &config.Config{
		SigningKey:     []byte("test-signing-key"),
		AllowedOrigins: []string{"http://localhost:3000"},
	}

	return NewAuraApp(http.NewServeMux(), testutil.TestLogger(t), gw, repo, cfg)
}

func jsonBody(t *testing.T, v any) *bytes.Buffer {
	t.Helper()
	buf := &bytes.Buffer{}
	if s, ok := v.(string); ok {
		buf.WriteString(s)
		return buf
	}
	assert.NoError(t, json.NewEncoder(buf).Encode(v))
	return buf
}

// findCookie is a helper function to find a cookie by name in the response
// recorder. It returns the cookie if found, or nil if not found.
func findCookie(rr *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, cookie := range rr.Result().Cookies() {
		if cookie.Name == name {
			return cookie
		}
	}
	return nil
}

func TestCreateAccountHandler(t *testing.T) {
	expectedUser := database.User{
		Id:           1,
		Username:     "newuser",
		EmailAddress: "newuser@example.com",
		PasswordHash: "hashedpassword",
		Status:       types.StatusOffline,
	}

	tcases := []struct {
		name        string
		body        any
		mockErr     error
		expectedErr *ApiError
	}{
		{
			name: "successfully creates a new account",
			body: RegisterRequest{
				Username: expectedUser.Username,
				Email:    expectedUser.EmailAddress,
				Password: "password",
			},
		},
		{
			name:        "fails with invalid json body",
			body:        "invalid json",
			expectedErr: NewBadRequestError(),
		},
		{
			name: "fails with missing username",
			body: RegisterRequest{
				Email:    expectedUser.EmailAddress,
				Password: "password",
			},
			expectedErr: NewBadRequestError(),
		},
		{
			name: "fails with duplicate email",
			body: RegisterRequest{
				Username: expectedUser.Username,
				Email:    expectedUser.EmailAddress,
				Password: "password",
			},
			mockErr:     &pq.Error{Code: "23505"},
			expectedErr: NewConflictError(),
		},
		{
			name: "fails with db error",
			body: RegisterRequest{
				Username: expectedUser.Username,
				Email:    expectedUser.EmailAddress,
				Password: "password",
			},
			mockErr:     errors.New("db error"),
			expectedErr: NewInternalServerError(nil),
		},
	}

	for _, tc := range tcases {
		t.Run(tc.name, func(t *testing.T) {
			mockRepo := &database.MockAuraRepository{}
			defer mockRepo.AssertExpectations(t)

			if regReq, ok := tc.body.(RegisterRequest); ok && regReq.Username != "" {
				mockUser := expectedUser
				if tc.mockErr != nil {
					mockUser = database.User{}
				}
				mockRepo.On("CreateAccount", mock.MatchedBy(func(params database.CreateAccountParams) bool {
					return params.Username == regReq.Username &&
						params.EmailAddress == regReq.Email &&
						verifyPassword(params.PasswordHash, regReq.Password)
				})).Return(mockUser, tc.mockErr).Once()
			}

			app := newTestApp(t, mockRepo)
			rr := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/api/auth/register", jsonBody(t, tc.body))
			app.createAccount(rr, req)

			if tc.expectedErr != nil {
				assert.Equal(t, tc.expectedErr.StatusCode, rr.Code)
				return
			}

			assert.Equal(t, http.StatusCreated, rr.Code)

			var user types.User
			assert.NoError(t, json.NewDecoder(rr.Body).Decode(&user))
			assert.Equal(t, expectedUser.Username, user.Username)
			assert.Equal(t, expectedUser.EmailAddress, user.EmailAddress)
		})
	}
}

func TestLoginHandler(t *testing.T) {
	pwdHash, err := hashPassword("password")
	assert.NoError(t, err)

	dbUser := database.User{
		Id:           1,
		Username:     "testuser",
		EmailAddress: "testuser@example.com",
		PasswordHash: pwdHash,
		Status:       types.StatusOffline,
	}

	tcases := []struct {
		name        string
		body        any
		mockErr     error
		setsOnline  bool
		expectedErr *ApiError
	}{
		{
			name:       "successful login marks account online",
			body:       LoginRequest{Email: dbUser.EmailAddress, Password: "password"},
			setsOnline: true,
		},
		{
			name:        "fails with invalid json body",
			body:        "invalid json",
			expectedErr: NewBadRequestError(),
		},
		{
			name:        "fails with missing password",
			body:        LoginRequest{Email: dbUser.EmailAddress},
			expectedErr: NewBadRequestError(),
		},
		{
			name:        "fails with unknown account",
			body:        LoginRequest{Email: "nobody@example.com", Password: "password"},
			mockErr:     sql.ErrNoRows,
			expectedErr: NewNotFoundError(),
		},
		{
			name:        "fails with wrong password",
			body:        LoginRequest{Email: dbUser.EmailAddress, Password: "wrong"},
			expectedErr: NewUnauthorizedError(),
		},
	}

	for _, tc := range tcases {
		t.Run(tc.name, func(t *testing.T) {
			mockRepo := &database.MockAuraRepository{}
			defer mockRepo.AssertExpectations(t)

			if lr, ok := tc.body.(LoginRequest); ok && lr.Email != "" && lr.Password != "" {
				if tc.mockErr != nil {
					mockRepo.On("GetAccountByEmail", lr.Email).Return(database.User{}, tc.mockErr).Once()
				} else {
					mockRepo.On("GetAccountByEmail", lr.Email).Return(dbUser, nil).Once()
				}
			}
			if tc.setsOnline {
				mockRepo.On("UpdateAccountStatus", dbUser.Id, types.StatusOnline).Return(nil).Once()
			}

			app := newTestApp(t, mockRepo)
			rr := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/api/auth/login", jsonBody(t, tc.body))
			app.login(rr, req)

			if tc.expectedErr != nil {
				assert.Equal(t, tc.expectedErr.StatusCode, rr.Code)
				assert.Nil(t, findCookie(rr, tokenCookieKey), "expected no session cookie on failure")
				return
			}

			assert.Equal(t, http.StatusOK, rr.Code)

			cookie := findCookie(rr, tokenCookieKey)
			if assert.NotNil(t, cookie, "expected session cookie") {
				userId, err := app.extractUserIdFromToken(cookie.Value)
				assert.NoError(t, err)
				assert.Equal(t, dbUser.Id, userId)
			}

			var user types.User
			assert.NoError(t, json.NewDecoder(rr.Body).Decode(&user))
			assert.Equal(t, types.StatusOnline, user.Status)
		})
	}
}

func TestLogoutHandler(t *testing.T) {
	mockRepo := &database.MockAuraRepository{}
	defer mockRepo.AssertExpectations(t)

	mockRepo.On("UpdateAccountStatus", 1, types.StatusOffline).Return(nil).Once()

	app := newTestApp(t, mockRepo)
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/auth/logout", nil)
	req = req.WithContext(WithUserId(req.Context(), 1))
	app.logout(rr, req)

	assert.Equal(t, http.StatusNoContent, rr.Code)

	cookie := findCookie(rr, tokenCookieKey)
	if assert.NotNil(t, cookie, "expected expired session cookie") {
		assert.Empty(t, cookie.Value)
		assert.True(t, cookie.Expires.Before(time.Now()), "expected cookie to be expired")
	}
}

func TestLogoutHandler_NoSession(t *testing.T) {
	mockRepo := &database.MockAuraRepository{}
	defer mockRepo.AssertExpectations(t)

	app := newTestApp(t, mockRepo)
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/auth/logout", nil)
	app.logout(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestCreateServerHandler(t *testing.T) {
	expectedServer := database.Server{
		Id:          1,
		ExternalId:  "srv-abc",
		Name:        "testserver",
		Description: "a test server",
		OwnerId:     1,
	}

	tcases := []struct {
		name        string
		body        any
		userId      int
		shortIdErr  error
		mockErr     error
		expectedErr *ApiError
	}{
		{
			name:   "successfully creates a server",
			body:   CreateServerRequest{Name: expectedServer.Name, Description: expectedServer.Description},
			userId: 1,
		},
		{
			name:        "fails with missing name",
			body:        CreateServerRequest{Description: "no name"},
			userId:      1,
			expectedErr: NewBadRequestError(),
		},
		{
			name:        "fails without session",
			body:        CreateServerRequest{Name: expectedServer.Name},
			expectedErr: NewUnauthorizedError(),
		},
		{
			name:        "fails when id generation fails",
			body:        CreateServerRequest{Name: expectedServer.Name},
			userId:      1,
			shortIdErr:  errors.New("entropy exhausted"),
			expectedErr: NewInternalServerError(nil),
		},
		{
			name:        "fails with db error",
			body:        CreateServerRequest{Name: expectedServer.Name},
			userId:      1,
			mockErr:     errors.New("db error"),
			expectedErr: NewInternalServerError(nil),
		},
	}

	for _, tc := range tcases {
		t.Run(tc.name, func(t *testing.T) {
			mockRepo := &database.MockAuraRepository{}
			defer mockRepo.AssertExpectations(t)

			app := newTestApp(t, mockRepo)
			app.generateShortId = func() (string, error) {
				return expectedServer.ExternalId, tc.shortIdErr
			}

			if req, ok := tc.body.(CreateServerRequest); ok && req.Name != "" && tc.userId != 0 && tc.shortIdErr == nil {
				mockRepo.On("CreateServer", database.CreateServerParams{
					Name:        req.Name,
					Description: req.Description,
					OwnerId:     tc.userId,
					ExternalId:  expectedServer.ExternalId,
				}).Return(expectedServer, tc.mockErr).Once()
			}

			rr := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/api/servers", jsonBody(t, tc.body))
			if tc.userId != 0 {
				req = req.WithContext(WithUserId(req.Context(), tc.userId))
			}
			app.createServer(rr, req)

			if tc.expectedErr != nil {
				assert.Equal(t, tc.expectedErr.StatusCode, rr.Code)
				return
			}

			assert.Equal(t, http.StatusCreated, rr.Code)

			var srv types.Server
			assert.NoError(t, json.NewDecoder(rr.Body).Decode(&srv))
			assert.Equal(t, expectedServer.ExternalId, srv.ExternalId)
			assert.Equal(t, expectedServer.OwnerId, srv.OwnerId)
		})
	}
}

func TestCreateChannelHandler(t *testing.T) {
	server := database.Server{Id: 1, ExternalId: "srv-abc", OwnerId: 1}

	tcases := []struct {
		name         string
		body         CreateChannelRequest
		userId       int
		expectedKind string
		expectedErr  *ApiError
	}{
		{
			name:         "creates a text channel by default",
			body:         CreateChannelRequest{ServerId: server.ExternalId, Name: "general"},
			userId:       1,
			expectedKind: types.ChannelKindText,
		},
		{
			name:         "creates a voice channel",
			body:         CreateChannelRequest{ServerId: server.ExternalId, Name: "lounge", Kind: types.ChannelKindVoice},
			userId:       1,
			expectedKind: types.ChannelKindVoice,
		},
		{
			name:        "rejects an unknown kind",
			body:        CreateChannelRequest{ServerId: server.ExternalId, Name: "general", Kind: "video"},
			userId:      1,
			expectedErr: NewBadRequestError(),
		},
		{
			name:        "rejects a non-owner",
			body:        CreateChannelRequest{ServerId: server.ExternalId, Name: "general"},
			userId:      2,
			expectedErr: NewForbiddenError(),
		},
	}

	for _, tc := range tcases {
		t.Run(tc.name, func(t *testing.T) {
			mockRepo := &database.MockAuraRepository{}
			defer mockRepo.AssertExpectations(t)

			app := newTestApp(t, mockRepo)
			app.generateShortId = func() (string, error) { return "chan-xyz", nil }

			if tc.expectedErr == nil || tc.expectedErr.StatusCode == http.StatusForbidden {
				mockRepo.On("GetServerByExternalId", server.ExternalId).Return(server, nil).Once()
			}
			if tc.expectedErr == nil {
				params := database.CreateChannelParams{
					ServerId:   server.Id,
					Name:       tc.body.Name,
					Kind:       tc.expectedKind,
					ExternalId: "chan-xyz",
				}
				mockRepo.On("CreateChannel", params).Return(database.Channel{
					Id:         1,
					ExternalId: params.ExternalId,
					ServerId:   params.ServerId,
					Name:       params.Name,
					Kind:       params.Kind,
				}, nil).Once()
			}

			rr := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/api/channels", jsonBody(t, tc.body))
			req = req.WithContext(WithUserId(req.Context(), tc.userId))
			app.createChannel(rr, req)

			if tc.expectedErr != nil {
				assert.Equal(t, tc.expectedErr.StatusCode, rr.Code)
				return
			}

			assert.Equal(t, http.StatusCreated, rr.Code)

			var ch types.Channel
			assert.NoError(t, json.NewDecoder(rr.Body).Decode(&ch))
			assert.Equal(t, tc.expectedKind, ch.Kind)
		})
	}
}

func TestJoinVoiceHandler(t *testing.T) {
	voiceChannel := database.Channel{Id: 5, ExternalId: "voice-1", Kind: types.ChannelKindVoice}
	textChannel := database.Channel{Id: 6, ExternalId: "text-1", Kind: types.ChannelKindText}

	tcases := []struct {
		name        string
		body        any
		channel     database.Channel
		channelErr  error
		joinErr     error
		expectedErr *ApiError
	}{
		{
			name:    "joins a voice channel",
			body:    VoiceChannelRequest{ChannelId: voiceChannel.ExternalId},
			channel: voiceChannel,
		},
		{
			name:        "rejects a text channel",
			body:        VoiceChannelRequest{ChannelId: textChannel.ExternalId},
			channel:     textChannel,
			expectedErr: NewBadRequestError(),
		},
		{
			name:        "fails with unknown channel",
			body:        VoiceChannelRequest{ChannelId: "missing"},
			channelErr:  sql.ErrNoRows,
			expectedErr: NewNotFoundError(),
		},
		{
			name:        "fails with invalid json body",
			body:        "invalid json",
			expectedErr: NewBadRequestError(),
		},
		{
			name:        "fails with db error",
			body:        VoiceChannelRequest{ChannelId: voiceChannel.ExternalId},
			channel:     voiceChannel,
			joinErr:     errors.New("db error"),
			expectedErr: NewInternalServerError(nil),
		},
	}

	for _, tc := range tcases {
		t.Run(tc.name, func(t *testing.T) {
			mockRepo := &database.MockAuraRepository{}
			defer mockRepo.AssertExpectations(t)

			if vr, ok := tc.body.(VoiceChannelRequest); ok {
				if tc.channelErr != nil {
					mockRepo.On("GetChannelByExternalId", vr.ChannelId).Return(database.Channel{}, tc.channelErr).Once()
				} else {
					mockRepo.On("GetChannelByExternalId", vr.ChannelId).Return(tc.channel, nil).Once()
				}
			}
			if tc.channel.Kind == types.ChannelKindVoice {
				mockRepo.On("JoinVoiceChannel", 1, tc.channel.Id).Return(database.VoiceState{
					UserId:    1,
					ChannelId: tc.channel.Id,
				}, tc.joinErr).Once()
			}

			app := newTestApp(t, mockRepo)
			rr := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/api/voice/join", jsonBody(t, tc.body))
			req = req.WithContext(WithUserId(req.Context(), 1))
			app.joinVoice(rr, req)

			if tc.expectedErr != nil {
				assert.Equal(t, tc.expectedErr.StatusCode, rr.Code)
				return
			}

			assert.Equal(t, http.StatusOK, rr.Code)

			var vs types.VoiceState
			assert.NoError(t, json.NewDecoder(rr.Body).Decode(&vs))
			assert.Equal(t, 1, vs.UserId)
			assert.Equal(t, tc.channel.Id, vs.ChannelId)
		})
	}
}

func TestLeaveVoiceHandler(t *testing.T) {
	mockRepo := &database.MockAuraRepository{}
	defer mockRepo.AssertExpectations(t)

	mockRepo.On("LeaveVoiceChannel", 1).Return(nil).Once()

	app := newTestApp(t, mockRepo)
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/voice/leave", nil)
	req = req.WithContext(WithUserId(req.Context(), 1))
	app.leaveVoice(rr, req)

	assert.Equal(t, http.StatusNoContent, rr.Code)
}

func TestUpdateVoiceStateHandler(t *testing.T) {
	tcases := []struct {
		name        string
		body        any
		mockErr     error
		expectedErr *ApiError
	}{
		{
			name: "mutes the user",
			body: UpdateVoiceStateRequest{Muted: true},
		},
		{
			name:        "fails when not in a voice channel",
			body:        UpdateVoiceStateRequest{Muted: true},
			mockErr:     sql.ErrNoRows,
			expectedErr: NewNotFoundError(),
		},
		{
			name:        "fails with invalid json body",
			body:        "invalid json",
			expectedErr: NewBadRequestError(),
		},
	}

	for _, tc := range tcases {
		t.Run(tc.name, func(t *testing.T) {
			mockRepo := &database.MockAuraRepository{}
			defer mockRepo.AssertExpectations(t)

			if req, ok := tc.body.(UpdateVoiceStateRequest); ok {
				mockRepo.On("UpdateVoiceState", 1, req.Muted, req.Deafened).Return(database.VoiceState{
					UserId:    1,
					ChannelId: 5,
					Muted:     req.Muted,
					Deafened:  req.Deafened,
				}, tc.mockErr).Once()
			}

			app := newTestApp(t, mockRepo)
			rr := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/api/voice/state", jsonBody(t, tc.body))
			req = req.WithContext(WithUserId(req.Context(), 1))
			app.updateVoiceState(rr, req)

			if tc.expectedErr != nil {
				assert.Equal(t, tc.expectedErr.StatusCode, rr.Code)
				return
			}

			assert.Equal(t, http.StatusOK, rr.Code)

			var vs types.VoiceState
			assert.NoError(t, json.NewDecoder(rr.Body).Decode(&vs))
			assert.True(t, vs.Muted)
			assert.False(t, vs.Deafened)
		})
	}
}

func TestVoiceUsersHandler(t *testing.T) {
	channel := database.Channel{Id: 5, ExternalId: "voice-1", Kind: types.ChannelKindVoice}

	mockRepo := &database.MockAuraRepository{}
	defer mockRepo.AssertExpectations(t)

	mockRepo.On("GetChannelByExternalId", channel.ExternalId).Return(channel, nil).Once()
	mockRepo.On("GetVoiceStates", channel.Id).Return([]database.VoiceState{
		{UserId: 1, ChannelId: channel.Id},
		{UserId: 2, ChannelId: channel.Id, Muted: true},
	}, nil).Once()

	app := newTestApp(t, mockRepo)
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/voice/users?channel_id="+channel.ExternalId, nil)
	app.voiceUsers(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)

	var states []types.VoiceState
	assert.NoError(t, json.NewDecoder(rr.Body).Decode(&states))
	if assert.Len(t, states, 2) {
		assert.Equal(t, 1, states[0].UserId)
		assert.Equal(t, 2, states[1].UserId)
		assert.True(t, states[1].Muted)
	}
}

func TestAcceptInvitationHandler(t *testing.T) {
	tcases := []struct {
		name        string
		invitation  database.Invitation
		expectedErr *ApiError
	}{
		{
			name: "accepts a valid invitation",
			invitation: database.Invitation{
				Id:        1,
				Token:     "inv-token",
				ServerId:  1,
				ExpiresAt: time.Now().Add(time.Hour),
			},
		},
		{
			name: "rejects an expired invitation",
			invitation: database.Invitation{
				Id:        1,
				Token:     "inv-token",
				ServerId:  1,
				ExpiresAt: time.Now().Add(-time.Hour),
			},
			expectedErr: NewForbiddenError(),
		},
		{
			name: "rejects an already accepted invitation",
			invitation: database.Invitation{
				Id:        1,
				Token:     "inv-token",
				ServerId:  1,
				Accepted:  true,
				ExpiresAt: time.Now().Add(time.Hour),
			},
			expectedErr: NewForbiddenError(),
		},
	}

	for _, tc := range tcases {
		t.Run(tc.name, func(t *testing.T) {
			mockRepo := &database.MockAuraRepository{}
			defer mockRepo.AssertExpectations(t)

			mockRepo.On("GetInvitationByToken", tc.invitation.Token).Return(tc.invitation, nil).Once()
			if tc.expectedErr == nil {
				mockRepo.On("AddServerMember", tc.invitation.ServerId, 2).Return(nil).Once()
				mockRepo.On("AcceptInvitation", tc.invitation.Id).Return(nil).Once()
			}

			app := newTestApp(t, mockRepo)
			rr := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/api/invitations/accept",
				jsonBody(t, AcceptInvitationRequest{Token: tc.invitation.Token}))
			req = req.WithContext(WithUserId(req.Context(), 2))
			app.acceptInvitation(rr, req)

			if tc.expectedErr != nil {
				assert.Equal(t, tc.expectedErr.StatusCode, rr.Code)
				return
			}

			assert.Equal(t, http.StatusNoContent, rr.Code)
		})
	}
}

func TestCsrfTokenHandler(t *testing.T) {
	mockRepo := &database.MockAuraRepository{}
	app := newTestApp(t, mockRepo)

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/csrf-token", nil)
	app.csrfToken(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)

	cookie := findCookie(rr, csrfCookieKey)
	if assert.NotNil(t, cookie, "expected csrf cookie") {
		var body map[string]string
		assert.NoError(t, json.NewDecoder(rr.Body).Decode(&body))
		assert.Equal(t, cookie.Value, body["token"], "expected cookie and body token to match")
	}
}
