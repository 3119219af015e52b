package database

import (
	"fmt"
	"time"
)

const defaultMessageLimit = 50

func (db *PgAuraRepository) CreateAccount(params CreateAccountParams) (User, error) {
	res := db.conn.QueryRow(
		"INSERT INTO accounts (username, email, password_hash, status, created_at) "+
			"VALUES ($1, $2, $3, 'offline', $4) RETURNING id, username, email, status, created_at",
		params.Username,
		params.EmailAddress,
		params.PasswordHash,
		time.Now().UTC(),
	)

	var u User
	err := res.Scan(
		&u.Id,
		&u.Username,
		&u.EmailAddress,
		&u.Status,
		&u.CreatedAt,
	)

	return u, err
}

func (db *PgAuraRepository) GetAccountById(id int) (User, error) {
	row := db.conn.QueryRow(
		"SELECT id, username, email, status, created_at, updated_at FROM accounts "+
			"WHERE id = $1 LIMIT 1",
		id,
	)

	var u User
	err := row.Scan(
		&u.Id,
		&u.Username,
		&u.EmailAddress,
		&u.Status,
		&u.CreatedAt,
		&u.UpdatedAt,
	)

	return u, err
}

func (db *PgAuraRepository) GetAccountByEmail(email string) (User, error) {
	row := db.conn.QueryRow(
		"SELECT id, username, email, password_hash, status FROM accounts "+
			"WHERE email = $1 LIMIT 1",
		email,
	)

	var u User
	err := row.Scan(
		&u.Id,
		&u.Username,
		&u.EmailAddress,
		&u.PasswordHash,
		&u.Status,
	)

	return u, err
}

func (db *PgAuraRepository) UpdateAccountStatus(accountId int, status string) error {
	_, err := db.conn.Exec(
		"UPDATE accounts SET status = $2, updated_at = $3 WHERE id = $1",
		accountId,
		status,
		time.Now().UTC(),
	)

	return err
}

func (db *PgAuraRepository) CreateServer(params CreateServerParams) (Server, error) {
	res := db.conn.QueryRow(
		"INSERT INTO servers (external_id, name, description, owner_id, created_at) "+
			"VALUES ($1, $2, $3, $4, $5) RETURNING id, external_id, name, description, owner_id, created_at",
		params.ExternalId,
		params.Name,
		params.Description,
		params.OwnerId,
		time.Now().UTC(),
	)

	var s Server
	err := res.Scan(
		&s.Id,
		&s.ExternalId,
		&s.Name,
		&s.Description,
		&s.OwnerId,
		&s.CreatedAt,
	)
	if err != nil {
		return Server{}, err
	}

	if err := db.AddServerMember(s.Id, params.OwnerId); err != nil {
		return Server{}, fmt.Errorf("add owner as member: %w", err)
	}

	return s, nil
}

func (db *PgAuraRepository) GetServerByExternalId(externalId string) (Server, error) {
	row := db.conn.QueryRow(
		"SELECT id, external_id, name, description, owner_id, created_at, updated_at FROM servers "+
			"WHERE external_id = $1 LIMIT 1",
		externalId,
	)

	var s Server
	err := row.Scan(
		&s.Id,
		&s.ExternalId,
		&s.Name,
		&s.Description,
		&s.OwnerId,
		&s.CreatedAt,
		&s.UpdatedAt,
	)

	return s, err
}

func (db *PgAuraRepository) ListServersForAccount(accountId int) ([]Server, error) {
	rows, err := db.conn.Query(
		"SELECT s.id, s.external_id, s.name, s.description, s.owner_id, s.created_at, s.updated_at "+
			"FROM servers s JOIN server_members m ON m.server_id = s.id "+
			"WHERE m.account_id = $1 ORDER BY s.id",
		accountId,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var servers []Server
	for rows.Next() {
		var s Server
		if err := rows.Scan(
			&s.Id,
			&s.ExternalId,
			&s.Name,
			&s.Description,
			&s.OwnerId,
			&s.CreatedAt,
			&s.UpdatedAt,
		); err != nil {
			return nil, err
		}
		servers = append(servers, s)
	}

	return servers, rows.Err()
}

func (db *PgAuraRepository) DeleteServer(id int) error {
	_, err := db.conn.Exec("DELETE FROM servers WHERE id = $1", id)
	return err
}

func (db *PgAuraRepository) AddServerMember(serverId, accountId int) error {
	_, err := db.conn.Exec(
		"INSERT INTO server_members (server_id, account_id, created_at) VALUES ($1, $2, $3) "+
			"ON CONFLICT (server_id, account_id) DO NOTHING",
		serverId,
		accountId,
		time.Now().UTC(),
	)

	return err
}

func (db *PgAuraRepository) CreateChannel(params CreateChannelParams) (Channel, error) {
	res := db.conn.QueryRow(
		"INSERT INTO channels (external_id, server_id, name, kind, created_at) "+
			"VALUES ($1, $2, $3, $4, $5) RETURNING id, external_id, server_id, name, kind, created_at",
		params.ExternalId,
		params.ServerId,
		params.Name,
		params.Kind,
		time.Now().UTC(),
	)

	var c Channel
	err := res.Scan(
		&c.Id,
		&c.ExternalId,
		&c.ServerId,
		&c.Name,
		&c.Kind,
		&c.CreatedAt,
	)

	return c, err
}

func (db *PgAuraRepository) GetChannelByExternalId(externalId string) (Channel, error) {
	row := db.conn.QueryRow(
		"SELECT id, external_id, server_id, name, kind, created_at, updated_at FROM channels "+
			"WHERE external_id = $1 LIMIT 1",
		externalId,
	)

	var c Channel
	err := row.Scan(
		&c.Id,
		&c.ExternalId,
		&c.ServerId,
		&c.Name,
		&c.Kind,
		&c.CreatedAt,
		&c.UpdatedAt,
	)

	return c, err
}

func (db *PgAuraRepository) ListChannels(serverId int) ([]Channel, error) {
	rows, err := db.conn.Query(
		"SELECT id, external_id, server_id, name, kind, created_at, updated_at FROM channels "+
			"WHERE server_id = $1 ORDER BY id",
		serverId,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var channels []Channel
	for rows.Next() {
		var c Channel
		if err := rows.Scan(
			&c.Id,
			&c.ExternalId,
			&c.ServerId,
			&c.Name,
			&c.Kind,
			&c.CreatedAt,
			&c.UpdatedAt,
		); err != nil {
			return nil, err
		}
		channels = append(channels, c)
	}

	return channels, rows.Err()
}

func (db *PgAuraRepository) CreateMessage(msg Message) (Message, error) {
	res := db.conn.QueryRow(
		"INSERT INTO messages (channel_id, account_id, content, created_at) "+
			"VALUES ($1, $2, $3, $4) RETURNING id, channel_id, account_id, content, created_at",
		msg.ChannelId,
		msg.UserId,
		msg.Content,
		time.Now().UTC(),
	)

	var m Message
	err := res.Scan(
		&m.Id,
		&m.ChannelId,
		&m.UserId,
		&m.Content,
		&m.CreatedAt,
	)

	return m, err
}

func (db *PgAuraRepository) GetMessages(channelId, before, limit int) ([]Message, error) {
	if limit <= 0 {
		limit = defaultMessageLimit
	}

	query := "SELECT id, channel_id, account_id, content, created_at FROM messages " +
		"WHERE channel_id = $1"
	args := []any{channelId}

	if before > 0 {
		query += fmt.Sprintf(" AND id < $%d", len(args)+1)
		args = append(args, before)
	}

	query += fmt.Sprintf(" ORDER BY id DESC LIMIT $%d", len(args)+1)
	args = append(args, limit)

	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []Message
	for rows.Next() {
		var m Message
		if err := rows.Scan(
			&m.Id,
			&m.ChannelId,
			&m.UserId,
			&m.Content,
			&m.CreatedAt,
		); err != nil {
			return nil, err
		}
		messages = append(messages, m)
	}

	return messages, rows.Err()
}

func (db *PgAuraRepository) CreateInvitation(params CreateInvitationParams) (Invitation, error) {
	res := db.conn.QueryRow(
		"INSERT INTO invitations (token, server_id, email, expires_at, created_at) "+
			"VALUES ($1, $2, $3, $4, $5) RETURNING id, token, server_id, email, accepted, expires_at, created_at",
		params.Token,
		params.ServerId,
		params.Email,
		params.ExpiresAt,
		time.Now().UTC(),
	)

	var inv Invitation
	err := res.Scan(
		&inv.Id,
		&inv.Token,
		&inv.ServerId,
		&inv.Email,
		&inv.Accepted,
		&inv.ExpiresAt,
		&inv.CreatedAt,
	)

	return inv, err
}

func (db *PgAuraRepository) GetInvitationByToken(token string) (Invitation, error) {
	row := db.conn.QueryRow(
		"SELECT id, token, server_id, email, accepted, expires_at, created_at FROM invitations "+
			"WHERE token = $1 LIMIT 1",
		token,
	)

	var inv Invitation
	err := row.Scan(
		&inv.Id,
		&inv.Token,
		&inv.ServerId,
		&inv.Email,
		&inv.Accepted,
		&inv.ExpiresAt,
		&inv.CreatedAt,
	)

	return inv, err
}

func (db *PgAuraRepository) AcceptInvitation(id int) error {
	_, err := db.conn.Exec("UPDATE invitations SET accepted = TRUE WHERE id = $1", id)
	return err
}

// JoinVoiceChannel replaces any existing voice state for the user, so a
// user occupies at most one voice channel at a time.
func (db *PgAuraRepository) JoinVoiceChannel(accountId, channelId int) (VoiceState, error) {
	tx, err := db.conn.Begin()
	if err != nil {
		return VoiceState{}, err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM voice_states WHERE account_id = $1", accountId); err != nil {
		return VoiceState{}, err
	}

	row := tx.QueryRow(
		"INSERT INTO voice_states (account_id, channel_id, updated_at) "+
			"VALUES ($1, $2, $3) RETURNING account_id, channel_id, muted, deafened, updated_at",
		accountId,
		channelId,
		time.Now().UTC(),
	)

	var vs VoiceState
	if err := row.Scan(
		&vs.UserId,
		&vs.ChannelId,
		&vs.Muted,
		&vs.Deafened,
		&vs.UpdatedAt,
	); err != nil {
		return VoiceState{}, err
	}

	return vs, tx.Commit()
}

func (db *PgAuraRepository) UpdateVoiceState(accountId int, muted, deafened bool) (VoiceState, error) {
	row := db.conn.QueryRow(
		"UPDATE voice_states SET muted = $2, deafened = $3, updated_at = $4 WHERE account_id = $1 "+
			"RETURNING account_id, channel_id, muted, deafened, updated_at",
		accountId,
		muted,
		deafened,
		time.Now().UTC(),
	)

	var vs VoiceState
	err := row.Scan(
		&vs.UserId,
		&vs.ChannelId,
		&vs.Muted,
		&vs.Deafened,
		&vs.UpdatedAt,
	)

	return vs, err
}

func (db *PgAuraRepository) LeaveVoiceChannel(accountId int) error {
	_, err := db.conn.Exec("DELETE FROM voice_states WHERE account_id = $1", accountId)
	return err
}

func (db *PgAuraRepository) GetVoiceStates(channelId int) ([]VoiceState, error) {
	rows, err := db.conn.Query(
		"SELECT account_id, channel_id, muted, deafened, updated_at FROM voice_states "+
			"WHERE channel_id = $1 ORDER BY account_id",
		channelId,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var states []VoiceState
	for rows.Next() {
		var vs VoiceState
		if err := rows.Scan(
			&vs.UserId,
			&vs.ChannelId,
			&vs.Muted,
			&vs.Deafened,
			&vs.UpdatedAt,
		); err != nil {
			return nil, err
		}
		states = append(states, vs)
	}

	return states, rows.Err()
}
