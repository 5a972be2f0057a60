package library

import (
	"context"
	"database/sql"
	"errors"
)

// Authenticate resolves a username/secret pair to the user's role. Both values
// must match exactly as stored. An unknown user and a wrong secret produce the
// same ErrInvalidCredentials.
func (d *Database) Authenticate(ctx context.Context, username, secret string) (Role, error) {
	var stored string
	err := d.authStmt.QueryRowContext(ctx, username, secret).Scan(&stored)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrInvalidCredentials
	}
	if err != nil {
		return "", storageErr("authenticate", err)
	}
	role, err := ParseRole(stored)
	if err != nil {
		return "", err
	}
	return role, nil
}

// AddUser stores a credential record. Only the bulk loader creates users.
func (d *Database) AddUser(ctx context.Context, u User) error {
	switch u.Role {
	case RoleAdmin, RoleMember:
	default:
		return ErrUnknownRole
	}
	return d.withTx(ctx, func(tx DBTX) error {
		_, err := tx.ExecContext(ctx, `INSERT INTO users(username, secret, role) VALUES(?, ?, ?)`,
			u.Username, u.Secret, string(u.Role))
		if isUniqueViolation(err) {
			return ErrDuplicateUsername
		}
		if err != nil {
			return storageErr("add user", err)
		}
		return nil
	})
}
