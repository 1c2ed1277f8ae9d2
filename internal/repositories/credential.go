package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/desertthunder/spotx/internal/auth"
)

// CredentialRepository implements [auth.CredentialStore] over the credentials table.
type CredentialRepository struct {
	db *sql.DB
}

// NewCredentialRepository creates a new [CredentialRepository] with the given database connection.
// The database must already be migrated.
func NewCredentialRepository(db *sql.DB) *CredentialRepository {
	return &CredentialRepository{db: db}
}

// Load retrieves the token cached under id. A missing row is reported with found set to false.
func (r *CredentialRepository) Load(ctx context.Context, id string) (*auth.Token, bool, error) {
	query := `
		SELECT access_token, token_type, expires_in, issued_at, scope, refresh_token
		FROM credentials
		WHERE id = ?
	`

	var (
		value        string
		tokenType    string
		expiresIn    int64
		issuedAt     int64
		scope        string
		refreshToken sql.NullString
	)

	err := r.db.QueryRowContext(ctx, query, id).Scan(&value, &tokenType, &expiresIn, &issuedAt, &scope, &refreshToken)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to query credential: %w", err)
	}

	if value == "" || expiresIn < 0 {
		return nil, false, &auth.CacheCorruptError{ID: id, Err: errors.New("row has no usable access token")}
	}

	tok := auth.NewToken(value, tokenType, expiresIn, time.Unix(0, issuedAt).UTC(), auth.ParseScope(scope), refreshToken.String)
	return tok, true, nil
}

// Save inserts or replaces the token cached under id.
func (r *CredentialRepository) Save(ctx context.Context, id string, tok *auth.Token) error {
	if tok == nil {
		return fmt.Errorf("cannot cache nil token for %s", id)
	}

	query := `
		INSERT INTO credentials (id, access_token, token_type, expires_in, issued_at, scope, refresh_token, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			access_token = excluded.access_token,
			token_type = excluded.token_type,
			expires_in = excluded.expires_in,
			issued_at = excluded.issued_at,
			scope = excluded.scope,
			refresh_token = excluded.refresh_token,
			updated_at = excluded.updated_at
	`

	refreshToken := sql.NullString{String: tok.RefreshToken(), Valid: tok.HasRefreshToken()}

	_, err := r.db.ExecContext(ctx, query,
		id,
		tok.Value(),
		tok.Type(),
		tok.ExpiresIn(),
		tok.IssuedAt().UnixNano(),
		strings.Join(tok.Scope(), " "),
		refreshToken,
		time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to save credential: %w", err)
	}

	return nil
}

// Delete removes the token cached under id. Deleting a missing row is not an error.
func (r *CredentialRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM credentials WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete credential: %w", err)
	}
	return nil
}

// List returns every cache identifier in the table, sorted.
func (r *CredentialRepository) List(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id FROM credentials ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query credentials: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan credential: %w", err)
		}
		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return ids, nil
}
