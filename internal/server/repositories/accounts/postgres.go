package accounts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/dbx"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/jackc/pgx/v5/pgconn"
)

const (
	pgUniqueViolation     = "23505"
	pgInvalidTextEncoding = "22P02"
)

const accountColumns = `id, email, password_hash, name, verified, verification_token,
		 session_token, avatar_url, avatar_storage_id, created_at, updated_at`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (*models.Account, error) {
	a := &models.Account{}
	var verificationToken, sessionToken, avatarStorageID sql.NullString

	err := row.Scan(&a.ID, &a.Email, &a.PasswordHash, &a.Name, &a.Verified, &verificationToken,
		&sessionToken, &a.AvatarURL, &avatarStorageID, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}

	a.VerificationToken = fromNull(verificationToken)
	a.SessionToken = fromNull(sessionToken)
	a.AvatarStorageID = fromNull(avatarStorageID)
	return a, nil
}

func fromNull(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	v := s.String
	return &v
}

// mapError turns driver errors into the package's sentinel errors.
func mapError(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return common.ErrorNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return common.ErrorAlreadyExists
		case pgInvalidTextEncoding:
			// a malformed uuid cannot match any row
			return common.ErrorNotFound
		}
	}
	return fmt.Errorf("db error: %w", err)
}

func (r *PostgresRepository) Create(ctx context.Context, account *models.Account) (*models.Account, error) {
	query :=
		`INSERT INTO accounts (email, password_hash, name, verification_token, avatar_url)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING ` + accountColumns

	row := r.db.QueryRowContext(ctx, query,
		account.Email, account.PasswordHash, account.Name, account.VerificationToken, account.AvatarURL)

	created, err := scanAccount(row)
	if err != nil {
		return nil, mapError(err)
	}
	return created, nil
}

func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE email = $1`

	a, err := scanAccount(r.db.QueryRowContext(ctx, query, email))
	if err != nil {
		return nil, mapError(err)
	}
	return a, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1`

	a, err := scanAccount(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, mapError(err)
	}
	return a, nil
}

func (r *PostgresRepository) ConsumeVerificationToken(ctx context.Context, token string) (*models.Account, error) {
	query :=
		`UPDATE accounts SET verified = true, verification_token = NULL, updated_at = now()
		 WHERE verification_token = $1
		 RETURNING ` + accountColumns

	a, err := scanAccount(r.db.QueryRowContext(ctx, query, token))
	if err != nil {
		return nil, mapError(err)
	}
	return a, nil
}

func (r *PostgresRepository) UpdateSessionToken(ctx context.Context, id string, token *string) error {
	query := `UPDATE accounts SET session_token = $2, updated_at = now() WHERE id = $1`

	res, err := r.db.ExecContext(ctx, query, id, token)
	if err != nil {
		return mapError(err)
	}
	return expectOneRow(res)
}

func (r *PostgresRepository) UpdateAvatar(ctx context.Context, id string, url string, storageID string) error {
	query :=
		`UPDATE accounts SET avatar_url = $2, avatar_storage_id = $3, updated_at = now()
		 WHERE id = $1`

	res, err := r.db.ExecContext(ctx, query, id, url, storageID)
	if err != nil {
		return mapError(err)
	}
	return expectOneRow(res)
}

func (r *PostgresRepository) ListEmails(ctx context.Context) ([]string, error) {
	query := `SELECT email FROM accounts ORDER BY created_at, email`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	emails := make([]string, 0)
	for rows.Next() {
		var email string
		if err := rows.Scan(&email); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		emails = append(emails, email)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return emails, nil
}

func expectOneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}
