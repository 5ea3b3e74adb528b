package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/helpdesk-io/helpdesk/internal/domain"
)

// UserFilter defines query params for user listing.
type UserFilter struct {
	Roles  []domain.Role
	Active *bool
	Search string
	Limit  int
	Offset int
}

// UserRepository defines persistence access for accounts.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	Update(ctx context.Context, user *domain.User) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	// List returns users ordered by creation time, oldest first.
	List(ctx context.Context, filter UserFilter) ([]domain.User, error)
}

// userPageSize is the batch size ListAllUsers requests.
const userPageSize = 200

// ListAllUsers pages through repo until filter is exhausted. filter.Limit and
// filter.Offset are ignored.
func ListAllUsers(ctx context.Context, repo UserRepository, filter UserFilter) ([]domain.User, error) {
	filter.Limit = userPageSize
	filter.Offset = 0
	var all []domain.User
	for {
		batch, err := repo.List(ctx, filter)
		if err != nil {
			return nil, err
		}
		all = append(all, batch...)
		if len(batch) < userPageSize {
			return all, nil
		}
		filter.Offset += userPageSize
	}
}

type userRepository struct {
	db DBTX
}

// NewUserRepository returns a Postgres-backed implementation.
func NewUserRepository(db DBTX) UserRepository {
	return &userRepository{db: db}
}

const userColumns = `id, name, email, password_hash, role, department, active, created_at, updated_at`

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	const query = `
        INSERT INTO users (name, email, password_hash, role, department, active)
        VALUES ($1, $2, $3, $4, $5, $6)
        RETURNING id, created_at, updated_at`

	err := r.db.QueryRow(ctx, query,
		user.Name,
		strings.ToLower(user.Email),
		user.PasswordHash,
		user.Role,
		user.Department,
		user.Active,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	return uniqueViolation(err)
}

func (r *userRepository) Update(ctx context.Context, user *domain.User) error {
	const query = `
        UPDATE users SET name=$1, email=$2, password_hash=$3, role=$4, department=$5, active=$6, updated_at=NOW()
        WHERE id=$7`

	err := execExpectingRow(ctx, r.db, query,
		user.Name,
		strings.ToLower(user.Email),
		user.PasswordHash,
		user.Role,
		user.Department,
		user.Active,
		user.ID,
	)
	return uniqueViolation(err)
}

func (r *userRepository) Delete(ctx context.Context, id string) error {
	return execExpectingRow(ctx, r.db, `DELETE FROM users WHERE id=$1`, id)
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id=$1`
	return scanUser(r.db.QueryRow(ctx, query, id))
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email=$1`
	return scanUser(r.db.QueryRow(ctx, query, strings.ToLower(email)))
}

func (r *userRepository) List(ctx context.Context, filter UserFilter) ([]domain.User, error) {
	var where whereBuilder
	roles := make([]string, len(filter.Roles))
	for i, role := range filter.Roles {
		roles[i] = string(role)
	}
	where.addIn("role", roles)
	if filter.Active != nil {
		where.add("active=$%d", *filter.Active)
	}
	if s := strings.TrimSpace(filter.Search); s != "" {
		where.args = append(where.args, "%"+strings.ToLower(s)+"%")
		n := len(where.args)
		where.clauses = append(where.clauses, fmt.Sprintf("(LOWER(name) LIKE $%d OR email LIKE $%d)", n, n))
	}
	limit, offset := normalizePage(filter.Limit, filter.Offset, 500)

	query := fmt.Sprintf(`SELECT %s FROM users%s ORDER BY created_at ASC, id ASC LIMIT %d OFFSET %d`,
		userColumns, where.sql(), limit, offset)

	rows, err := r.db.Query(ctx, query, where.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *user)
	}
	return result, rows.Err()
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var user domain.User
	if err := row.Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.PasswordHash,
		&user.Role,
		&user.Department,
		&user.Active,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}
