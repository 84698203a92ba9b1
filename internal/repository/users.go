package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Shivanand-hulikatti/parking-management/internal/model"
)

const userColumns = `id, username, email, password_hash, role, plate_number, created_at`

// UserRepository handles persistence for users.
type UserRepository struct {
	db *pgxpool.Pool
}

// NewUserRepository constructs a UserRepository.
func NewUserRepository(db *pgxpool.Pool) *UserRepository {
	return &UserRepository{db: db}
}

func scanUser(row scanner) (*model.User, error) {
	var u model.User
	if err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.Role, &u.PlateNumber, &u.CreatedAt); err != nil {
		return nil, err
	}
	return &u, nil
}

// Create inserts a user, assigning an id and creation time when unset.
// Duplicate usernames or plates surface as validation errors.
func (r *UserRepository) Create(ctx context.Context, u *model.User) error {
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	_, err := r.db.Exec(ctx,
		`INSERT INTO users (`+userColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		u.ID, u.Username, u.Email, u.PasswordHash, u.Role, u.PlateNumber, u.CreatedAt,
	)
	if err != nil {
		return translateWrite(err, "insert user")
	}
	return nil
}

// GetByID returns a single user or a NotFound error.
func (r *UserRepository) GetByID(ctx context.Context, id string) (*model.User, error) {
	u, err := scanUser(r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if err != nil {
		return nil, notFound(err, "user not found", "get user")
	}
	return u, nil
}

// GetByUsername returns a single user by login name or a NotFound error.
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	u, err := scanUser(r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE username = $1`, username))
	if err != nil {
		return nil, notFound(err, "user not found", "get user by username")
	}
	return u, nil
}

// FindOwnersByPlate returns the distinct ids of users that own plate, either
// as their profile plate or through a registered vehicle.
func (r *UserRepository) FindOwnersByPlate(ctx context.Context, plate string) ([]string, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id FROM users WHERE plate_number = $1
		 UNION
		 SELECT user_id FROM vehicles WHERE plate_number = $1`,
		plate,
	)
	if err != nil {
		return nil, fmt.Errorf("find plate owners: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan plate owner: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Update writes the mutable profile fields of u.
func (r *UserRepository) Update(ctx context.Context, u *model.User) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE users SET username = $2, email = $3, password_hash = $4, plate_number = $5
		 WHERE id = $1`,
		u.ID, u.Username, u.Email, u.PasswordHash, u.PlateNumber,
	)
	if err != nil {
		return translateWrite(err, "update user")
	}
	if tag.RowsAffected() == 0 {
		return notFound(errNoRows, "user not found", "update user")
	}
	return nil
}

// List returns a page of users filtered by username or email.
func (r *UserRepository) List(ctx context.Context, p model.PageRequest) ([]model.User, int, error) {
	var c conditions
	if p.Search != "" {
		c.add(`(username ILIKE '%%' || $%[1]d || '%%' OR email ILIKE '%%' || $%[1]d || '%%')`, p.Search)
	}

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM users`+c.where(), c.args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}

	suffix, args := c.page(p.Limit, p.Offset())
	rows, err := r.db.Query(ctx,
		`SELECT `+userColumns+` FROM users`+c.where()+` ORDER BY created_at DESC, id`+suffix, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, *u)
	}
	return users, total, rows.Err()
}
