package repository

import (
	"context"
	"database/sql"

	"github.com/mycourse/elearning-platform/app/entity"
)

type RoleRepository struct {
	db querier
}

func NewRoleRepository(db *sql.DB) *RoleRepository {
	return &RoleRepository{db: db}
}

func (r *RoleRepository) FindByName(ctx context.Context, name string) (*entity.Role, error) {
	query := `SELECT id, name FROM roles WHERE name = ?`
	role := &entity.Role{}
	err := r.db.QueryRowContext(ctx, query, name).Scan(&role.ID, &role.Name)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return role, nil
}

func (r *RoleRepository) Create(ctx context.Context, name string) (*entity.Role, error) {
	query := `INSERT INTO roles (name) VALUES (?)`
	result, err := r.db.ExecContext(ctx, query, name)
	if err != nil {
		return nil, err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, err
	}
	return &entity.Role{ID: uint64(id), Name: name}, nil
}

// Seed ensures the given role rows exist. Runs once at startup; existing rows
// are left untouched.
func (r *RoleRepository) Seed(ctx context.Context, names ...string) error {
	for _, name := range names {
		role, err := r.FindByName(ctx, name)
		if err != nil {
			return err
		}
		if role != nil {
			continue
		}
		if _, err := r.Create(ctx, name); err != nil {
			return err
		}
	}
	return nil
}
