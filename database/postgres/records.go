package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sagarc03/mediagate"
)

type recordRepo struct {
	pool  *pgxpool.Pool
	users string
	todos string
}

func (r *recordRepo) InsertUser(ctx context.Context, rec mediagate.UserRecord) (mediagate.User, error) {
	query := fmt.Sprintf(`
		INSERT INTO %s (email, name, password_hash)
		VALUES ($1, $2, $3)
		RETURNING id, email, name, created_at
	`, r.users)

	var u mediagate.User
	err := r.pool.QueryRow(ctx, query, rec.Email, rec.Name, rec.PasswordHash).Scan(&u.ID, &u.Email, &u.Name, &u.CreatedAt)
	if err != nil {
		return mediagate.User{}, fmt.Errorf("insert user: %w", mapConstraint(err))
	}
	return u, nil
}

func (r *recordRepo) ListUsers(ctx context.Context) ([]mediagate.User, error) {
	rows, err := r.pool.Query(ctx, fmt.Sprintf(`SELECT id, email, name, created_at FROM %s ORDER BY id`, r.users))
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}

	users, err := pgx.CollectRows(rows, pgx.RowToStructByPos[mediagate.User])
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

func (r *recordRepo) InsertTodo(ctx context.Context, todo mediagate.NewTodo) (mediagate.Todo, error) {
	query := fmt.Sprintf(`
		INSERT INTO %s (title, user_id)
		VALUES ($1, $2)
		RETURNING id, title, completed, user_id, created_at
	`, r.todos)

	var t mediagate.Todo
	err := r.pool.QueryRow(ctx, query, todo.Title, todo.UserID).Scan(&t.ID, &t.Title, &t.Completed, &t.UserID, &t.CreatedAt)
	if err != nil {
		return mediagate.Todo{}, fmt.Errorf("insert todo: %w", mapConstraint(err))
	}
	return t, nil
}

func (r *recordRepo) ListTodos(ctx context.Context, userID int64) ([]mediagate.Todo, error) {
	query := fmt.Sprintf(`
		SELECT id, title, completed, user_id, created_at
		FROM %s
		WHERE user_id = $1
		ORDER BY id
	`, r.todos)

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list todos: %w", err)
	}

	todos, err := pgx.CollectRows(rows, pgx.RowToStructByPos[mediagate.Todo])
	if err != nil {
		return nil, fmt.Errorf("list todos: %w", err)
	}
	return todos, nil
}
