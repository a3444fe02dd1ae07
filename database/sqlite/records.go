package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/sagarc03/mediagate"
)

type recordRepo struct {
	db    *sql.DB
	users string
	todos string
}

func (r *recordRepo) InsertUser(ctx context.Context, rec mediagate.UserRecord) (mediagate.User, error) {
	query := fmt.Sprintf( //nolint:gosec // G201: table name is validated
		`INSERT INTO %s (email, name, password_hash, created_at) VALUES (?, ?, ?, ?)
		RETURNING id, email, name, created_at`, r.users)

	u, err := scanUser(r.db.QueryRowContext(ctx, query, rec.Email, rec.Name, rec.PasswordHash, formatTime(time.Now())))
	if err != nil {
		return mediagate.User{}, fmt.Errorf("insert user: %w", mapConstraint(err))
	}
	return u, nil
}

func (r *recordRepo) ListUsers(ctx context.Context) ([]mediagate.User, error) {
	query := fmt.Sprintf(`SELECT id, email, name, created_at FROM %s ORDER BY id`, r.users) //nolint:gosec // table name is validated

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer func() { _ = rows.Close() }()

	users := []mediagate.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("list users: scan: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list users: rows: %w", err)
	}

	return users, nil
}

func (r *recordRepo) InsertTodo(ctx context.Context, todo mediagate.NewTodo) (mediagate.Todo, error) {
	query := fmt.Sprintf( //nolint:gosec // G201: table name is validated
		`INSERT INTO %s (title, completed, user_id, created_at) VALUES (?, 0, ?, ?)
		RETURNING id, title, completed, user_id, created_at`, r.todos)

	t, err := scanTodo(r.db.QueryRowContext(ctx, query, todo.Title, todo.UserID, formatTime(time.Now())))
	if err != nil {
		return mediagate.Todo{}, fmt.Errorf("insert todo: %w", mapConstraint(err))
	}
	return t, nil
}

func (r *recordRepo) ListTodos(ctx context.Context, userID int64) ([]mediagate.Todo, error) {
	query := fmt.Sprintf( //nolint:gosec // G201: table name is validated
		`SELECT id, title, completed, user_id, created_at FROM %s WHERE user_id = ? ORDER BY id`, r.todos)

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list todos: %w", err)
	}
	defer func() { _ = rows.Close() }()

	todos := []mediagate.Todo{}
	for rows.Next() {
		t, err := scanTodo(rows)
		if err != nil {
			return nil, fmt.Errorf("list todos: scan: %w", err)
		}
		todos = append(todos, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list todos: rows: %w", err)
	}

	return todos, nil
}

func scanUser(row rowScanner) (mediagate.User, error) {
	var u mediagate.User
	var createdAt string
	if err := row.Scan(&u.ID, &u.Email, &u.Name, &createdAt); err != nil {
		return mediagate.User{}, err
	}

	var err error
	if u.CreatedAt, err = parseTime(createdAt); err != nil {
		return mediagate.User{}, fmt.Errorf("parse created_at: %w", err)
	}
	return u, nil
}

func scanTodo(row rowScanner) (mediagate.Todo, error) {
	var t mediagate.Todo
	var createdAt string
	if err := row.Scan(&t.ID, &t.Title, &t.Completed, &t.UserID, &createdAt); err != nil {
		return mediagate.Todo{}, err
	}

	var err error
	if t.CreatedAt, err = parseTime(createdAt); err != nil {
		return mediagate.Todo{}, fmt.Errorf("parse created_at: %w", err)
	}
	return t, nil
}
