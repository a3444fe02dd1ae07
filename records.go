package mediagate

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/alexedwards/argon2id"
	"github.com/go-playground/validator/v10"
)

// UserRecord is the row handed to a RecordRepo when registering a user.
type UserRecord struct {
	Email        string
	Name         string
	PasswordHash string
}

// RecordRepo persists the sibling user and todo records.
//
// InsertUser returns ErrConflict for a duplicate email. InsertTodo returns
// ErrInvalidInput when the referenced user does not exist.
type RecordRepo interface {
	InsertUser(ctx context.Context, rec UserRecord) (User, error)
	ListUsers(ctx context.Context) ([]User, error)
	InsertTodo(ctx context.Context, todo NewTodo) (Todo, error)
	ListTodos(ctx context.Context, userID int64) ([]Todo, error)
}

// RecordService validates record payloads before they reach the repository.
// Passwords are stored as argon2id hashes only.
type RecordService struct {
	repo     RecordRepo
	validate *validator.Validate
	params   *argon2id.Params
}

// NewRecordService creates a RecordService. A nil params uses argon2id.DefaultParams.
func NewRecordService(repo RecordRepo, params *argon2id.Params) (*RecordService, error) {
	if repo == nil {
		return nil, fmt.Errorf("new record service: %w: record repo is required", ErrInvalidInput)
	}
	if params == nil {
		params = argon2id.DefaultParams
	}

	return &RecordService{
		repo:     repo,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		params:   params,
	}, nil
}

func (s *RecordService) CreateUser(ctx context.Context, u NewUser) (User, error) {
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	u.Name = strings.TrimSpace(u.Name)

	if err := s.check(u); err != nil {
		return User{}, fmt.Errorf("create user: %w", err)
	}

	hash, err := argon2id.CreateHash(u.Password, s.params)
	if err != nil {
		return User{}, fmt.Errorf("create user: hash password: %w", err)
	}

	user, err := s.repo.InsertUser(ctx, UserRecord{
		Email:        u.Email,
		Name:         u.Name,
		PasswordHash: hash,
	})
	if err != nil {
		return User{}, fmt.Errorf("create user: %w", err)
	}

	return user, nil
}

func (s *RecordService) ListUsers(ctx context.Context) ([]User, error) {
	users, err := s.repo.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

func (s *RecordService) CreateTodo(ctx context.Context, t NewTodo) (Todo, error) {
	t.Title = strings.TrimSpace(t.Title)

	if err := s.check(t); err != nil {
		return Todo{}, fmt.Errorf("create todo: %w", err)
	}

	todo, err := s.repo.InsertTodo(ctx, t)
	if err != nil {
		return Todo{}, fmt.Errorf("create todo: %w", err)
	}

	return todo, nil
}

func (s *RecordService) ListTodos(ctx context.Context, userID int64) ([]Todo, error) {
	if userID <= 0 {
		return nil, fmt.Errorf("list todos: %w: user id must be positive", ErrInvalidInput)
	}

	todos, err := s.repo.ListTodos(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list todos: %w", err)
	}
	return todos, nil
}

// check runs struct validation and flattens field errors into one ErrInvalidInput.
func (s *RecordService) check(v any) error {
	err := s.validate.Struct(v)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msgs = append(msgs, fmt.Sprintf("%s failed %s", strings.ToLower(fe.Field()), fe.Tag()))
	}

	return fmt.Errorf("%w: %s", ErrInvalidInput, strings.Join(msgs, ", "))
}
