package mediagate

import (
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"
)

type MetaData struct {
	ID            uuid.UUID `json:"id"`
	Key           string    `json:"key"`
	ContentType   string    `json:"content_type"`
	Etag          string    `json:"etag"`
	FileSizeBytes int64     `json:"file_size_bytes"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

type ObjectEntry struct {
	Key         string
	Size        int64
	ETag        string
	ContentType string
}

type ListQuery struct {
	KeyPrefix string
	Limit     int
	Cursor    string
}

type ListResult struct {
	Items      []MetaData `json:"items"`
	NextCursor string     `json:"next_cursor,omitempty"`
}

type SaveResult struct {
	BytesWritten int64
	Etag         string
}

// CreateObject describes an object about to be written. An empty ContentType
// is stored as DefaultContentType.
type CreateObject struct {
	Key         string
	ContentType string
}

// Tables holds configurable table names for metadata and record storage.
// This allows several gateways to share one database.
type Tables struct {
	MetaData string `mapstructure:"meta_data"`
	Users    string `mapstructure:"users"`
	Todos    string `mapstructure:"todos"`
}

// DefaultTables returns the table names used when none are configured.
func DefaultTables() Tables {
	return Tables{
		MetaData: "mediagate_objects",
		Users:    "users",
		Todos:    "todos",
	}
}

var validTableNameRegex = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// IsValidTableName checks if a table name is valid (lowercase, alphanumeric with underscores, max 63 chars).
func IsValidTableName(name string) bool {
	return validTableNameRegex.MatchString(name) && len(name) <= 63
}

// Validate checks that all required table names are set, valid and distinct.
func (t Tables) Validate() error {
	names := []struct{ label, value string }{
		{"metadata", t.MetaData},
		{"users", t.Users},
		{"todos", t.Todos},
	}

	seen := make(map[string]string, len(names))
	for _, n := range names {
		if n.value == "" {
			return fmt.Errorf("validate tables: %s table name cannot be empty", n.label)
		}
		if !IsValidTableName(n.value) {
			return fmt.Errorf("validate tables: invalid %s table name: %s (must match ^[a-z_][a-z0-9_]*$ and be <= 63 chars)", n.label, n.value)
		}
		if other, dup := seen[n.value]; dup {
			return fmt.Errorf("validate tables: %s and %s share table name %s", other, n.label, n.value)
		}
		seen[n.value] = n.label
	}

	return nil
}

// User is a stored account record. The password hash never leaves the repository layer.
type User struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// NewUser is the payload accepted when registering a user.
type NewUser struct {
	Email    string `json:"email" validate:"required,email,max=254"`
	Name     string `json:"name" validate:"required,max=200"`
	Password string `json:"password" validate:"required,min=8,max=256"`
}

type Todo struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Completed bool      `json:"completed"`
	UserID    int64     `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

// NewTodo is the payload accepted when creating a todo.
type NewTodo struct {
	Title  string `json:"title" validate:"required,max=500"`
	UserID int64  `json:"userId" validate:"required,gt=0"`
}
