package clientcli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/sagarc03/mediagate"
)

// Formatter formats results for output.
type Formatter interface {
	FormatUpload(w io.Writer, results []UploadResult) error
	FormatDownload(w io.Writer, result *DownloadResult) error
	FormatUsers(w io.Writer, users []mediagate.User) error
	FormatTodos(w io.Writer, todos []mediagate.Todo) error
	FormatError(w io.Writer, err error) error
	FormatProfileList(w io.Writer, profiles []Profile, defaultName string, showSecrets bool) error
	FormatProfileShow(w io.Writer, profile Profile, isDefault, showSecrets bool) error
}

// NewFormatter returns the appropriate formatter based on flags.
func NewFormatter(jsonOutput, quiet bool) Formatter {
	if jsonOutput {
		return &JSONFormatter{}
	}
	return &HumanFormatter{Quiet: quiet}
}

// HumanFormatter outputs human-readable text.
type HumanFormatter struct {
	Quiet bool
}

// FormatUpload formats upload results as human-readable text.
func (f *HumanFormatter) FormatUpload(w io.Writer, results []UploadResult) error {
	for i := range results {
		r := &results[i]
		if r.Err != nil {
			_, _ = fmt.Fprintf(w, "Error: %s - %v\n", r.LocalPath, r.Err)
			continue
		}
		if !f.Quiet {
			_, _ = fmt.Fprintf(w, "Uploaded: %s (%s)\n", r.Key, formatSize(r.Size))
			_, _ = fmt.Fprintf(w, "  ETag: %s\n", r.ETag)
		}
	}
	return nil
}

// FormatDownload formats download result as human-readable text.
func (f *HumanFormatter) FormatDownload(w io.Writer, result *DownloadResult) error {
	if f.Quiet {
		return nil
	}
	if result.LocalPath == "-" {
		_, _ = fmt.Fprintf(w, "Downloaded: %s (%s)\n", result.Key, formatSize(result.Size))
	} else {
		_, _ = fmt.Fprintf(w, "Downloaded: %s -> %s (%s)\n", result.Key, result.LocalPath, formatSize(result.Size))
	}
	if result.Partial {
		_, _ = fmt.Fprintf(w, "  Range: %s\n", result.ContentRange)
	}
	_, _ = fmt.Fprintf(w, "  ETag: %s\n", result.ETag)
	return nil
}

// FormatUsers formats users as a table.
func (f *HumanFormatter) FormatUsers(w io.Writer, users []mediagate.User) error {
	if len(users) == 0 {
		_, _ = fmt.Fprintln(w, "No users found")
		return nil
	}

	maxEmailLen := 5 // "EMAIL"
	for i := range users {
		maxEmailLen = max(maxEmailLen, len(users[i].Email))
	}
	maxEmailLen = min(maxEmailLen, 40)

	_, _ = fmt.Fprintf(w, "%6s  %-*s  %s\n", "ID", maxEmailLen, "EMAIL", "NAME")
	_, _ = fmt.Fprintf(w, "%s  %s  %s\n", strings.Repeat("-", 6), strings.Repeat("-", maxEmailLen), strings.Repeat("-", 20))

	for i := range users {
		u := &users[i]
		_, _ = fmt.Fprintf(w, "%6d  %-*s  %s\n", u.ID, maxEmailLen, truncate(u.Email, maxEmailLen), u.Name)
	}

	_, _ = fmt.Fprintf(w, "\n%d user(s)\n", len(users))
	return nil
}

// FormatTodos formats todos as a table.
func (f *HumanFormatter) FormatTodos(w io.Writer, todos []mediagate.Todo) error {
	if len(todos) == 0 {
		_, _ = fmt.Fprintln(w, "No todos found")
		return nil
	}

	_, _ = fmt.Fprintf(w, "%6s  %-4s  %-19s  %s\n", "ID", "DONE", "CREATED", "TITLE")
	_, _ = fmt.Fprintf(w, "%s  %s  %s  %s\n", strings.Repeat("-", 6), strings.Repeat("-", 4), strings.Repeat("-", 19), strings.Repeat("-", 20))

	for i := range todos {
		t := &todos[i]
		done := "no"
		if t.Completed {
			done = "yes"
		}
		_, _ = fmt.Fprintf(w, "%6d  %-4s  %-19s  %s\n", t.ID, done, t.CreatedAt.Format(time.DateTime), t.Title)
	}

	_, _ = fmt.Fprintf(w, "\n%d todo(s)\n", len(todos))
	return nil
}

// FormatError formats an error as human-readable text.
func (f *HumanFormatter) FormatError(w io.Writer, err error) error {
	_, _ = fmt.Fprintf(w, "Error: %v\n", err)
	return nil
}

// FormatProfileList formats a list of profiles as human-readable text.
func (f *HumanFormatter) FormatProfileList(w io.Writer, profiles []Profile, defaultName string, showSecrets bool) error {
	maxNameLen := 4     // "NAME"
	maxEndpointLen := 8 // "ENDPOINT"
	for i := range profiles {
		maxNameLen = max(maxNameLen, len(profiles[i].Name))
		maxEndpointLen = max(maxEndpointLen, len(profiles[i].Endpoint))
	}
	maxNameLen = min(maxNameLen, 20)
	maxEndpointLen = min(maxEndpointLen, 50)

	_, _ = fmt.Fprintf(w, "  %-*s  %-*s  %s\n", maxNameLen, "NAME", maxEndpointLen, "ENDPOINT", "TOKEN")
	_, _ = fmt.Fprintf(w, "  %s  %s  %s\n", strings.Repeat("-", maxNameLen), strings.Repeat("-", maxEndpointLen), strings.Repeat("-", 20))

	for i := range profiles {
		p := &profiles[i]
		marker := " "
		if p.Name == defaultName {
			marker = "*"
		}

		_, _ = fmt.Fprintf(w, "%s %-*s  %-*s  %s\n",
			marker,
			maxNameLen, truncate(p.Name, maxNameLen),
			maxEndpointLen, truncate(p.Endpoint, maxEndpointLen),
			maskSecret(p.Token, showSecrets),
		)
	}

	return nil
}

// FormatProfileShow formats a single profile as human-readable text.
func (f *HumanFormatter) FormatProfileShow(w io.Writer, profile Profile, isDefault, showSecrets bool) error {
	_, _ = fmt.Fprintf(w, "Name:       %s", profile.Name)
	if isDefault {
		_, _ = fmt.Fprintf(w, " (default)")
	}
	_, _ = fmt.Fprintln(w)
	_, _ = fmt.Fprintf(w, "Endpoint:   %s\n", profile.Endpoint)
	apiPrefix := profile.APIPrefix
	if apiPrefix == "" {
		apiPrefix = DefaultAPIPrefix
	}
	_, _ = fmt.Fprintf(w, "API Prefix: %s\n", apiPrefix)
	_, _ = fmt.Fprintf(w, "Token:      %s\n", maskSecret(profile.Token, showSecrets))
	return nil
}

// JSONFormatter outputs JSON.
type JSONFormatter struct{}

// FormatUpload formats upload results as JSON.
func (f *JSONFormatter) FormatUpload(w io.Writer, results []UploadResult) error {
	type jsonResult struct {
		LocalPath   string `json:"local_path"`
		Key         string `json:"key"`
		ID          string `json:"id,omitempty"`
		ContentType string `json:"content_type,omitempty"`
		ETag        string `json:"etag,omitempty"`
		Size        int64  `json:"size_bytes,omitempty"`
		CreatedAt   string `json:"created_at,omitempty"`
		UpdatedAt   string `json:"updated_at,omitempty"`
		Error       string `json:"error,omitempty"`
	}

	output := make([]jsonResult, len(results))
	for i := range results {
		r := &results[i]
		jr := jsonResult{
			LocalPath: r.LocalPath,
			Key:       r.Key,
		}
		if r.Err != nil {
			jr.Error = r.Err.Error()
		} else {
			jr.ID = r.ID.String()
			jr.ContentType = r.ContentType
			jr.ETag = r.ETag
			jr.Size = r.Size
			jr.CreatedAt = r.CreatedAt.Format(time.RFC3339)
			jr.UpdatedAt = r.UpdatedAt.Format(time.RFC3339)
		}
		output[i] = jr
	}

	return writeJSON(w, output)
}

// FormatDownload formats download result as JSON.
func (f *JSONFormatter) FormatDownload(w io.Writer, result *DownloadResult) error {
	return writeJSON(w, result)
}

// FormatUsers formats users as JSON.
func (f *JSONFormatter) FormatUsers(w io.Writer, users []mediagate.User) error {
	return writeJSON(w, itemsResponse[mediagate.User]{Items: nonNil(users)})
}

// FormatTodos formats todos as JSON.
func (f *JSONFormatter) FormatTodos(w io.Writer, todos []mediagate.Todo) error {
	return writeJSON(w, itemsResponse[mediagate.Todo]{Items: nonNil(todos)})
}

// FormatError formats an error as JSON.
func (f *JSONFormatter) FormatError(w io.Writer, err error) error {
	output := struct {
		Error string `json:"error"`
	}{
		Error: err.Error(),
	}
	return writeJSON(w, output)
}

// FormatProfileList formats a list of profiles as JSON.
func (f *JSONFormatter) FormatProfileList(w io.Writer, profiles []Profile, defaultName string, showSecrets bool) error {
	type jsonProfile struct {
		Name      string `json:"name"`
		Endpoint  string `json:"endpoint"`
		APIPrefix string `json:"api_prefix,omitempty"`
		Token     string `json:"token,omitempty"`
		Default   bool   `json:"default,omitempty"`
	}

	output := struct {
		Profiles []jsonProfile `json:"profiles"`
	}{
		Profiles: make([]jsonProfile, len(profiles)),
	}

	for i := range profiles {
		p := &profiles[i]
		output.Profiles[i] = jsonProfile{
			Name:      p.Name,
			Endpoint:  p.Endpoint,
			APIPrefix: p.APIPrefix,
			Token:     maskSecret(p.Token, showSecrets),
			Default:   p.Name == defaultName,
		}
	}

	return writeJSON(w, output)
}

// FormatProfileShow formats a single profile as JSON.
func (f *JSONFormatter) FormatProfileShow(w io.Writer, profile Profile, isDefault, showSecrets bool) error {
	output := struct {
		Name      string `json:"name"`
		Endpoint  string `json:"endpoint"`
		APIPrefix string `json:"api_prefix"`
		Token     string `json:"token"`
		Default   bool   `json:"default"`
	}{
		Name:      profile.Name,
		Endpoint:  profile.Endpoint,
		APIPrefix: profile.APIPrefix,
		Token:     maskSecret(profile.Token, showSecrets),
		Default:   isDefault,
	}

	return writeJSON(w, output)
}

// writeJSON writes a value as indented JSON.
func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}

// formatSize formats bytes as human-readable size.
func formatSize(bytes int64) string {
	const (
		KB = 1024
		MB = KB * 1024
		GB = MB * 1024
		TB = GB * 1024
	)

	switch {
	case bytes >= TB:
		return fmt.Sprintf("%.1f TB", float64(bytes)/TB)
	case bytes >= GB:
		return fmt.Sprintf("%.1f GB", float64(bytes)/GB)
	case bytes >= MB:
		return fmt.Sprintf("%.1f MB", float64(bytes)/MB)
	case bytes >= KB:
		return fmt.Sprintf("%.1f KB", float64(bytes)/KB)
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}

// maskSecret masks a secret string, showing only first 4 and last 4 characters.
// If showSecrets is true, returns the original value.
// If the secret is too short, returns all asterisks.
func maskSecret(secret string, showSecrets bool) string {
	if showSecrets {
		return secret
	}
	if secret == "" {
		return "(not set)"
	}
	if len(secret) <= 8 {
		return "********"
	}
	return secret[:4] + "..." + secret[len(secret)-4:]
}
