package keybackend

import (
	"encoding/json"
	"fmt"
	"os"
)

// TokenEntry names one upload token. The name appears in logs; the token never does.
type TokenEntry struct {
	Name  string `json:"name" mapstructure:"name"`
	Token string `json:"token" mapstructure:"token"`
}

// LoadTokensFromFile loads upload tokens from a JSON file.
// The file should contain an array of entries:
//
//	[
//	  {"name": "cms", "token": "b3f1..."},
//	  {"name": "mobile-ingest", "token": "91ac..."}
//	]
//
// Entries with an empty name or token are skipped.
func LoadTokensFromFile(path string) ([]TokenEntry, error) {
	data, err := os.ReadFile(path) //nolint:gosec // Path is from trusted config file
	if err != nil {
		return nil, fmt.Errorf("read tokens file: %w", err)
	}

	var entries []TokenEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parse tokens file: %w", err)
	}

	valid := entries[:0]
	for _, e := range entries {
		if e.Name != "" && e.Token != "" {
			valid = append(valid, e)
		}
	}

	return valid, nil
}
