package keybackend

// TokensConfig holds configuration for loading upload tokens.
type TokensConfig struct {
	Inline []TokenEntry `mapstructure:"inline"` // Inline tokens from config
	File   string       `mapstructure:"file"`   // Path to JSON file containing tokens
}

// Configured reports whether any token source is set.
func (c TokensConfig) Configured() bool {
	return len(c.Inline) > 0 || c.File != ""
}

// New builds a Keyring from inline entries and the optional file. File
// entries replace inline entries with the same name.
func New(cfg TokensConfig) (*Keyring, error) {
	k := NewKeyring(cfg.Inline...)

	if cfg.File != "" {
		fileEntries, err := LoadTokensFromFile(cfg.File)
		if err != nil {
			return nil, err
		}
		for _, e := range fileEntries {
			k.Add(e)
		}
	}

	return k, nil
}
