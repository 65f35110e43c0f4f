package repositories

import (
	"encoding/json"
	"os"
	"path/filepath"

	"sensechat/src/models"
)

const tokenFileName = "session.json"

// FileTokenRepository stores the session token as a JSON file under the
// config directory, readable only by the owner.
type FileTokenRepository struct {
	file string
}

func NewFileTokenRepository(configDir string) *FileTokenRepository {
	return &FileTokenRepository{file: filepath.Join(configDir, tokenFileName)}
}

// Load returns the stored token, or nil when none has been saved.
func (r *FileTokenRepository) Load() (*models.Token, error) {
	data, err := os.ReadFile(r.file)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, &models.StorageError{Message: "failed to read session file", Err: err}
	}
	var token models.Token
	if err := json.Unmarshal(data, &token); err != nil {
		return nil, &models.StorageError{Message: "failed to parse session file", Err: err}
	}
	if token.AccessToken == "" {
		return nil, nil
	}
	return &token, nil
}

// Save writes the token, creating the config directory when missing.
func (r *FileTokenRepository) Save(token *models.Token) error {
	if err := os.MkdirAll(filepath.Dir(r.file), 0755); err != nil {
		return &models.StorageError{Message: "failed to create config directory", Err: err}
	}
	data, err := json.MarshalIndent(token, "", "  ")
	if err != nil {
		return &models.StorageError{Message: "failed to marshal session", Err: err}
	}
	if err := os.WriteFile(r.file, data, 0600); err != nil {
		return &models.StorageError{Message: "failed to write session file", Err: err}
	}
	return nil
}

// Clear removes the stored token. A missing file is not an error.
func (r *FileTokenRepository) Clear() error {
	if err := os.Remove(r.file); err != nil && !os.IsNotExist(err) {
		return &models.StorageError{Message: "failed to remove session file", Err: err}
	}
	return nil
}
