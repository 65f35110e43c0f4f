// Package storage provides repository interfaces for persistent local state.
package storage

import "sensechat/src/models"

// TokenRepository persists the session token between runs so a restart can
// skip the login screen while the token is still valid.
type TokenRepository interface {
	Load() (*models.Token, error)
	Save(token *models.Token) error
	Clear() error
}
