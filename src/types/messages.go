// Package types holds the messages shared across view components.
package types

// ErrorMsg surfaces a user-visible French error line in the top banner.
type ErrorMsg struct {
	Message string
}

// InfoMsg surfaces a transient French notice in the top banner.
type InfoMsg struct {
	Message string
}

// LogoutMsg asks the shell to end the session, from any view.
type LogoutMsg struct{}
