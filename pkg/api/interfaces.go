package api

import "github.com/ssargent/muninn/pkg/history"

// SessionStore persists finished parse runs. A nil store disables
// history without disabling the API.
type SessionStore interface {
	Put(session *history.Session) error
	Get(id string) (*history.Session, error)
	List() ([]*history.Session, error)
	Delete(id string) error
}
