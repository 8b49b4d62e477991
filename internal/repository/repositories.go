package repository

import (
	"github.com/deppfellow/account-gateway/internal/server"
)

// Repositories is the container handed to the service layer.
type Repositories struct {
	Accounts *AccountRepository
}

// NewRepositories builds every repository over the server's storage engine.
func NewRepositories(s *server.Server) *Repositories {
	return &Repositories{
		Accounts: NewAccountRepository(s.DB, s.Logger),
	}
}
