package memory

import (
	"context"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/datamesh-io/marketplace/internal/domain/user"
)

// devUsers are the canonical users provisioned in dev mode, one per seed
// domain. The password is "password" for all of them.
var devUsers = []user.User{
	{Username: "alice", Domain: "claims_management", DisplayName: "Alice Admin", Role: "claims_management"},
	{Username: "bob", Domain: "policy_administration", DisplayName: "Bob Manager", Role: "policy_administration"},
	{Username: "charlie", Domain: "risk_assessment", DisplayName: "Charlie Risk", Role: "risk_assessment"},
}

// Seed provisions the dev users into the store. Dev mode only; real user
// provisioning happens through the admin CLI.
func Seed(ctx context.Context, s *Store) error {
	hash, err := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.MinCost)
	if err != nil {
		return fmt.Errorf("hash seed password: %w", err)
	}

	for _, u := range devUsers {
		u.PasswordHash = string(hash)
		if err := s.CreateUser(ctx, &u); err != nil {
			return fmt.Errorf("seed user %s: %w", u.Username, err)
		}
	}
	return nil
}
