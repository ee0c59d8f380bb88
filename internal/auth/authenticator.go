package auth

import (
	"context"

	"github.com/splitsmart/splitsmart/internal/models"
)

// Authenticator abstracts the credential scheme so the service layer does
// not care whether accounts are password-based or federated.
type Authenticator interface {
	// Register creates a new account. Fails if the email or username is
	// already taken, or the credential is too weak.
	Register(ctx context.Context, username, email, credential string) (*models.User, error)

	// Authenticate verifies the credentials and returns the user on success.
	Authenticate(ctx context.Context, email, credential string) (*models.User, error)

	// ValidateCredential checks whether the credential meets the scheme's
	// minimum requirements.
	ValidateCredential(credential string) error
}
