package auth

import "context"

// IdentityPatch describes a partial attribute update. Nil fields are left
// unchanged.
type IdentityPatch struct {
	Email       *string
	DisplayName *string
}

// Gateway defines the authentication operations the client needs from the
// identity provider.
//
// Contract:
//   - SignUp: create an account pending email verification.
//   - ConfirmSignUp: verify the account with the emailed code, then sign in.
//     The password is required because the provider's confirm call does not
//     mint tokens on its own.
//   - SignIn: authenticate and build a Session; refreshes the identity cache.
//   - SignOut: idempotent; an already-signed-out state is not an error.
//   - CurrentSession: (nil, nil) when unauthenticated — absence is expected.
//   - RequestPasswordReset / ConfirmPasswordReset: emailed-code reset flow.
//   - RefreshIdentity: re-fetch the attributes from the provider and merge
//     them into the live session and the identity cache.
//   - UpdateAttributes: push attribute changes and merge them into the live
//     session and the identity cache.
//
// All methods honor context cancellation.
type Gateway interface {
	SignUp(ctx context.Context, email, password, displayName string) (string, error)
	ConfirmSignUp(ctx context.Context, email, code, password string) (*Session, error)
	SignIn(ctx context.Context, email, password string) (*Session, error)
	SignOut(ctx context.Context) error
	CurrentSession(ctx context.Context) (*Session, error)
	RequestPasswordReset(ctx context.Context, email string) error
	ConfirmPasswordReset(ctx context.Context, email, code, newPassword string) error
	RefreshIdentity(ctx context.Context) (Identity, error)
	UpdateAttributes(ctx context.Context, patch IdentityPatch) error
}
