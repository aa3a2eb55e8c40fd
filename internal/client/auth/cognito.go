package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider/types"

	"github.com/YaniYesh22/snot/internal/logging"
)

// identityAPI is the subset of the Cognito client the gateway uses.
// Tests provide a fake.
type identityAPI interface {
	SignUp(ctx context.Context, in *cognitoidentityprovider.SignUpInput, optFns ...func(*cognitoidentityprovider.Options)) (*cognitoidentityprovider.SignUpOutput, error)
	ConfirmSignUp(ctx context.Context, in *cognitoidentityprovider.ConfirmSignUpInput, optFns ...func(*cognitoidentityprovider.Options)) (*cognitoidentityprovider.ConfirmSignUpOutput, error)
	InitiateAuth(ctx context.Context, in *cognitoidentityprovider.InitiateAuthInput, optFns ...func(*cognitoidentityprovider.Options)) (*cognitoidentityprovider.InitiateAuthOutput, error)
	GlobalSignOut(ctx context.Context, in *cognitoidentityprovider.GlobalSignOutInput, optFns ...func(*cognitoidentityprovider.Options)) (*cognitoidentityprovider.GlobalSignOutOutput, error)
	GetUser(ctx context.Context, in *cognitoidentityprovider.GetUserInput, optFns ...func(*cognitoidentityprovider.Options)) (*cognitoidentityprovider.GetUserOutput, error)
	UpdateUserAttributes(ctx context.Context, in *cognitoidentityprovider.UpdateUserAttributesInput, optFns ...func(*cognitoidentityprovider.Options)) (*cognitoidentityprovider.UpdateUserAttributesOutput, error)
	ForgotPassword(ctx context.Context, in *cognitoidentityprovider.ForgotPasswordInput, optFns ...func(*cognitoidentityprovider.Options)) (*cognitoidentityprovider.ForgotPasswordOutput, error)
	ConfirmForgotPassword(ctx context.Context, in *cognitoidentityprovider.ConfirmForgotPasswordInput, optFns ...func(*cognitoidentityprovider.Options)) (*cognitoidentityprovider.ConfirmForgotPasswordOutput, error)
}

// CognitoGateway implements Gateway against a Cognito user pool.
type CognitoGateway struct {
	api      identityAPI
	clientID string
	cache    *IdentityCache
	log      logging.Logger

	mu      sync.Mutex
	session *Session

	now func() time.Time
}

// NewCognitoGateway builds a gateway for the given region and app client id.
// User-pool calls are unauthenticated; no AWS credentials are required.
func NewCognitoGateway(ctx context.Context, region, clientID string, cache *IdentityCache, log logging.Logger) (*CognitoGateway, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(region),
		awsconfig.WithCredentialsProvider(aws.AnonymousCredentials{}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}
	api := cognitoidentityprovider.NewFromConfig(awsCfg)
	return newGateway(api, clientID, cache, log), nil
}

func newGateway(api identityAPI, clientID string, cache *IdentityCache, log logging.Logger) *CognitoGateway {
	return &CognitoGateway{
		api:      api,
		clientID: clientID,
		cache:    cache,
		log:      log,
		now:      time.Now,
	}
}

// SignUp creates a pending account. The returned token identifies the
// pending registration (the provider's user sub).
func (g *CognitoGateway) SignUp(ctx context.Context, email, password, displayName string) (string, error) {
	if err := validateSignUp(email, password, displayName); err != nil {
		return "", err
	}

	out, err := g.api.SignUp(ctx, &cognitoidentityprovider.SignUpInput{
		ClientId: aws.String(g.clientID),
		Username: aws.String(email),
		Password: aws.String(password),
		UserAttributes: []types.AttributeType{
			{Name: aws.String("email"), Value: aws.String(email)},
			{Name: aws.String("name"), Value: aws.String(displayName)},
		},
	})
	if err != nil {
		return "", mapSignUpError(err)
	}

	return aws.ToString(out.UserSub), nil
}

// ConfirmSignUp verifies the account with the emailed code and then signs
// in, so the caller ends up with a live session.
func (g *CognitoGateway) ConfirmSignUp(ctx context.Context, email, code, password string) (*Session, error) {
	_, err := g.api.ConfirmSignUp(ctx, &cognitoidentityprovider.ConfirmSignUpInput{
		ClientId:         aws.String(g.clientID),
		Username:         aws.String(email),
		ConfirmationCode: aws.String(code),
	})
	if err != nil {
		return nil, mapCodeError(err)
	}

	return g.SignIn(ctx, email, password)
}

// SignIn authenticates with email and password, fetches the user's
// attributes, and persists the identity cache.
func (g *CognitoGateway) SignIn(ctx context.Context, email, password string) (*Session, error) {
	if err := validateEmail(email); err != nil {
		return nil, err
	}

	out, err := g.api.InitiateAuth(ctx, &cognitoidentityprovider.InitiateAuthInput{
		AuthFlow: types.AuthFlowTypeUserPasswordAuth,
		ClientId: aws.String(g.clientID),
		AuthParameters: map[string]string{
			"USERNAME": email,
			"PASSWORD": password,
		},
	})
	if err != nil {
		return nil, mapSignInError(err)
	}
	if out.AuthenticationResult == nil {
		return nil, fmt.Errorf("sign-in challenge not supported: %v", out.ChallengeName)
	}

	session, err := sessionFromTokens(
		aws.ToString(out.AuthenticationResult.IdToken),
		aws.ToString(out.AuthenticationResult.AccessToken),
	)
	if err != nil {
		return nil, err
	}
	if session.Identity.Email == "" {
		session.Identity.Email = email
	}

	// Attribute fetch failures fall back to token claims; the login itself
	// already succeeded.
	if id, err := g.fetchIdentity(ctx, session.Tokens.AccessToken); err != nil {
		g.log.Warn(ctx, "failed to fetch user attributes", "error", err)
	} else {
		if id.Email != "" {
			session.Identity.Email = id.Email
		}
		if id.DisplayName != "" {
			session.Identity.DisplayName = id.DisplayName
		}
	}

	if err := g.cache.Save(ctx, session.Identity); err != nil {
		g.log.Warn(ctx, "failed to persist identity cache", "error", err)
	}

	g.mu.Lock()
	g.session = session
	g.mu.Unlock()

	return session, nil
}

// SignOut revokes the session with the provider and drops local tokens.
// Calling it with no session, or when the provider reports "not
// authenticated", is a successful no-op.
func (g *CognitoGateway) SignOut(ctx context.Context) error {
	g.mu.Lock()
	session := g.session
	g.session = nil
	g.mu.Unlock()

	if session == nil || session.Tokens.AccessToken == "" {
		return nil
	}

	_, err := g.api.GlobalSignOut(ctx, &cognitoidentityprovider.GlobalSignOutInput{
		AccessToken: aws.String(session.Tokens.AccessToken),
	})
	if err != nil {
		var notAuth *types.NotAuthorizedException
		if errors.As(err, &notAuth) {
			return nil
		}
		// Local state is already cleared; the revocation failure is
		// surfaced so callers may retry.
		return fmt.Errorf("sign-out failed: %w", err)
	}
	return nil
}

// CurrentSession returns the live session, or (nil, nil) when there is
// none. Expired tokens count as no session.
func (g *CognitoGateway) CurrentSession(_ context.Context) (*Session, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.session == nil {
		return nil, nil
	}
	if g.session.Expired(g.now()) {
		g.session = nil
		return nil, nil
	}
	copied := *g.session
	return &copied, nil
}

func (g *CognitoGateway) RequestPasswordReset(ctx context.Context, email string) error {
	if err := validateEmail(email); err != nil {
		return err
	}
	_, err := g.api.ForgotPassword(ctx, &cognitoidentityprovider.ForgotPasswordInput{
		ClientId: aws.String(g.clientID),
		Username: aws.String(email),
	})
	if err != nil {
		return fmt.Errorf("password reset request failed: %w", err)
	}
	return nil
}

func (g *CognitoGateway) ConfirmPasswordReset(ctx context.Context, email, code, newPassword string) error {
	_, err := g.api.ConfirmForgotPassword(ctx, &cognitoidentityprovider.ConfirmForgotPasswordInput{
		ClientId:         aws.String(g.clientID),
		Username:         aws.String(email),
		ConfirmationCode: aws.String(code),
		Password:         aws.String(newPassword),
	})
	if err != nil {
		return mapCodeError(err)
	}
	return nil
}

// RefreshIdentity re-fetches the user's attributes from the provider and
// merges them into the live session and the identity cache. Callers use it
// when the session identity is incomplete, e.g. a missing display name.
func (g *CognitoGateway) RefreshIdentity(ctx context.Context) (Identity, error) {
	g.mu.Lock()
	session := g.session
	g.mu.Unlock()

	if session == nil || session.Tokens.AccessToken == "" {
		return Identity{}, ErrNotAuthenticated
	}

	id, err := g.fetchIdentity(ctx, session.Tokens.AccessToken)
	if err != nil {
		return Identity{}, fmt.Errorf("attribute fetch failed: %w", err)
	}

	g.mu.Lock()
	if g.session != nil {
		if id.Email != "" {
			g.session.Identity.Email = id.Email
		}
		if id.DisplayName != "" {
			g.session.Identity.DisplayName = id.DisplayName
		}
		id = g.session.Identity
	}
	g.mu.Unlock()

	if err := g.cache.Save(ctx, id); err != nil {
		g.log.Warn(ctx, "failed to persist identity cache", "error", err)
	}
	return id, nil
}

// UpdateAttributes pushes the patch to the provider and merges it into the
// live session identity and the identity cache.
func (g *CognitoGateway) UpdateAttributes(ctx context.Context, patch IdentityPatch) error {
	g.mu.Lock()
	session := g.session
	g.mu.Unlock()

	if session == nil {
		return ErrNotAuthenticated
	}

	var attrs []types.AttributeType
	if patch.Email != nil {
		attrs = append(attrs, types.AttributeType{Name: aws.String("email"), Value: aws.String(*patch.Email)})
	}
	if patch.DisplayName != nil {
		attrs = append(attrs, types.AttributeType{Name: aws.String("name"), Value: aws.String(*patch.DisplayName)})
	}
	if len(attrs) == 0 {
		return nil
	}

	_, err := g.api.UpdateUserAttributes(ctx, &cognitoidentityprovider.UpdateUserAttributesInput{
		AccessToken:    aws.String(session.Tokens.AccessToken),
		UserAttributes: attrs,
	})
	if err != nil {
		return fmt.Errorf("attribute update failed: %w", err)
	}

	g.mu.Lock()
	if g.session != nil {
		if patch.Email != nil {
			g.session.Identity.Email = *patch.Email
		}
		if patch.DisplayName != nil {
			g.session.Identity.DisplayName = *patch.DisplayName
		}
		session = g.session
	}
	g.mu.Unlock()

	if err := g.cache.Save(ctx, session.Identity); err != nil {
		g.log.Warn(ctx, "failed to persist identity cache", "error", err)
	}
	return nil
}

func (g *CognitoGateway) fetchIdentity(ctx context.Context, accessToken string) (Identity, error) {
	out, err := g.api.GetUser(ctx, &cognitoidentityprovider.GetUserInput{
		AccessToken: aws.String(accessToken),
	})
	if err != nil {
		return Identity{}, err
	}
	var id Identity
	for _, attr := range out.UserAttributes {
		switch aws.ToString(attr.Name) {
		case "email":
			id.Email = aws.ToString(attr.Value)
		case "name":
			id.DisplayName = aws.ToString(attr.Value)
		}
	}
	return id, nil
}

func mapSignUpError(err error) error {
	var (
		exists   *types.UsernameExistsException
		weak     *types.InvalidPasswordException
		badParam *types.InvalidParameterException
	)
	switch {
	case errors.As(err, &exists):
		return fmt.Errorf("%w", ErrDuplicateAccount)
	case errors.As(err, &weak):
		return fmt.Errorf("%w: %s", ErrWeakPassword, aws.ToString(weak.Message))
	case errors.As(err, &badParam):
		return fmt.Errorf("%w: %s", ErrInvalidEmail, aws.ToString(badParam.Message))
	default:
		return fmt.Errorf("sign-up failed: %w", err)
	}
}

func mapSignInError(err error) error {
	var (
		notAuth     *types.NotAuthorizedException
		notFound    *types.UserNotFoundException
		unconfirmed *types.UserNotConfirmedException
	)
	switch {
	case errors.As(err, &notAuth), errors.As(err, &notFound):
		return fmt.Errorf("%w", ErrInvalidCredentials)
	case errors.As(err, &unconfirmed):
		return fmt.Errorf("%w", ErrUnverifiedAccount)
	default:
		return fmt.Errorf("sign-in failed: %w", err)
	}
}

func mapCodeError(err error) error {
	var (
		mismatch *types.CodeMismatchException
		expired  *types.ExpiredCodeException
	)
	switch {
	case errors.As(err, &mismatch):
		return fmt.Errorf("%w", ErrInvalidCode)
	case errors.As(err, &expired):
		return fmt.Errorf("%w", ErrExpiredCode)
	default:
		return fmt.Errorf("confirmation failed: %w", err)
	}
}
