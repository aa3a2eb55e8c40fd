package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/YaniYesh22/snot/internal/client/auth"
	"github.com/YaniYesh22/snot/internal/common"
)

// getSimpleText, getPassword and getMultiline are indirections used to
// facilitate testing. They point to interactive input helpers and can be
// swapped in tests.
var getSimpleText = GetSimpleText
var getPassword = GetPassword
var getMultiline = GetMultiline

// Register walks the full sign-up flow: account creation, the emailed
// verification code, and the sign-in that follows confirmation. The
// password byte slice is wiped before returning.
func (a *App) Register(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", os.Stdout)
	if err != nil {
		return err
	}

	displayName, err := getSimpleText(a.reader, "Enter display name", os.Stdout)
	if err != nil {
		return err
	}

	password, err := getPassword(os.Stdout, "Enter password")
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	destination, err := a.gateway.SignUp(ctx, email, string(password), displayName)
	if err != nil {
		printAuthError(err)
		return err
	}
	printlnFn(fmt.Sprintf("Verification code sent to %s", destination))

	code, err := getSimpleText(a.reader, "Enter verification code", os.Stdout)
	if err != nil {
		return err
	}

	session, err := a.gateway.ConfirmSignUp(ctx, email, code, string(password))
	if err != nil {
		printAuthError(err)
		return err
	}

	return a.finishLogin(ctx, session)
}

// Login prompts for credentials and authenticates. On success the grace
// flag is armed so the next lifecycle check cannot undo this login.
func (a *App) Login(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", os.Stdout)
	if err != nil {
		return err
	}

	password, err := getPassword(os.Stdout, "Enter password")
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	session, err := a.gateway.SignIn(ctx, email, string(password))
	if err != nil {
		printAuthError(err)
		return err
	}

	return a.finishLogin(ctx, session)
}

func (a *App) finishLogin(ctx context.Context, session *auth.Session) error {
	if err := a.lifecycle.MarkJustLoggedIn(ctx); err != nil {
		a.log.Warn(ctx, "failed to arm post-login grace flag", "error", err)
	}
	a.userName = session.Identity.Email
	printlnFn(fmt.Sprintf("Logged in as %s", a.userName))

	if err := a.notes.Load(ctx); err != nil {
		a.log.Warn(ctx, "initial notebook load failed", "error", err)
	}
	return nil
}

func (a *App) Logout(ctx context.Context) error {
	if err := a.gateway.SignOut(ctx); err != nil {
		printAuthError(err)
		return err
	}
	a.userName = ""
	printlnFn("Logged out")
	return nil
}

// ResetPassword drives the emailed-code password reset flow.
func (a *App) ResetPassword(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", os.Stdout)
	if err != nil {
		return err
	}

	if err := a.gateway.RequestPasswordReset(ctx, email); err != nil {
		printAuthError(err)
		return err
	}
	printlnFn("Reset code sent, check your email")

	code, err := getSimpleText(a.reader, "Enter reset code", os.Stdout)
	if err != nil {
		return err
	}

	password, err := getPassword(os.Stdout, "Enter new password")
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	if err := a.gateway.ConfirmPasswordReset(ctx, email, code, string(password)); err != nil {
		printAuthError(err)
		return err
	}
	printlnFn("Password changed, you can 'login' now")
	return nil
}

// Whoami prints the identity behind the current session. A missing display
// name triggers a re-fetch from the provider, since the token claims alone
// do not always carry it.
func (a *App) Whoami(ctx context.Context) error {
	session, err := a.gateway.CurrentSession(ctx)
	if err != nil {
		printAuthError(err)
		return err
	}
	if !session.IsAuthenticated() {
		printlnFn("Not logged in")
		return nil
	}
	if session.Identity.DisplayName == "" {
		if id, err := a.gateway.RefreshIdentity(ctx); err != nil {
			a.log.Warn(ctx, "failed to refresh identity", "error", err)
		} else {
			session.Identity = id
		}
	}
	printlnFn(fmt.Sprintf("Email: %s", session.Identity.Email))
	if session.Identity.DisplayName != "" {
		printlnFn(fmt.Sprintf("Name:  %s", session.Identity.DisplayName))
	}
	if !session.Tokens.Expiry.IsZero() {
		printlnFn(fmt.Sprintf("Session expires: %s", session.Tokens.Expiry.Format("2006-01-02 15:04:05 MST")))
	}
	return nil
}

// Profile updates account attributes. Empty answers keep the current value.
func (a *App) Profile(ctx context.Context) error {
	displayName, err := getSimpleText(a.reader, "New display name (empty to keep)", os.Stdout)
	if err != nil {
		return err
	}
	email, err := getSimpleText(a.reader, "New email (empty to keep)", os.Stdout)
	if err != nil {
		return err
	}

	var patch auth.IdentityPatch
	if displayName != "" {
		patch.DisplayName = &displayName
	}
	if email != "" {
		patch.Email = &email
	}
	if patch.DisplayName == nil && patch.Email == nil {
		printlnFn("Nothing to change")
		return nil
	}

	if err := a.gateway.UpdateAttributes(ctx, patch); err != nil {
		printAuthError(err)
		return err
	}
	if email != "" {
		a.userName = email
	}
	printlnFn("Profile updated")
	return nil
}

// printAuthError translates the auth sentinels into user-facing messages.
func printAuthError(err error) {
	switch {
	case errors.Is(err, auth.ErrInvalidEmail):
		printlnFn("That does not look like a valid email address")
	case errors.Is(err, auth.ErrWeakPassword):
		printlnFn("Password too weak: use at least 8 characters with upper, lower and a digit")
	case errors.Is(err, auth.ErrDuplicateAccount):
		printlnFn("An account with this email already exists, try 'login'")
	case errors.Is(err, auth.ErrInvalidCredentials):
		printlnFn("Wrong email or password")
	case errors.Is(err, auth.ErrUnverifiedAccount):
		printlnFn("Account not verified yet, finish the 'register' flow first")
	case errors.Is(err, auth.ErrInvalidCode):
		printlnFn("That code is not right, check your email and try again")
	case errors.Is(err, auth.ErrExpiredCode):
		printlnFn("That code expired, request a new one")
	case errors.Is(err, auth.ErrNotAuthenticated):
		printlnFn("Not logged in")
	default:
		printlnFn("Something went wrong:", err.Error())
	}
}
