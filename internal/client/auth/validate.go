package auth

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// signUpForm mirrors the fields checked before any network call. Validation
// failures are surfaced inline and never reach the identity provider.
type signUpForm struct {
	Email       string `validate:"required,email"`
	Password    string `validate:"required,min=8"`
	DisplayName string `validate:"required,max=128"`
}

func validateEmail(email string) error {
	if err := validate.Var(email, "required,email"); err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidEmail, email)
	}
	return nil
}

func validateSignUp(email, password, displayName string) error {
	form := signUpForm{Email: email, Password: password, DisplayName: displayName}
	err := validate.Struct(form)
	if err == nil {
		return nil
	}
	if errs, ok := err.(validator.ValidationErrors); ok {
		for _, fe := range errs {
			switch fe.Field() {
			case "Email":
				return fmt.Errorf("%w: %q", ErrInvalidEmail, email)
			case "Password":
				return fmt.Errorf("%w: at least 8 characters required", ErrWeakPassword)
			}
		}
	}
	return err
}
