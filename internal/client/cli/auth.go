package cli

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/taskmark/internal/common"
	"github.com/dmitrijs2005/taskmark/internal/validation"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

// readPasswordString reads a password and wipes the raw bytes.
func (a *App) readPasswordString() (string, error) {
	pw, err := getPassword(a.out)
	if err != nil {
		return "", err
	}
	defer common.WipeByteArray(pw)
	return string(pw), nil
}

// Register prompts for the sign-up form and creates the account.
func (a *App) Register(ctx context.Context) error {
	var f validation.SignUpForm
	var err error

	if f.Email, err = getSimpleText(a.reader, "Enter email", a.out); err != nil {
		return err
	}
	if f.DisplayName, err = getSimpleText(a.reader, "Enter display name (optional)", a.out); err != nil {
		return err
	}
	if f.Password, err = a.readPasswordString(); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Confirm password")
	if f.ConfirmPassword, err = a.readPasswordString(); err != nil {
		return err
	}

	if err := validation.Validate(f); err != nil {
		return err
	}

	if _, err := a.auth.SignUp(ctx, f.Email, f.Password, f.DisplayName); err != nil {
		return err
	}
	a.setMode(ModeOnline)
	fmt.Fprintln(a.out, "Success!")
	return nil
}

// Login prompts for credentials and signs in.
func (a *App) Login(ctx context.Context) error {
	var f validation.SignInForm
	var err error

	if f.Email, err = getSimpleText(a.reader, "Enter email", a.out); err != nil {
		return err
	}
	if f.Password, err = a.readPasswordString(); err != nil {
		return err
	}
	if err := validation.Validate(f); err != nil {
		return err
	}

	s, err := a.auth.SignIn(ctx, f.Email, f.Password)
	if err != nil {
		return err
	}
	a.setMode(ModeOnline)
	fmt.Fprintf(a.out, "Logged in as %s\n", s.User.Email)
	return nil
}

// Logout ends the session. The local session is cleared even when the
// backend cannot be reached.
func (a *App) Logout(ctx context.Context) error {
	if err := a.auth.SignOut(ctx); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Logged out")
	return nil
}

// ResetPassword asks the backend to send a recovery token to an email.
func (a *App) ResetPassword(ctx context.Context) error {
	var f validation.ResetPasswordForm
	var err error

	if f.Email, err = getSimpleText(a.reader, "Enter email", a.out); err != nil {
		return err
	}
	if err := validation.Validate(f); err != nil {
		return err
	}
	if err := a.auth.ResetPassword(ctx, f.Email); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "If the account exists, a recovery token has been sent. Use 'recover' to set a new password.")
	return nil
}

// Recover exchanges a recovery token for a session and sets a new password.
func (a *App) Recover(ctx context.Context) error {
	token, err := getSimpleText(a.reader, "Enter recovery token", a.out)
	if err != nil {
		return err
	}
	if token == "" {
		return validation.Errors{"token": "is required"}
	}

	if _, err := a.auth.VerifyRecovery(ctx, token); err != nil {
		return err
	}
	a.setMode(ModeOnline)
	return a.ChangePassword(ctx)
}

// ChangePassword sets a new password for the signed-in user.
func (a *App) ChangePassword(ctx context.Context) error {
	var f validation.NewPasswordForm
	var err error

	fmt.Fprintln(a.out, "New password")
	if f.Password, err = a.readPasswordString(); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Confirm password")
	if f.ConfirmPassword, err = a.readPasswordString(); err != nil {
		return err
	}
	if err := validation.Validate(f); err != nil {
		return err
	}

	if _, err := a.auth.UpdatePassword(ctx, f.Password); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Password updated")
	return nil
}

// Profile changes the display name.
func (a *App) Profile(ctx context.Context) error {
	current := ""
	if s, _ := a.auth.CurrentSession(); s != nil {
		current = s.User.DisplayName
	}

	var f validation.ProfileForm
	var err error
	if f.DisplayName, err = getSimpleText(a.reader, fmt.Sprintf("Display name [%s]", current), a.out); err != nil {
		return err
	}
	if err := validation.Validate(f); err != nil {
		return err
	}

	u, err := a.auth.UpdateProfile(ctx, f.DisplayName)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Display name set to %q\n", u.DisplayName)
	return nil
}
