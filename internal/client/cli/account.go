package cli

import (
	"context"
	"strings"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

// Register prompts for email, password and an optional display name and
// creates the account. It does not log in.
func (a *App) Register(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}

	password, err := getPassword(a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	name, err := getSimpleText(a.reader, "Enter name (optional)", a.out)
	if err != nil {
		return err
	}

	ctx, cancel := a.requestContext(ctx)
	defer cancel()

	info, err := a.authService.Register(ctx, email, password, name)
	if err != nil {
		a.noteFailure(err)
		return err
	}

	a.println("Registered", info.Email+". Check your inbox for the verification link.")
	return nil
}

// Login prompts for credentials and starts a session that is cached
// locally until logout.
func (a *App) Login(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}

	password, err := getPassword(a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	ctx, cancel := a.requestContext(ctx)
	defer cancel()

	info, err := a.authService.Login(ctx, email, password)
	if err != nil {
		a.noteFailure(err)
		return err
	}

	a.email = info.Email
	a.setMode(ModeOnline)
	if !info.Verified {
		a.println("Logged in. Email not verified yet.")
	} else {
		a.println("Logged in.")
	}
	return nil
}

// Logout ends the session on the server and forgets it locally.
func (a *App) Logout(ctx context.Context) error {
	ctx, cancel := a.requestContext(ctx)
	defer cancel()

	err := a.authService.Logout(ctx)
	a.email = ""
	if err != nil {
		a.noteFailure(err)
		return err
	}

	a.println("Logged out.")
	return nil
}

// Me shows the email of the logged-in account as the server sees it.
func (a *App) Me(ctx context.Context) error {
	ctx, cancel := a.requestContext(ctx)
	defer cancel()

	email, err := a.authService.Current(ctx)
	if err != nil {
		a.noteFailure(err)
		return err
	}

	a.println(email)
	return nil
}

func (a *App) Verify(ctx context.Context, token string) error {
	ctx, cancel := a.requestContext(ctx)
	defer cancel()

	if err := a.authService.Verify(ctx, token); err != nil {
		a.noteFailure(err)
		return err
	}

	a.println("Email verified.")
	return nil
}

// Resend asks for a new verification email. Without an argument it uses
// the email of the cached session.
func (a *App) Resend(ctx context.Context, email string) error {
	ctx, cancel := a.requestContext(ctx)
	defer cancel()

	msg, err := a.authService.ResendVerification(ctx, email)
	if err != nil {
		a.noteFailure(err)
		return err
	}

	a.println(resendOutcome(msg))
	return nil
}

// resendOutcome turns the server reply into a sentence for the terminal.
func resendOutcome(msg string) string {
	if msg == "" {
		return "Verification email sent."
	}
	return strings.ToUpper(msg[:1]) + msg[1:] + "."
}

func (a *App) Avatar(ctx context.Context, path string) error {
	ctx, cancel := a.requestContext(ctx)
	defer cancel()

	start := time.Now()
	url, err := a.authService.UploadAvatar(ctx, path)
	if err != nil {
		a.noteFailure(err)
		return err
	}

	a.println("Avatar uploaded in", elapsed(start)+":", url)
	return nil
}

func (a *App) Emails(ctx context.Context) error {
	ctx, cancel := a.requestContext(ctx)
	defer cancel()

	emails, err := a.authService.ListEmails(ctx)
	if err != nil {
		a.noteFailure(err)
		return err
	}

	if len(emails) == 0 {
		a.println("No accounts.")
		return nil
	}
	for _, e := range emails {
		a.println(e)
	}
	return nil
}
