package main

import (
	"context"
	"fmt"
	"time"

	"github.com/desertthunder/maestro/internal/auth"
	"github.com/desertthunder/maestro/internal/shared"
	"github.com/urfave/cli/v3"
)

func (r *Runner) password(cmd *cli.Command) (string, error) {
	if pw := cmd.String("password"); pw != "" {
		return pw, nil
	}
	pw, err := r.prompt("Password")
	if err != nil {
		return "", err
	}
	if pw == "" {
		return "", fmt.Errorf("%w: password", shared.ErrMissingArgument)
	}
	return pw, nil
}

// AuthSignup creates an account and stores the new session.
func (r *Runner) AuthSignup(ctx context.Context, cmd *cli.Command) error {
	accounts, err := r.userAccounts()
	if err != nil {
		return err
	}
	pw, err := r.password(cmd)
	if err != nil {
		return err
	}

	session, err := accounts.SignUp(ctx, cmd.String("email"), pw, cmd.String("name"))
	if err != nil {
		return err
	}
	if err := r.sessions().Save(session); err != nil {
		return err
	}

	r.logger.Info("account created", "user", session.UserID)
	return r.writePlain("✓ Welcome, %s! You are signed in.\n", session.DisplayName)
}

// AuthLogin signs in and stores the session.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	accounts, err := r.userAccounts()
	if err != nil {
		return err
	}
	pw, err := r.password(cmd)
	if err != nil {
		return err
	}

	session, err := accounts.SignIn(ctx, cmd.String("email"), pw)
	if err != nil {
		return err
	}
	if err := r.sessions().Save(session); err != nil {
		return err
	}

	r.logger.Info("signed in", "user", session.UserID)
	return r.writePlain("✓ Signed in as %s\n", session.DisplayName)
}

// AuthLogout removes the stored session.
func (r *Runner) AuthLogout(ctx context.Context, cmd *cli.Command) error {
	if err := r.sessions().SignOut(); err != nil {
		return err
	}
	return r.writePlain("✓ Signed out\n")
}

// AuthWhoami prints the signed-in account.
func (r *Runner) AuthWhoami(ctx context.Context, cmd *cli.Command) error {
	session, err := r.requireSession()
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(session, cmd.Bool("pretty"))
	}

	r.writePlain("Name:  %s\n", session.DisplayName)
	r.writePlain("Email: %s\n", session.Email)
	r.writePlain("ID:    %s\n", session.UserID)
	return nil
}

// AuthToken issues a JWT for the HTTP API.
func (r *Runner) AuthToken(ctx context.Context, cmd *cli.Command) error {
	session, err := r.requireSession()
	if err != nil {
		return err
	}

	ttl := cmd.Duration("ttl")
	if ttl <= 0 {
		ttl = r.config.Server.TTL()
	}

	token, err := auth.IssueToken([]byte(r.config.Server.JWTSecret), session, ttl)
	if err != nil {
		return err
	}

	r.logger.Debug("token issued", "user", session.UserID, "expires", time.Now().Add(ttl))
	return r.writePlain("%s\n", token)
}
