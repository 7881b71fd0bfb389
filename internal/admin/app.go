// Package admin implements the operator command line: it registers users,
// issues activation links, redeems tokens and logs in directly against the
// account engine, without going through the HTTP or gRPC front ends.
package admin

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/dmitrijs2005/vitae/internal/common"
	"github.com/dmitrijs2005/vitae/internal/server/models"
	"github.com/dmitrijs2005/vitae/internal/server/services"
)

// ErrUsage is returned for an unknown command or missing arguments.
var ErrUsage = errors.New("usage error")

const usage = `Usage: admin [config flags] <command> [args]

Commands:
  register              create a user and print its activation link
  issue-token <userID>  replace the user's activation token and print the link
  activate <token>      redeem an activation token
  login <email>         print a bearer token for an active user
  help                  show this message
`

// Accounts is the part of the account engine the CLI drives.
type Accounts interface {
	RegisterUser(ctx context.Context, in services.RegisterInput) (*models.User, error)
	GetActivationToken(ctx context.Context, userID string) (*models.ActivationToken, error)
	SendActivationEmail(ctx context.Context, token *models.ActivationToken, user *models.User) error
	ActivationLink(value string) string
	ActivateUser(ctx context.Context, tokenValue string) error
	GetAuthorizationToken(ctx context.Context, email, password string) (string, error)
}

var _ Accounts = (*services.AccountService)(nil)

type App struct {
	accounts Accounts
	reader   *bufio.Reader
	out      io.Writer
}

func NewApp(accounts Accounts, in io.Reader, out io.Writer) *App {
	return &App{accounts: accounts, reader: bufio.NewReader(in), out: out}
}

// Run executes a single command.
func (a *App) Run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		fmt.Fprint(a.out, usage)
		return ErrUsage
	}

	cmd, rest := args[0], args[1:]

	switch cmd {
	case "help", "-help", "--help":
		fmt.Fprint(a.out, usage)
		return nil
	case "register":
		return a.register(ctx)
	case "issue-token":
		if len(rest) != 1 {
			return fmt.Errorf("%w: issue-token <userID>", ErrUsage)
		}
		return a.issueToken(ctx, rest[0])
	case "activate":
		if len(rest) != 1 {
			return fmt.Errorf("%w: activate <token>", ErrUsage)
		}
		return a.activate(ctx, rest[0])
	case "login":
		if len(rest) != 1 {
			return fmt.Errorf("%w: login <email>", ErrUsage)
		}
		return a.login(ctx, rest[0])
	default:
		fmt.Fprint(a.out, usage)
		return fmt.Errorf("%w: unknown command %q", ErrUsage, cmd)
	}
}

func (a *App) register(ctx context.Context) error {
	name, err := GetSimpleText(a.reader, "Enter name", a.out)
	if err != nil {
		return err
	}
	email, err := GetSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}
	password, err := GetPassword(a.reader, "Enter password", a.out)
	if err != nil {
		return err
	}
	confirmation, err := GetPassword(a.reader, "Repeat password", a.out)
	if err != nil {
		return err
	}

	in := services.RegisterInput{
		Name:                 strings.TrimSpace(name),
		Email:                strings.TrimSpace(email),
		Password:             password,
		PasswordConfirmation: confirmation,
	}
	if err := in.Validate(); err != nil {
		return fmt.Errorf("%w: %v", common.ErrValidation, err)
	}

	user, err := a.accounts.RegisterUser(ctx, in)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "User created: %s\n", user.ID)
	return a.issueAndSend(ctx, user)
}

func (a *App) issueToken(ctx context.Context, userID string) error {
	token, err := a.accounts.GetActivationToken(ctx, userID)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Activation link: %s\n", a.accounts.ActivationLink(token.Value))
	return nil
}

// issueAndSend prints the link first so a mail failure does not lose it.
func (a *App) issueAndSend(ctx context.Context, user *models.User) error {
	token, err := a.accounts.GetActivationToken(ctx, user.ID)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Activation link: %s\n", a.accounts.ActivationLink(token.Value))

	if err := a.accounts.SendActivationEmail(ctx, token, user); err != nil {
		fmt.Fprintf(a.out, "Warning: activation email not sent: %v\n", err)
	}
	return nil
}

func (a *App) activate(ctx context.Context, token string) error {
	if err := a.accounts.ActivateUser(ctx, token); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "User activated")
	return nil
}

func (a *App) login(ctx context.Context, email string) error {
	password, err := GetPassword(a.reader, "Enter password", a.out)
	if err != nil {
		return err
	}
	token, err := a.accounts.GetAuthorizationToken(ctx, email, password)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, token)
	return nil
}

// CommandArgs drops config flags and their values from args, leaving the
// command and its operands. Every config flag takes a value.
func CommandArgs(args []string) []string {
	out := make([]string, 0, len(args))
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if arg == "--" {
			return append(out, args[i+1:]...)
		}
		if !strings.HasPrefix(arg, "-") || len(out) > 0 {
			out = append(out, arg)
			continue
		}
		if strings.Contains(arg, "=") {
			continue
		}
		if i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
			i++
		}
	}
	return out
}
