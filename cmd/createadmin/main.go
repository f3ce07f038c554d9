// Command createadmin bootstraps an admin account. The password is read from
// the terminal without echo, or from stdin when it is not a terminal.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"golang.org/x/term"

	"github.com/iliyamo/travel-planner/internal/config"
	"github.com/iliyamo/travel-planner/internal/database"
	"github.com/iliyamo/travel-planner/internal/logging"
	"github.com/iliyamo/travel-planner/internal/model"
	"github.com/iliyamo/travel-planner/internal/queue"
	"github.com/iliyamo/travel-planner/internal/repository"
	"github.com/iliyamo/travel-planner/internal/service"
	"github.com/iliyamo/travel-planner/internal/validation"
)

func main() {
	name := flag.String("name", "admin", "display name")
	email := flag.String("email", "", "admin email (required)")
	flag.Parse()

	if err := run(*name, *email); err != nil {
		fmt.Fprintln(os.Stderr, "createadmin:", err)
		os.Exit(1)
	}
}

func run(name, email string) error {
	if email == "" {
		return errors.New("-email is required")
	}
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	password, err := readPassword(os.Stdin, os.Stderr, "Password: ")
	if err != nil {
		return err
	}
	confirm, err := readPassword(os.Stdin, os.Stderr, "Confirm password: ")
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := database.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer db.Close()
	if err := database.Migrate(ctx, db); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	svc := service.NewAuthService(repository.NewAccountRepo(db), service.AuthConfig{
		Secret:     cfg.JWTSecret,
		TTL:        cfg.JWTTTL,
		BcryptCost: cfg.BcryptCost,
	}, queue.NopPublisher{}, validation.New())

	acc, err := svc.CreateAccount(ctx, service.CreateAccountInput{
		RegisterInput: service.RegisterInput{Name: name, Email: email, Password: password, PasswordConfirm: confirm},
		Role:          string(model.RoleAdmin),
	})
	if err != nil {
		return err
	}
	logging.New(cfg.Env).Info(ctx, "admin account created", "id", acc.ID, "email", acc.Email)
	return nil
}

// stdinReader is shared so piped input survives across prompts.
var stdinReader *bufio.Reader

func readPassword(in *os.File, out io.Writer, prompt string) (string, error) {
	fmt.Fprint(out, prompt)
	if term.IsTerminal(int(in.Fd())) {
		b, err := term.ReadPassword(int(in.Fd()))
		fmt.Fprintln(out)
		if err != nil {
			return "", fmt.Errorf("read password: %w", err)
		}
		return string(b), nil
	}
	if stdinReader == nil {
		stdinReader = bufio.NewReader(in)
	}
	line, err := stdinReader.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", fmt.Errorf("read password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}
