package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/target/webui-auth/config"
	"github.com/target/webui-auth/internal/bootstrap"
	domainauth "github.com/target/webui-auth/internal/domain/auth"
)

type commandFn func(ctx *commandContext, args []string) error

type command struct {
	name        string
	description string
	run         commandFn
}

type commandContext struct {
	Ctx    context.Context
	Logger *slog.Logger
	Config config.AppConfig
	Client *bootstrap.Client
}

const defaultCommandTimeout = 2 * time.Minute

func main() {
	logger := bootstrap.InitLogger()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(2) //nolint:forbidigo // CLI must exit with failure status when no command is provided
	}

	cmdName := os.Args[1]
	cmd, ok := commands()[cmdName]
	if !ok {
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", cmdName)
		printUsage()
		os.Exit(2) //nolint:forbidigo // CLI must exit with failure status when command is unknown
	}

	cfg, err := bootstrap.LoadConfig()
	if err != nil {
		logger.Error("load config", "error", err)
		os.Exit(1) //nolint:forbidigo // CLI must signal configuration load failure to shell scripts
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, err := bootstrap.BuildClient(bootstrap.ClientOptions{
		Config: cfg,
		Logger: logger,
	})
	if err != nil {
		logger.Error("build client", "error", err)
		os.Exit(1) //nolint:forbidigo // CLI must signal wiring failure to shell scripts
	}

	// Rehydrate the persisted session before any command runs so a
	// previous login survives process restarts.
	if restoreErr := client.Auth.Restore(ctx, client.Tokens); restoreErr != nil {
		logger.Warn("session restore failed", "error", restoreErr)
	}

	cmdCtx := &commandContext{
		Ctx:    ctx,
		Logger: logger,
		Config: cfg,
		Client: client,
	}
	runErr := cmd.run(cmdCtx, os.Args[2:])

	if closeErr := client.Metrics.Close(); closeErr != nil {
		logger.Debug("statsd close failed", "error", closeErr)
	}

	if runErr != nil {
		logger.Error("command failed", "command", cmdName, "error", runErr)
		os.Exit(1) //nolint:forbidigo // CLI must propagate command execution failure to callers
	}
}

func commands() map[string]command {
	return map[string]command{
		"login": {
			name:        "login",
			description: "Sign in with email and password",
			run:         runLogin,
		},
		"signup": {
			name:        "signup",
			description: "Create a new account",
			run:         runSignUp,
		},
		"logout": {
			name:        "logout",
			description: "End the current session",
			run:         runLogout,
		},
		"status": {
			name:        "status",
			description: "Show the current session state",
			run:         runStatus,
		},
		"oauth": {
			name:        "oauth",
			description: "Sign in with an OAuth provider (google, facebook, github)",
			run:         runOAuth,
		},
		"forgot-password": {
			name:        "forgot-password",
			description: "Request a password reset email",
			run:         runForgotPassword,
		},
		"reset-password": {
			name:        "reset-password",
			description: "Complete a password reset with the emailed code",
			run:         runResetPassword,
		},
		"theme": {
			name:        "theme",
			description: "Show or toggle the dark/light theme preference",
			run:         runTheme,
		},
	}
}

func printUsage() {
	fmt.Fprintf(os.Stdout, "Usage: webui-auth <command> [flags]\n\n")
	fmt.Fprintf(os.Stdout, "Available commands:\n")
	for _, c := range commands() {
		fmt.Fprintf(os.Stdout, "  %-18s %s\n", c.name, c.description)
	}
}

func runLogin(cmdCtx *commandContext, args []string) error {
	fs := flag.NewFlagSet("login", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	email := fs.String("email", "", "Account email (required)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *email == "" {
		return errors.New("--email is required")
	}

	password, err := promptSecret("Password: ")
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmdCtx.Ctx, defaultCommandTimeout)
	defer cancel()

	creds := domainauth.Credentials{Email: *email, Password: password}
	if err := cmdCtx.Client.Auth.Login(ctx, creds); err != nil {
		return err
	}
	return printSession(cmdCtx)
}

func runSignUp(cmdCtx *commandContext, args []string) error {
	fs := flag.NewFlagSet("signup", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	email := fs.String("email", "", "Account email (required)")
	name := fs.String("name", "", "Display name")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *email == "" {
		return errors.New("--email is required")
	}

	password, err := promptSecret("Password: ")
	if err != nil {
		return err
	}
	confirm, err := promptSecret("Confirm password: ")
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmdCtx.Ctx, defaultCommandTimeout)
	defer cancel()

	creds := domainauth.SignUpCredentials{
		Email:           *email,
		Password:        password,
		ConfirmPassword: confirm,
		DisplayName:     *name,
	}
	if err := cmdCtx.Client.Auth.SignUp(ctx, creds); err != nil {
		return err
	}
	return printSession(cmdCtx)
}

func runLogout(cmdCtx *commandContext, _ []string) error {
	ctx, cancel := context.WithTimeout(cmdCtx.Ctx, defaultCommandTimeout)
	defer cancel()

	if err := cmdCtx.Client.Auth.Logout(ctx); err != nil {
		return err
	}
	fmt.Fprintln(os.Stdout, "Signed out.")
	return nil
}

func runStatus(cmdCtx *commandContext, _ []string) error {
	return printSession(cmdCtx)
}

func runOAuth(cmdCtx *commandContext, args []string) error {
	if len(args) < 1 {
		return errors.New("usage: webui-auth oauth <google|facebook|github>")
	}
	provider := domainauth.Provider(strings.ToLower(args[0]))
	if !provider.Valid() {
		return fmt.Errorf("unknown provider %q", args[0])
	}

	// Interactive flow; the user has to open a browser, so allow more time.
	ctx, cancel := context.WithTimeout(cmdCtx.Ctx, 5*time.Minute)
	defer cancel()

	if err := cmdCtx.Client.Auth.SignInWithProvider(ctx, provider); err != nil {
		return err
	}
	return printSession(cmdCtx)
}

func runForgotPassword(cmdCtx *commandContext, args []string) error {
	fs := flag.NewFlagSet("forgot-password", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	email := fs.String("email", "", "Account email (required)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *email == "" {
		return errors.New("--email is required")
	}

	ctx, cancel := context.WithTimeout(cmdCtx.Ctx, defaultCommandTimeout)
	defer cancel()

	if err := cmdCtx.Client.Auth.ForgotPassword(ctx, *email); err != nil {
		return err
	}
	fmt.Fprintln(os.Stdout, "Password reset email sent. Check your inbox.")
	return nil
}

func runResetPassword(cmdCtx *commandContext, args []string) error {
	fs := flag.NewFlagSet("reset-password", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	code := fs.String("code", "", "Reset code from the email (required)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *code == "" {
		return errors.New("--code is required")
	}

	password, err := promptSecret("New password: ")
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmdCtx.Ctx, defaultCommandTimeout)
	defer cancel()

	if err := cmdCtx.Client.Auth.ResetPassword(ctx, *code, password); err != nil {
		return err
	}
	fmt.Fprintln(os.Stdout, "Password updated. You can now sign in.")
	return nil
}

func runTheme(cmdCtx *commandContext, args []string) error {
	manager := cmdCtx.Client.Theme
	if len(args) > 0 && args[0] == "toggle" {
		if _, err := manager.Toggle(); err != nil {
			return err
		}
	}
	fmt.Fprintf(os.Stdout, "Theme: %s\n", manager.Current())
	return nil
}

func printSession(cmdCtx *commandContext) error {
	snap := cmdCtx.Client.Store.Snapshot()

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "Authenticated\t%t\n", snap.IsAuthenticated)
	if snap.User != nil {
		fmt.Fprintf(w, "User ID\t%s\n", snap.User.ID)
		fmt.Fprintf(w, "Email\t%s\n", snap.User.Email)
		if snap.User.DisplayName != "" {
			fmt.Fprintf(w, "Name\t%s\n", snap.User.DisplayName)
		}
		fmt.Fprintf(w, "Role\t%s\n", snap.User.Role)
	}
	if snap.Err != "" {
		fmt.Fprintf(w, "Error\t%s\n", snap.Err)
	}
	return w.Flush()
}

func promptSecret(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("read input: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}
