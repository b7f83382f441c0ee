package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/guarzo/bcards/common"
	"github.com/guarzo/bcards/common/model"
	"github.com/guarzo/bcards/config"
)

const skipSetup = "bcard/skip-setup"

func newRootCmd() *cobra.Command {
	var (
		envFile     string
		showMetrics bool
		a           = new(app)
	)

	root := &cobra.Command{
		Use:           "bcard",
		Short:         "Business card directory client",
		Long:          "bcard browses, creates and manages business cards against the bcard REST API.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !needsSetup(cmd) {
				return nil
			}
			var files []string
			if envFile != "" {
				files = append(files, envFile)
			}
			if err := config.LoadEnv(files...); err != nil {
				return err
			}
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if err := config.Logging(cfg.LogLevel); err != nil {
				return err
			}
			built, err := newApp(cfg)
			if err != nil {
				return err
			}
			*a = *built
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if a.cfg == nil {
				return nil
			}
			defer a.close()
			if showMetrics {
				return a.writeMetrics(cmd.ErrOrStderr())
			}
			return nil
		},
	}

	root.PersistentFlags().StringVar(&envFile, "env-file", "", "load environment from this file instead of ./.env")
	root.PersistentFlags().BoolVar(&showMetrics, "metrics", false, "print client metrics to stderr when done")

	root.AddCommand(
		versionCmd(),
		loginCmd(a),
		logoutCmd(a),
		registerCmd(a),
		whoamiCmd(a),
		cardsCmd(a),
		adminCmd(a),
		shellCmd(a),
	)
	return root
}

func needsSetup(cmd *cobra.Command) bool {
	if cmd.Annotations[skipSetup] == "true" || cmd.Name() == "help" {
		return false
	}
	for p := cmd; p != nil; p = p.Parent() {
		if p.Name() == "completion" {
			return false
		}
	}
	return true
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:         "version",
		Short:       "Print version information",
		Annotations: map[string]string{skipSetup: "true"},
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "bcard %s (commit: %s)\n", version, commit)
		},
	}
}

func loginCmd(a *app) *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and store the session token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				p, err := prompt(cmd, "Password: ")
				if err != nil {
					return err
				}
				password = p
			}
			ident, err := a.users.Login(cmd.Context(), email, password)
			if err != nil {
				return describe(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s\n", displayName(ident))
			return nil
		},
	}
	cmd.Flags().StringVarP(&email, "email", "e", "", "account email")
	cmd.Flags().StringVarP(&password, "password", "p", "", "account password (prompted when empty)")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func logoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.users.Logout(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
			return nil
		},
	}
}

func registerCmd(a *app) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account from a YAML file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var reg model.Registration
			if err := readYAML(file, &reg); err != nil {
				return err
			}
			user, err := a.users.Register(cmd.Context(), reg)
			if err != nil {
				return describe(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Registered %s (%s)\n", user.Email, user.ID)
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "registration YAML file")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func whoamiCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ident, err := a.users.CurrentIdentity()
			if err != nil {
				return describe(err)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "ID:       %s\n", ident.ID)
			if user, err := a.users.CurrentUser(cmd.Context()); err == nil {
				fmt.Fprintf(out, "Name:     %s\n", user.Name.Full())
				fmt.Fprintf(out, "Email:    %s\n", user.Email)
			} else if ident.Email != "" {
				fmt.Fprintf(out, "Email:    %s\n", ident.Email)
			}
			fmt.Fprintf(out, "Business: %t\n", ident.IsBusiness)
			fmt.Fprintf(out, "Admin:    %t\n", ident.IsAdmin)
			return nil
		},
	}
}

// userError is an error reworded for the terminal. It still unwraps to the
// original so callers can inspect it.
type userError struct {
	msg string
	err error
}

func (e *userError) Error() string { return e.msg }
func (e *userError) Unwrap() error { return e.err }

// describe turns identity, permission and HTTP errors into messages a user
// can act on. Other errors pass through.
func describe(err error) error {
	var (
		done    *userError
		httpErr *common.HTTPError
	)
	switch {
	case err == nil, errors.As(err, &done):
		return err
	case errors.Is(err, common.ErrUnauthenticated):
		return &userError{"not logged in, run `bcard login` first", err}
	case errors.Is(err, common.ErrUnidentifiable):
		return &userError{"stored session is invalid, log in again", err}
	case errors.Is(err, common.ErrForbidden):
		return &userError{"your account is not allowed to do that", err}
	case errors.As(err, &httpErr):
		return &userError{fmt.Sprintf("%s (HTTP %d)", httpErr.Message(), httpErr.StatusCode), err}
	}
	return err
}

func displayName(ident *model.Identity) string {
	switch {
	case ident.Name != "":
		return ident.Name
	case ident.Email != "":
		return ident.Email
	}
	return ident.ID
}

func prompt(cmd *cobra.Command, label string) (string, error) {
	fmt.Fprint(cmd.OutOrStdout(), label)
	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func confirmPrompt(cmd *cobra.Command, question string) (bool, error) {
	answer, err := prompt(cmd, question+" [y/N]: ")
	if err != nil {
		return false, err
	}
	switch strings.ToLower(answer) {
	case "y", "yes":
		return true, nil
	}
	return false, nil
}

func readYAML(path string, out interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}
	return nil
}
