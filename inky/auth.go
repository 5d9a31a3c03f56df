package main

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"inkyspace/internal/cli/config"
	"inkyspace/internal/client"
	"inkyspace/internal/models"
)

func newConnectCommand(opts *rootOptions) *cobra.Command {
	var inDir bool
	cmd := &cobra.Command{
		Use:   "connect <url>",
		Short: "Save an API server as the default connection",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rawURL := strings.TrimSuffix(strings.TrimSpace(args[0]), "/")
			if _, err := url.ParseRequestURI(rawURL); err != nil {
				return fmt.Errorf("invalid url: %w", err)
			}
			hc, err := client.New(rawURL, client.WithTimeout(15*time.Second))
			if err != nil {
				return err
			}
			var status map[string]any
			if err := hc.Get(cmd.Context(), "/status", &status); err != nil {
				return fmt.Errorf("validate server: %w", err)
			}

			cfgPath := ""
			if inDir {
				cwd, err := os.Getwd()
				if err != nil {
					return err
				}
				cfgPath = config.In(cwd)
			} else if cfgPath, err = config.Path(); err != nil {
				return err
			}
			cfg, err := config.LoadFromPath(cfgPath)
			if err != nil {
				return err
			}
			cfg.SetDefault(rawURL)
			if err := config.SaveToPath(cfg, cfgPath); err != nil {
				return err
			}
			opts.done(cmd, "connected to %s", rawURL)
			return nil
		},
	}
	cmd.Flags().BoolVar(&inDir, "in-dir", false, "write config to ./.inky/config.yaml in the current directory")
	return cmd
}

func newDisconnectCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "disconnect",
		Short: "Forget the default server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if _, ok := cfg.Default(); !ok {
				opts.done(cmd, "no active connection")
				return nil
			}
			cfg.ClearDefault()
			if err := config.Save(cfg); err != nil {
				return err
			}
			opts.done(cmd, "disconnected")
			return nil
		},
	}
}

func newStatusCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the server and whether the saved session is still valid",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession()
			if err != nil {
				return err
			}
			var status map[string]any
			if err := s.api.HTTP().Get(cmd.Context(), "/status", &status); err != nil {
				return err
			}
			out := map[string]any{
				"server":       s.srv.URL,
				"connected_at": s.srv.ConnectedAt,
				"status":       status,
				"loggedIn":     false,
			}
			if s.srv.Session != "" {
				st, err := s.api.Auth.Verify(cmd.Context())
				if err != nil {
					return err
				}
				out["loggedIn"] = st.IsLoggedIn
				if st.IsLoggedIn {
					out["name"] = s.srv.UserName
					out["role"] = st.Role.String()
				}
			}
			return opts.print(cmd, "", out)
		},
	}
}

func newRegisterCommand(opts *rootOptions) *cobra.Command {
	var data models.RegisterData
	var role string
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create a Reader or Owner account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			switch strings.ToLower(strings.TrimSpace(role)) {
			case "", "reader", "u":
				data.Role = models.RoleReader
			case "owner", "o":
				data.Role = models.RoleOwner
			default:
				return fmt.Errorf("invalid role %q: must be reader or owner", role)
			}
			if data.Password == "" {
				data.Password = os.Getenv("INKY_PASSWORD")
			}
			s, err := openSession()
			if err != nil {
				return err
			}
			if err := s.api.Auth.Register(cmd.Context(), data); err != nil {
				return err
			}
			opts.done(cmd, "registered %s; check your email to verify the account", data.Email)
			return nil
		},
	}
	cmd.Flags().StringVar(&data.Name, "name", "", "display name")
	cmd.Flags().StringVar(&data.Email, "email", "", "email address")
	cmd.Flags().StringVar(&data.Password, "password", "", "password (or INKY_PASSWORD)")
	cmd.Flags().StringVar(&role, "role", "reader", "reader|owner")
	return cmd
}

func newVerifyEmailCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "verify-email <token>",
		Short: "Confirm an email address with the token from the verification mail",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession()
			if err != nil {
				return err
			}
			if err := s.api.Auth.VerifyEmail(cmd.Context(), strings.TrimSpace(args[0])); err != nil {
				return err
			}
			opts.done(cmd, "email verified; you can now log in")
			return nil
		},
	}
}

func newResendVerificationCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "resend-verification <email>",
		Short: "Send the verification mail again",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession()
			if err != nil {
				return err
			}
			if err := s.api.Auth.ResendVerification(cmd.Context(), strings.TrimSpace(args[0])); err != nil {
				return err
			}
			opts.done(cmd, "verification mail requested")
			return nil
		},
	}
}

func newLoginCommand(opts *rootOptions) *cobra.Command {
	var password string
	cmd := &cobra.Command{
		Use:   "login <email>",
		Short: "Log in and save the session cookie",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				password = os.Getenv("INKY_PASSWORD")
			}
			if password == "" {
				return errors.New("missing --password (or INKY_PASSWORD)")
			}
			s, err := openSession()
			if err != nil {
				return err
			}
			u, err := s.api.Auth.Login(cmd.Context(), strings.TrimSpace(args[0]), password)
			if err != nil {
				return err
			}
			if err := s.remember(u); err != nil {
				return err
			}
			opts.done(cmd, "logged in as %s (%s)", u.Name, u.Role)
			return nil
		},
	}
	cmd.Flags().StringVar(&password, "password", "", "password (or INKY_PASSWORD)")
	return cmd
}

func newLogoutCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the session and forget the saved cookie",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession()
			if err != nil {
				return err
			}
			if s.srv.Session != "" {
				if err := s.api.Auth.Logout(cmd.Context()); err != nil {
					if _, ok := client.IsAPIError(err); !ok {
						return err
					}
				}
			}
			if err := s.remember(nil); err != nil {
				return err
			}
			opts.done(cmd, "logged out")
			return nil
		},
	}
}

func newWhoAmICommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession()
			if err != nil {
				return err
			}
			u, err := s.api.Auth.CurrentUser(cmd.Context())
			if err != nil {
				return err
			}
			return opts.print(cmd, "", map[string]any{
				"userId":          u.UserID,
				"name":            u.Name,
				"email":           u.Email,
				"role":            u.Role.String(),
				"onboardComplete": u.OnboardComplete,
			})
		},
	}
}

func newPasswordCommand(opts *rootOptions) *cobra.Command {
	var form models.PasswordChange
	cmd := &cobra.Command{
		Use:   "password",
		Short: "Change the password; other sessions stop working",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if form.CurrentPassword == "" || form.NewPassword == "" {
				return errors.New("--current and --new are required")
			}
			s, err := openSession()
			if err != nil {
				return err
			}
			if err := s.api.Auth.ChangePassword(cmd.Context(), form.CurrentPassword, form.NewPassword); err != nil {
				return err
			}
			s.cfg.SetSession(s.api.HTTP().Session(), s.srv.UserID, s.srv.UserName, s.srv.Role)
			if err := config.Save(s.cfg); err != nil {
				return err
			}
			opts.done(cmd, "password changed")
			return nil
		},
	}
	cmd.Flags().StringVar(&form.CurrentPassword, "current", "", "current password")
	cmd.Flags().StringVar(&form.NewPassword, "new", "", "new password")
	return cmd
}
