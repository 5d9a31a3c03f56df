package main

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"inkyspace/internal/api"
	"inkyspace/internal/cli/config"
	"inkyspace/internal/cli/output"
	"inkyspace/internal/client"
	"inkyspace/internal/logutils"
	"inkyspace/internal/models"
)

var errNotConnected = errors.New("not connected. run: inky connect <url>")

// validFormats are the values accepted by --format.
var validFormats = []string{"json", "table", "plain", "md", "quiet"}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// rootOptions holds the global flags shared by every command.
type rootOptions struct {
	Verbose bool
	Format  string
	Quiet   bool
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "inky",
		Short:         "InkySpace from the terminal",
		Long:          "Read, write and review InkySpace threads, manage spaces and editors.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if opts.Verbose {
				logutils.Configure("debug", "")
			}
			f := strings.ToLower(strings.TrimSpace(opts.Format))
			if f != "" && !slices.Contains(validFormats, f) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, validFormats)
			}
			opts.Format = f
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "log API requests to stderr")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "", "output format: json|table|plain|md|quiet")
	cmd.PersistentFlags().BoolVarP(&opts.Quiet, "quiet", "q", false, "print IDs only")

	cmd.AddCommand(
		newConnectCommand(opts),
		newDisconnectCommand(opts),
		newStatusCommand(opts),
		newRegisterCommand(opts),
		newVerifyEmailCommand(opts),
		newResendVerificationCommand(opts),
		newLoginCommand(opts),
		newLogoutCommand(opts),
		newWhoAmICommand(opts),
		newPasswordCommand(opts),
		newExploreCommand(opts),
		newSpacesCommand(opts),
		newThreadsCommand(opts),
		newCommentsCommand(opts),
		newEditorsCommand(opts),
		newProfileCommand(opts),
		newOnboardingCommand(opts),
		newUploadsCommand(opts),
	)
	return cmd
}

// session is the saved connection with an SDK client carrying its cookie.
type session struct {
	cfg *config.Config
	srv config.Server
	api *api.Client
}

func openSession() (*session, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	srv, ok := cfg.Default()
	if !ok || srv.URL == "" {
		return nil, errNotConnected
	}
	hc, err := client.New(srv.URL, client.WithTimeout(30*time.Second))
	if err != nil {
		return nil, err
	}
	if srv.Session != "" {
		hc.SetSession(srv.Session)
	}
	return &session{cfg: cfg, srv: srv, api: api.New(hc)}, nil
}

// remember saves the cookie currently in the jar for u. A nil user forgets
// the login.
func (s *session) remember(u *models.User) error {
	if u == nil {
		s.cfg.ClearSession()
	} else {
		s.cfg.SetSession(s.api.HTTP().Session(), u.UserID, u.Name, string(u.Role))
	}
	return config.Save(s.cfg)
}

func (o *rootOptions) print(cmd *cobra.Command, key string, v any) error {
	p, err := output.Payload(key, v)
	if err != nil {
		return err
	}
	return output.Fprint(cmd.OutOrStdout(), p, o.Format, o.Quiet)
}

// printPage prints one page of a list under key, keeping the next page
// token beside it.
func printPage[T any](o *rootOptions, cmd *cobra.Command, key string, page models.Page[T]) error {
	if page.List == nil {
		page.List = []T{}
	}
	p, err := output.Payload("", page)
	if err != nil {
		return err
	}
	p[key] = p["list"]
	delete(p, "list")
	return output.Fprint(cmd.OutOrStdout(), p, o.Format, o.Quiet)
}

func (o *rootOptions) done(cmd *cobra.Command, format string, args ...any) {
	if o.Quiet {
		return
	}
	fmt.Fprintf(cmd.OutOrStdout(), format+"\n", args...)
}

func resolveBodyInput(args []string, fromFile string) (string, error) {
	if strings.TrimSpace(fromFile) != "" {
		if len(args) > 0 {
			return "", errors.New("provide either inline content or --from-file, not both")
		}
		b, err := os.ReadFile(fromFile)
		if err != nil {
			return "", err
		}
		body := strings.TrimSpace(string(b))
		if body == "" {
			return "", errors.New("body is empty")
		}
		return body, nil
	}
	if len(args) != 1 {
		return "", errors.New("missing content")
	}
	body := strings.TrimSpace(args[0])
	if body == "" {
		return "", errors.New("body is empty")
	}
	return body, nil
}

func parseCSVUnique(raw []string) []string {
	out := make([]string, 0)
	seen := map[string]struct{}{}
	for _, v := range raw {
		for _, p := range strings.Split(v, ",") {
			item := strings.TrimSpace(p)
			if item == "" {
				continue
			}
			if _, ok := seen[item]; ok {
				continue
			}
			seen[item] = struct{}{}
			out = append(out, item)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func pageRequest(token string, size int) models.PageRequest {
	return models.PageRequest{Token: strings.TrimSpace(token), PageSize: size}
}
