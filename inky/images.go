package main

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"inkyspace/internal/cli/config"
	"inkyspace/internal/client"
)

var errNoImageHost = errors.New("no image host configured. run: inky uploads --endpoint <url>")

func newUploadsCommand(opts *rootOptions) *cobra.Command {
	var up config.Upload
	cmd := &cobra.Command{
		Use:   "uploads",
		Short: "Show or set the image host used by --cover-file and --avatar-file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("endpoint") || cmd.Flags().Changed("preset") {
				if cmd.Flags().Changed("endpoint") {
					cfg.Upload.Endpoint = strings.TrimSpace(up.Endpoint)
				}
				if cmd.Flags().Changed("preset") {
					cfg.Upload.Preset = strings.TrimSpace(up.Preset)
				}
				if err := config.Save(cfg); err != nil {
					return err
				}
			}
			cur := cfg.Uploads()
			return opts.print(cmd, "", map[string]any{"endpoint": cur.Endpoint, "preset": cur.Preset})
		},
	}
	cmd.Flags().StringVar(&up.Endpoint, "endpoint", "", "multipart upload url of the image host")
	cmd.Flags().StringVar(&up.Preset, "preset", "", "upload preset sent with every image")
	return cmd
}

// uploadImage re-encodes the image at path, sends it to the image host and
// returns its hosted URL.
func (s *session) uploadImage(ctx context.Context, path string) (string, error) {
	up := s.cfg.Uploads()
	if up.Endpoint == "" {
		return "", errNoImageHost
	}
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	return client.NewUploader(up.Endpoint, up.Preset).Upload(ctx, filepath.Base(path), f)
}

// imageFlag resolves a --*-file flag into dst. An empty path leaves dst
// untouched.
func (s *session) imageFlag(ctx context.Context, path string, dst *string) error {
	if strings.TrimSpace(path) == "" {
		return nil
	}
	url, err := s.uploadImage(ctx, path)
	if err != nil {
		return err
	}
	*dst = url
	return nil
}
