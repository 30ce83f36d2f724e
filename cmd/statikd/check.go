package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/getstatikd/statikd/pkg/config"
	"github.com/getstatikd/statikd/pkg/rules"
)

func newCheckCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "check [dir]",
		Short: "Validate the rule files of a site directory",
		Long: `check parses _headers and _redirects without starting the server, printing
any errors with their line numbers. It exits non-zero when a file is
malformed. Unusual redirect status codes outside 300-399 are reported as
warnings but accepted, matching serving behavior.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if len(args) == 1 {
				cfg.Root = args[0]
			}

			out := cmd.OutOrStdout()
			failed := false

			headersPath := filepath.Join(cfg.Root, cfg.HeadersFile)
			headerRules, err := checkHeaders(headersPath)
			if err != nil {
				fmt.Fprintf(out, "%s: %v\n", cfg.HeadersFile, err)
				failed = true
			} else {
				fmt.Fprintf(out, "%s: %d rules\n", cfg.HeadersFile, len(headerRules))
			}

			redirectsPath := filepath.Join(cfg.Root, cfg.RedirectsFile)
			redirectRules, err := checkRedirects(redirectsPath, cfg.Redirects.DefaultStatus)
			if err != nil {
				fmt.Fprintf(out, "%s: %v\n", cfg.RedirectsFile, err)
				failed = true
			} else {
				fmt.Fprintf(out, "%s: %d rules\n", cfg.RedirectsFile, len(redirectRules))
				for _, r := range redirectRules {
					if r.Status < 300 || r.Status > 399 {
						fmt.Fprintf(out, "warning: %s -> %s uses non-redirect status %d\n",
							r.Pattern, r.Target, r.Status)
					}
				}
			}

			if failed {
				return errors.New("rule files contain errors")
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "path to statikd.yaml")
	return cmd
}

func checkHeaders(path string) ([]rules.HeaderRule, error) {
	text, err := readOptional(path)
	if err != nil {
		return nil, err
	}
	return rules.ParseHeaders(text)
}

func checkRedirects(path string, defaultStatus int) ([]rules.RedirectRule, error) {
	text, err := readOptional(path)
	if err != nil {
		return nil, err
	}
	return rules.ParseRedirects(text, rules.WithDefaultRedirectStatus(defaultStatus))
}

func readOptional(path string) (string, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return string(data), nil
}
