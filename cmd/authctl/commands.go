package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/jrsteele09/go-auth-session/auth"
	"github.com/jrsteele09/go-auth-session/internal/config"
	"github.com/jrsteele09/go-auth-session/internal/utils"
	"github.com/jrsteele09/go-auth-session/providers"
	"github.com/jrsteele09/go-auth-session/schemes/openid"
	"github.com/jrsteele09/go-auth-session/storage"
	"github.com/jrsteele09/go-auth-session/transport"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

type rootOptions struct {
	Provider     string
	ClientID     string
	ClientSecret string
	CookieFile   string
	Discover     bool
	Verbose      bool
}

// NewRootCommand builds the authctl command tree. Flag defaults come from cfg.
func NewRootCommand(cfg config.ClientConfig) *cobra.Command {
	options := &rootOptions{}

	root := &cobra.Command{
		Use:           "authctl",
		Short:         "Keeps an OpenID session with a Passport provider from the command line",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if options.Verbose {
				zerolog.SetGlobalLevel(zerolog.DebugLevel)
			}
		},
	}

	root.PersistentFlags().StringVarP(&options.Provider, "provider", "p", cfg.GetProviderURL(), "Base URL of the provider")
	root.PersistentFlags().StringVar(&options.ClientID, "client-id", cfg.GetClientID(), "OAuth2 client identifier")
	root.PersistentFlags().StringVar(&options.ClientSecret, "client-secret", cfg.GetClientSecret(), "OAuth2 client secret, empty for public clients")
	root.PersistentFlags().StringVar(&options.CookieFile, "cookie-file", cfg.GetCookieFile(), "Where the session cookies are kept")
	root.PersistentFlags().BoolVar(&options.Discover, "discover", false, "Read endpoints from the provider's discovery document and verify id tokens")
	root.PersistentFlags().BoolVarP(&options.Verbose, "verbose", "v", false, "Log debug output")

	root.AddCommand(
		newLoginCommand(options),
		newWhoamiCommand(options),
		newLogoutCommand(options),
		newScopeCommand(options),
	)
	return root
}

func newLoginCommand(options *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Logs in with a username and password",
		Args:  cobra.NoArgs,
	}

	login := struct {
		Username   string
		Password   string
		NoRemember bool
	}{}

	cmd.Flags().StringVarP(&login.Username, "username", "u", "", "Username or email address")
	cmd.Flags().StringVar(&login.Password, "password", os.Getenv("AUTH_PASSWORD"), "Password, defaults to $AUTH_PASSWORD")
	cmd.Flags().BoolVar(&login.NoRemember, "no-remember", false, "Do not keep the refresh token")
	_ = cmd.MarkFlagRequired("username")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		a, err := newSession(cmd.Context(), options)
		if err != nil {
			return err
		}

		err = a.Login(cmd.Context(), auth.LoginParams{
			Username: login.Username,
			Password: login.Password,
			Remember: utils.Ptr(!login.NoRemember),
		})
		if err != nil {
			return fmt.Errorf("login failed: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "logged in as %s\n", displayName(a.User()))
		return nil
	}
	return cmd
}

func newWhoamiCommand(options *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Prints the claims of the logged in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newSession(cmd.Context(), options)
			if err != nil {
				return err
			}
			if !a.LoggedIn() {
				return fmt.Errorf("not logged in")
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(a.User())
		},
	}
}

func newLogoutCommand(options *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Ends the session with the provider and forgets it locally",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newSession(cmd.Context(), options)
			if err != nil {
				return err
			}
			if err := a.Logout(cmd.Context()); err != nil {
				// The local session is gone either way
				fmt.Fprintf(cmd.ErrOrStderr(), "provider was not notified: %v\n", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "logged out")
			return nil
		},
	}
}

func newScopeCommand(options *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "scope <name>",
		Short: "Reports whether the logged in user was granted a scope",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newSession(cmd.Context(), options)
			if err != nil {
				return err
			}

			granted, ok := a.HasScope(args[0])
			switch {
			case !ok:
				return fmt.Errorf("not logged in")
			case !granted:
				return fmt.Errorf("scope %q not granted", args[0])
			}
			fmt.Fprintf(cmd.OutOrStdout(), "scope %q granted\n", args[0])
			return nil
		},
	}
}

// newSession restores the session kept in the cookie file and mounts the
// OpenID scheme, which revalidates or refreshes it as needed.
func newSession(ctx context.Context, options *rootOptions) (*auth.Auth, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	opts := openid.Options{
		ClientID:     options.ClientID,
		ClientSecret: options.ClientSecret,
	}
	if options.Discover {
		var err error
		if opts, err = openid.Discover(ctx, options.Provider, opts); err != nil {
			return nil, err
		}
	}
	opts = providers.Passport(options.Provider, opts)

	client := transport.New(&http.Client{Timeout: 10 * time.Second})

	authOpts := auth.DefaultOptions()
	authOpts.DefaultStrategy = opts.Name
	authOpts.WatchLoggedIn = false
	// A rejected credential means the stored session is dead
	authOpts.ResetOnError = func(err error, _ auth.ErrorPayload) bool {
		return transport.IsStatus(err, http.StatusUnauthorized)
	}

	a := auth.New(auth.Context{
		Platform:  storage.BrowserPlatform{Document: storage.NewFileDocument(options.CookieFile)},
		Transport: client,
	}, authOpts)
	a.RegisterScheme(openid.New(a, client, opts))
	a.Init(ctx)
	return a, nil
}

func displayName(user auth.User) string {
	for _, claim := range []string{"name", "preferred_username", "email", "sub"} {
		if v, _ := user[claim].(string); v != "" {
			return v
		}
	}
	return "unknown user"
}
