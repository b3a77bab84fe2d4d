package cli

import (
	"fmt"

	"skill-swap/internal/pkg/jwt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

type TokenOptions struct {
	*RootOptions
	UserID string
}

// NewTokenCommand mints an access token for local testing against a
// running server.
func NewTokenCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TokenOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Print a development access token",
		Long: `Print an access token signed with JWT_ACCESS_SECRET.

Example:
  skillswap token --user 6f1c2d0e-9a53-4a8e-9f53-2b1f6a2c9d11`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			userID, err := uuid.Parse(opts.UserID)
			if err != nil {
				return fmt.Errorf("invalid --user: %w", err)
			}

			token, err := jwt.NewHMACService(cfg.JWT.AccessSecret, cfg.JWT.AccessExpiresIn).GenerateAccessToken(userID)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.UserID, "user", "", "user id the token is issued for")
	_ = cmd.MarkFlagRequired("user")

	return cmd
}
