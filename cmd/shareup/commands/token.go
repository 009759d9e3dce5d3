package commands

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/Jessiellen/shareup-app/internal/application"
	"github.com/Jessiellen/shareup-app/internal/auth"
	"github.com/Jessiellen/shareup-app/internal/printer"
)

func newTokenCmd(opts *globalOptions) *cobra.Command {
	var (
		userID string
		name   string
		avatar string
		ttl    time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a bearer token for local testing",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p := printer.New(cmd.OutOrStdout(), cmd.ErrOrStderr())
			env, err := loadEnvironment(opts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			principal := application.Principal{UserID: userID, DisplayName: name}
			if avatar != "" {
				principal.Avatar = &avatar
			}

			token, err := auth.MakeToken(principal, env.cfg.JWTSecret, ttl)
			if err != nil {
				return err
			}
			p.Raw(token)
			return nil
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "user id placed in the uid claim")
	cmd.Flags().StringVar(&name, "name", "", "display name")
	cmd.Flags().StringVar(&avatar, "avatar", "", "avatar URL")
	cmd.Flags().DurationVar(&ttl, "ttl", auth.DefaultTTL, "token lifetime")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}
