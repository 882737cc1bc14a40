package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/tripflow/internal/server/auth"
	"github.com/spf13/cobra"
)

func (a *app) tokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Work with signed flow tokens",
	}
	cmd.AddCommand(a.tokenIssueCmd())
	return cmd
}

func (a *app) tokenIssueCmd() *cobra.Command {
	var (
		phone  string
		secret string
		ttl    time.Duration
	)

	cmd := &cobra.Command{
		Use:   "issue",
		Short: "Mint a flow token carrying the recipient phone number",
		Long: `Mint an HS256 flow token. The endpoint reads the phone number from it
when the session is created and sends the booking confirmation there.

Without --phone the number is read from standard input.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			secret = pick(secret, a.config.FlowTokenSecret)
			if secret == "" {
				return errors.New("flow token secret is required (--secret, profile or TRIPFLOW_FLOW_TOKEN_SECRET)")
			}

			if phone == "" {
				var err error
				phone, err = promptLine(cmd.InOrStdin(), cmd.ErrOrStderr(), "Recipient phone number")
				if err != nil {
					return err
				}
			}
			if phone == "" {
				return errors.New("phone number is required")
			}

			if !cmd.Flags().Changed("ttl") {
				ttl = a.config.TokenTTL
			}

			token, err := auth.GenerateFlowToken(phone, []byte(secret), ttl)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().StringVarP(&phone, "phone", "p", "", "recipient phone number, E.164")
	cmd.Flags().StringVarP(&secret, "secret", "s", "", "flow token secret")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "token validity")

	return cmd
}
