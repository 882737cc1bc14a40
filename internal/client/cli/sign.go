package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/dmitrijs2005/tripflow/internal/cryptox"
	"github.com/spf13/cobra"
)

func (a *app) signCmd() *cobra.Command {
	var secret, file string

	cmd := &cobra.Command{
		Use:   "sign",
		Short: "Print the signature header value for a request body",
		Long: `Print "sha256=<hex>", the HMAC-SHA256 of the body under the app secret.

The body is read from --file, or from standard input when no file is given.
It is signed byte for byte, so mind trailing newlines.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			secret = pick(secret, a.config.AppSecret)
			if secret == "" {
				return errors.New("app secret is required (--secret, profile or TRIPFLOW_APP_SECRET)")
			}

			var (
				body []byte
				err  error
			)
			if file != "" {
				body, err = os.ReadFile(file)
			} else {
				body, err = io.ReadAll(cmd.InOrStdin())
			}
			if err != nil {
				return fmt.Errorf("reading body: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), cryptox.Sign([]byte(secret), body))
			return nil
		},
	}

	cmd.Flags().StringVarP(&secret, "secret", "s", "", "app secret")
	cmd.Flags().StringVarP(&file, "file", "f", "", "file holding the body")

	return cmd
}
