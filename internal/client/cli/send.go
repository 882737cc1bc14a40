package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/dmitrijs2005/tripflow/internal/common"
	"github.com/dmitrijs2005/tripflow/internal/cryptox"
	"github.com/dmitrijs2005/tripflow/internal/netx"
	"github.com/dmitrijs2005/tripflow/internal/server/flow"
	"github.com/spf13/cobra"
)

func (a *app) sendCmd() *cobra.Command {
	var (
		url       string
		keyFile   string
		secret    string
		version   string
		action    string
		screen    string
		data      string
		flowToken string
		timeout   time.Duration
	)

	cmd := &cobra.Command{
		Use:   "send",
		Short: "Send one encrypted request to the flow endpoint",
		Long: `Encrypt a flow request with the endpoint's public key, sign it with the
app secret, POST it and print the decrypted response.

Examples:
  flowctl send --action ping
  flowctl send --action INIT --flow-token abc123
  flowctl send --action data_exchange --flow-token abc123 \
      --screen DESTINATION_SELECTION --data '{"destination":"bali"}'`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			url = pick(url, a.config.ServerURL)
			keyFile = pick(keyFile, a.config.PublicKeyFile)
			secret = pick(secret, a.config.AppSecret)
			if !cmd.Flags().Changed("timeout") {
				timeout = a.config.Timeout
			}

			pemBytes, err := os.ReadFile(keyFile)
			if err != nil {
				return fmt.Errorf("reading public key: %w", err)
			}
			pub, err := cryptox.LoadPublicKey(string(pemBytes))
			if err != nil {
				return err
			}

			req := flow.Request{Version: version, Action: action, Screen: screen, FlowToken: flowToken}
			if data != "" {
				if err := json.Unmarshal([]byte(data), &req.Data); err != nil {
					return fmt.Errorf("--data must be a JSON object: %w", err)
				}
			}

			env, x, err := cryptox.EncryptRequest(pub, req)
			if err != nil {
				return err
			}
			defer x.Wipe()

			body, err := json.Marshal(env)
			if err != nil {
				return err
			}

			headers := map[string]string{}
			if secret != "" {
				headers[common.SignatureHeaderName] = cryptox.Sign([]byte(secret), body)
			}

			client := &http.Client{Timeout: timeout}
			resp, err := netx.PostRaw(cmd.Context(), client, url, "application/json", headers, body)
			if err != nil {
				return err
			}

			plain, err := x.DecryptResponse(string(bytes.TrimSpace(resp)))
			if err != nil {
				return err
			}

			var pretty bytes.Buffer
			if err := json.Indent(&pretty, plain, "", "  "); err != nil {
				return fmt.Errorf("response is not JSON: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), pretty.String())
			return nil
		},
	}

	cmd.Flags().StringVarP(&url, "url", "u", "", "flow endpoint URL")
	cmd.Flags().StringVarP(&keyFile, "public-key", "k", "", "PEM public key of the endpoint")
	cmd.Flags().StringVarP(&secret, "secret", "s", "", "app secret used to sign the body")
	cmd.Flags().StringVar(&version, "protocol-version", flow.DefaultVersion, "protocol version")
	cmd.Flags().StringVarP(&action, "action", "a", flow.ActionPing, "INIT, data_exchange, BACK or ping")
	cmd.Flags().StringVar(&screen, "screen", "", "submitted screen")
	cmd.Flags().StringVarP(&data, "data", "d", "", "screen data as a JSON object")
	cmd.Flags().StringVarP(&flowToken, "flow-token", "t", "", "flow token")
	cmd.Flags().DurationVar(&timeout, "timeout", 30*time.Second, "HTTP timeout")

	return cmd
}
