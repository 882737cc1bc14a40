package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/dmitrijs2005/tripflow/internal/cryptox"
	"github.com/dmitrijs2005/tripflow/internal/filex"
	"github.com/dmitrijs2005/tripflow/internal/shared"
	"github.com/spf13/cobra"
)

func (a *app) keygenCmd() *cobra.Command {
	var (
		out     string
		bits    int
		protect bool
		force   bool
	)

	cmd := &cobra.Command{
		Use:   "keygen",
		Short: "Generate the RSA key pair used by the flow endpoint",
		Long: `Generate an RSA key pair.

Writes private.pem, public.pem and private.b64 (the private key as a single
base64 line, suitable for TRIPFLOW_PRIVATE_KEY) into the output directory.
Register public.pem with the messaging platform.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var passphrase []byte
			if protect {
				var err error
				passphrase, err = promptPassphrase(cmd)
				if err != nil {
					return err
				}
				defer shared.WipeByteArray(passphrase)
			}

			kp, err := cryptox.GenerateKeyPair(bits, string(passphrase))
			if err != nil {
				return err
			}

			files := []struct {
				name string
				data []byte
				mode os.FileMode
			}{
				{"private.pem", kp.PrivatePEM, 0o600},
				{"public.pem", kp.PublicPEM, 0o644},
				{"private.b64", []byte(cryptox.WrapBase64(kp.PrivatePEM) + "\n"), 0o600},
			}

			w := cmd.OutOrStdout()
			for _, f := range files {
				path, err := filex.WriteSecret(out, f.name, f.data, f.mode, force)
				if err != nil {
					if errors.Is(err, filex.ErrExists) {
						return fmt.Errorf("%w (use --force to overwrite)", err)
					}
					return err
				}
				fmt.Fprintf(w, "wrote %s\n", path)
			}

			if protect {
				fmt.Fprintln(w, "set TRIPFLOW_PASSPHRASE on the server to unlock the key")
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", ".", "output directory")
	cmd.Flags().IntVar(&bits, "bits", cryptox.MinKeyBits, "RSA modulus size")
	cmd.Flags().BoolVar(&protect, "passphrase", false, "prompt for a passphrase protecting the private key")
	cmd.Flags().BoolVar(&force, "force", false, "overwrite existing key files")

	return cmd
}

func promptPassphrase(cmd *cobra.Command) ([]byte, error) {
	w := cmd.ErrOrStderr()

	first, err := GetPassword(w, "Passphrase: ")
	if err != nil {
		return nil, err
	}
	second, err := GetPassword(w, "Repeat passphrase: ")
	if err != nil {
		shared.WipeByteArray(first)
		return nil, err
	}
	defer shared.WipeByteArray(second)

	if len(first) == 0 {
		return nil, errors.New("passphrase must not be empty")
	}
	if string(first) != string(second) {
		shared.WipeByteArray(first)
		return nil, errors.New("passphrases do not match")
	}
	return first, nil
}
