package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"themis/internal/domain"
	"themis/keys"
)

func keygenCmd() *cobra.Command {
	var alg string
	cmd := &cobra.Command{
		Use:   "keygen <id>",
		Short: "Generate identity keys and store them securely",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requirePassphrase(); err != nil {
				return err
			}
			a, err := keys.ParseAlgorithm(alg)
			if err != nil {
				return err
			}
			id, fp, err := appCtx.Identity.GenerateIdentity(passphrase, domain.PeerID(args[0]), a)
			if err != nil {
				return err
			}
			id.Destroy()
			fmt.Printf("Identity %s created (%v).\nFingerprint: %s\n", args[0], a, fp)
			return nil
		},
	}
	cmd.Flags().StringVar(&alg, "alg", keys.EC.String(), "key family: ec, rsa or mldsa")
	return cmd
}

func fingerprintCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "fingerprint [peer]",
		Short: "Print the identity fingerprint, or a pinned peer's",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				pub, err := appCtx.Peers.Peer(domain.PeerID(args[0]))
				if err != nil {
					return err
				}
				fmt.Printf("%s (%v): %s\n", args[0], pub.Algorithm(), pub.Fingerprint())
				return nil
			}
			id, fp, err := appCtx.Identity.FingerprintIdentity()
			if err != nil {
				return err
			}
			fmt.Printf("%s: %s\n", id, fp)
			return nil
		},
	}
}
