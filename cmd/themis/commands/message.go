package commands

import (
	"github.com/spf13/cobra"

	"themis/internal/domain"
)

type ioFlags struct {
	in, out string
}

func (f *ioFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.in, "in", "i", "", "input file (default stdin)")
	cmd.Flags().StringVarP(&f.out, "out", "o", "", "output file (default stdout)")
}

func signCmd() *cobra.Command {
	var f ioFlags
	cmd := &cobra.Command{
		Use:   "sign",
		Short: "Sign a message with our identity",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requirePassphrase(); err != nil {
				return err
			}
			msg, err := readInput(f.in)
			if err != nil {
				return err
			}
			signed, err := appCtx.Messages.Sign(passphrase, msg)
			if err != nil {
				return err
			}
			report("signed", len(msg), len(signed))
			return writeOutput(f.out, signed)
		},
	}
	f.register(cmd)
	return cmd
}

func verifyCmd() *cobra.Command {
	var f ioFlags
	cmd := &cobra.Command{
		Use:   "verify <peer>",
		Short: "Verify a message signed by a pinned peer and print it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			signed, err := readInput(f.in)
			if err != nil {
				return err
			}
			msg, err := appCtx.Messages.Verify(domain.PeerID(args[0]), signed)
			if err != nil {
				return err
			}
			report("verified", len(signed), len(msg))
			return writeOutput(f.out, msg)
		},
	}
	f.register(cmd)
	return cmd
}

func encryptCmd() *cobra.Command {
	var f ioFlags
	cmd := &cobra.Command{
		Use:   "encrypt <peer>",
		Short: "Encrypt a message for a pinned peer",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requirePassphrase(); err != nil {
				return err
			}
			msg, err := readInput(f.in)
			if err != nil {
				return err
			}
			wrapped, err := appCtx.Messages.Encrypt(passphrase, domain.PeerID(args[0]), msg)
			if err != nil {
				return err
			}
			report("encrypted", len(msg), len(wrapped))
			return writeOutput(f.out, wrapped)
		},
	}
	f.register(cmd)
	return cmd
}

func decryptCmd() *cobra.Command {
	var f ioFlags
	cmd := &cobra.Command{
		Use:   "decrypt <peer>",
		Short: "Decrypt a message from a pinned peer",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requirePassphrase(); err != nil {
				return err
			}
			wrapped, err := readInput(f.in)
			if err != nil {
				return err
			}
			msg, err := appCtx.Messages.Decrypt(passphrase, domain.PeerID(args[0]), wrapped)
			if err != nil {
				return err
			}
			report("decrypted", len(wrapped), len(msg))
			return writeOutput(f.out, msg)
		},
	}
	f.register(cmd)
	return cmd
}
