package commands

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"themis/cell"
	"themis/internal/crypto"
	"themis/internal/util/memzero"
)

type cellFlags struct {
	ioFlags
	keyFile string
	context string
}

func (f *cellFlags) register(cmd *cobra.Command) {
	f.ioFlags.register(cmd)
	cmd.Flags().StringVarP(&f.keyFile, "key", "k", "", "file holding a base64 master key (from cell keygen)")
	cmd.Flags().StringVarP(&f.context, "context", "c", "", "associated context bound into the key")
}

// masterKey returns the decoded key, or nil when no key file was given.
func (f *cellFlags) masterKey() ([]byte, error) {
	if f.keyFile == "" {
		return nil, nil
	}
	raw, err := readInput(f.keyFile)
	if err != nil {
		return nil, err
	}
	defer memzero.Zero(raw)
	return crypto.FromB64(strings.TrimSpace(string(raw)))
}

// sealCell is satisfied by both key- and passphrase-based Seal cells.
type sealCell interface {
	Encrypt(plaintext, context []byte) ([]byte, error)
	Decrypt(sealed, context []byte) ([]byte, error)
	Destroy()
}

func (f *cellFlags) seal() (sealCell, error) {
	key, err := f.masterKey()
	if err != nil {
		return nil, err
	}
	if key != nil {
		defer memzero.Zero(key)
		return cell.NewSeal(key)
	}
	if err := requirePassphrase(); err != nil {
		return nil, fmt.Errorf("--key or a passphrase is required: %w", err)
	}
	return cell.NewPassphraseSeal(passphrase)
}

func (f *cellFlags) requireKey() ([]byte, error) {
	key, err := f.masterKey()
	if err != nil {
		return nil, err
	}
	if key == nil {
		return nil, errors.New("--key is required for this mode")
	}
	return key, nil
}

func cellCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cell",
		Short: "Protect data at rest with Secure Cell",
	}
	cmd.AddCommand(
		cellKeygenCmd(),
		cellSealCmd(),
		cellOpenCmd(),
		cellTokenSealCmd(),
		cellTokenOpenCmd(),
		cellImprintCmd(),
	)
	return cmd
}

func cellKeygenCmd() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "keygen",
		Short: "Generate a random master key (base64)",
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := cell.GenerateKey()
			if err != nil {
				return err
			}
			defer memzero.Zero(key)
			return writeOutput(out, []byte(crypto.B64(key)+"\n"))
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (default stdout)")
	return cmd
}

func cellSealCmd() *cobra.Command {
	var f cellFlags
	cmd := &cobra.Command{
		Use:   "seal",
		Short: "Encrypt and authenticate data into one blob",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := f.seal()
			if err != nil {
				return err
			}
			defer c.Destroy()
			in, err := readInput(f.in)
			if err != nil {
				return err
			}
			out, err := c.Encrypt(in, []byte(f.context))
			if err != nil {
				return err
			}
			report("sealed", len(in), len(out))
			return writeOutput(f.out, out)
		},
	}
	f.register(cmd)
	return cmd
}

func cellOpenCmd() *cobra.Command {
	var f cellFlags
	cmd := &cobra.Command{
		Use:   "open",
		Short: "Verify and decrypt a sealed blob",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := f.seal()
			if err != nil {
				return err
			}
			defer c.Destroy()
			in, err := readInput(f.in)
			if err != nil {
				return err
			}
			out, err := c.Decrypt(in, []byte(f.context))
			if err != nil {
				return err
			}
			report("opened", len(in), len(out))
			return writeOutput(f.out, out)
		},
	}
	f.register(cmd)
	return cmd
}

func cellTokenSealCmd() *cobra.Command {
	var f cellFlags
	var tokenFile string
	cmd := &cobra.Command{
		Use:   "token-seal",
		Short: "Encrypt data, writing the authentication token separately",
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := f.requireKey()
			if err != nil {
				return err
			}
			c, err := cell.NewTokenProtect(key)
			memzero.Zero(key)
			if err != nil {
				return err
			}
			defer c.Destroy()
			in, err := readInput(f.in)
			if err != nil {
				return err
			}
			ct, token, err := c.Encrypt(in, []byte(f.context))
			if err != nil {
				return err
			}
			if err := writeOutput(tokenFile, token); err != nil {
				return err
			}
			report("sealed", len(in), len(ct))
			return writeOutput(f.out, ct)
		},
	}
	f.register(cmd)
	cmd.Flags().StringVarP(&tokenFile, "token", "t", "", "file receiving the token")
	_ = cmd.MarkFlagRequired("token")
	return cmd
}

func cellTokenOpenCmd() *cobra.Command {
	var f cellFlags
	var tokenFile string
	cmd := &cobra.Command{
		Use:   "token-open",
		Short: "Verify data against its token and decrypt it",
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := f.requireKey()
			if err != nil {
				return err
			}
			c, err := cell.NewTokenProtect(key)
			memzero.Zero(key)
			if err != nil {
				return err
			}
			defer c.Destroy()
			token, err := readInput(tokenFile)
			if err != nil {
				return err
			}
			in, err := readInput(f.in)
			if err != nil {
				return err
			}
			out, err := c.Decrypt(in, token, []byte(f.context))
			if err != nil {
				return err
			}
			report("opened", len(in), len(out))
			return writeOutput(f.out, out)
		},
	}
	f.register(cmd)
	cmd.Flags().StringVarP(&tokenFile, "token", "t", "", "file holding the token")
	_ = cmd.MarkFlagRequired("token")
	return cmd
}

func cellImprintCmd() *cobra.Command {
	var f cellFlags
	var decrypt bool
	cmd := &cobra.Command{
		Use:   "imprint",
		Short: "Length-preserving encryption without integrity (context required)",
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := f.requireKey()
			if err != nil {
				return err
			}
			c, err := cell.NewContextImprint(key)
			memzero.Zero(key)
			if err != nil {
				return err
			}
			defer c.Destroy()
			in, err := readInput(f.in)
			if err != nil {
				return err
			}
			transform := c.Encrypt
			if decrypt {
				transform = c.Decrypt
			}
			out, err := transform(in, []byte(f.context))
			if err != nil {
				return err
			}
			return writeOutput(f.out, out)
		},
	}
	f.register(cmd)
	cmd.Flags().BoolVarP(&decrypt, "decrypt", "d", false, "reverse the transform")
	return cmd
}
