package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"themis/internal/domain"
)

func exportCmd() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write our public key so peers can import it",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, encoded, err := appCtx.PeerKeys.Export()
			if err != nil {
				return err
			}
			return writeOutput(out, encoded)
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (default stdout)")
	return cmd
}

func importPeerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import-peer <peer> <file>",
		Short: "Pin a peer public key read from a file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			encoded, err := readInput(args[1])
			if err != nil {
				return err
			}
			fp, err := appCtx.PeerKeys.Import(domain.PeerID(args[0]), encoded)
			if err != nil {
				return err
			}
			fmt.Printf("Pinned %s: %s\n", args[0], fp)
			return nil
		},
	}
}

func publishCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "publish",
		Short: "Publish our public key to the relay",
		RunE: func(cmd *cobra.Command, args []string) error {
			id, fp, err := appCtx.PeerKeys.Publish(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Printf("Published %s: %s\n", id, fp)
			return nil
		},
	}
}

func fetchPeerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "fetch-peer <peer>",
		Short: "Fetch a peer public key from the relay and pin it",
		Long: "Fetch a peer public key from the relay and pin it. Compare the printed " +
			"fingerprint with the peer out of band before trusting it.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fp, err := appCtx.PeerKeys.Fetch(cmd.Context(), domain.PeerID(args[0]))
			if err != nil {
				return err
			}
			fmt.Printf("Pinned %s: %s\n", args[0], fp)
			return nil
		},
	}
}

func peersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "peers",
		Short: "List pinned peers",
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := appCtx.PeerKeys.List()
			if err != nil {
				return err
			}
			for _, id := range ids {
				pub, err := appCtx.Peers.Peer(id)
				if err != nil {
					return err
				}
				fmt.Printf("%-20s %-8v %s\n", id, pub.Algorithm(), pub.Fingerprint())
			}
			return nil
		},
	}
}
