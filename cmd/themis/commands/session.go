package commands

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"themis/internal/domain"
)

// sessionCmd groups the relay-backed Secure Session commands. The exchange
// is half duplex: connect sends one line and waits for the acknowledgement,
// listen prints each message and acknowledges it.
func sessionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Talk to a peer over a Secure Session through the relay",
	}
	cmd.AddCommand(sessionConnectCmd(), sessionListenCmd())
	return cmd
}

// open negotiates a channel, as initiator when connect is set.
func open(ctx context.Context, peer string, connect bool) (domain.Channel, error) {
	if err := requirePassphrase(); err != nil {
		return nil, err
	}
	if connect {
		return appCtx.Sessions.Connect(ctx, passphrase, domain.PeerID(peer))
	}
	fmt.Fprintf(os.Stderr, "waiting for %s...\n", peer)
	return appCtx.Sessions.Accept(ctx, passphrase, domain.PeerID(peer))
}

func sessionConnectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "connect <peer>",
		Short: "Connect to a peer and send each stdin line",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			ch, err := open(ctx, args[0], true)
			if err != nil {
				return err
			}
			defer ch.Close()
			fmt.Fprintf(os.Stderr, "session with %s established\n", ch.Peer())

			lines := bufio.NewScanner(os.Stdin)
			for lines.Scan() {
				if len(lines.Bytes()) == 0 {
					continue
				}
				if err := ch.Send(ctx, lines.Bytes()); err != nil {
					return err
				}
				ack, err := ch.Receive(ctx)
				if err != nil {
					return err
				}
				fmt.Printf("[%s] %s\n", ch.Peer(), ack)
			}
			return lines.Err()
		},
	}
}

func sessionListenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "listen <peer>",
		Short: "Accept a session from a peer and print its messages",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			ch, err := open(ctx, args[0], false)
			if err != nil {
				return err
			}
			defer ch.Close()
			fmt.Fprintf(os.Stderr, "session with %s established\n", ch.Peer())

			for {
				msg, err := ch.Receive(ctx)
				if err != nil {
					if ctx.Err() != nil {
						return nil
					}
					return err
				}
				fmt.Printf("[%s] %s\n", ch.Peer(), msg)
				ack := fmt.Sprintf("received %s", humanize.Bytes(uint64(len(msg))))
				if err := ch.Send(ctx, []byte(ack)); err != nil {
					return err
				}
			}
		},
	}
}
