package commands

import (
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"themis/comparator"
	sessionsvc "themis/internal/services/session"
)

func compareCmd() *cobra.Command {
	var secret string
	cmd := &cobra.Command{
		Use:   "compare",
		Short: "Check that two parties share a secret without revealing it",
	}
	cmd.PersistentFlags().StringVarP(&secret, "secret", "s", "", "secret to compare")
	_ = cmd.MarkPersistentFlagRequired("secret")

	var other string
	local := &cobra.Command{
		Use:   "local",
		Short: "Run both sides in-process against --other",
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := compareLocal([]byte(secret), []byte(other))
			if err != nil {
				return err
			}
			fmt.Println(res)
			return nil
		},
	}
	local.Flags().StringVar(&other, "other", "", "the second party's secret")
	_ = local.MarkFlagRequired("other")

	for _, initiator := range []bool{true, false} {
		use, short := "connect <peer>", "Compare with a peer as the initiator"
		if !initiator {
			use, short = "listen <peer>", "Compare with a peer as the responder"
		}
		cmd.AddCommand(&cobra.Command{
			Use:   use,
			Short: short,
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
				defer stop()
				ch, err := open(ctx, args[0], initiator)
				if err != nil {
					return err
				}
				defer ch.Close()
				res, err := sessionsvc.Compare(ctx, ch, []byte(secret), initiator)
				if err != nil {
					return err
				}
				fmt.Println(res)
				return nil
			},
		})
	}
	cmd.AddCommand(local)
	return cmd
}

// compareLocal plays both parties of a comparison in memory.
func compareLocal(a, b []byte) (comparator.Result, error) {
	alice, bob := comparator.New(), comparator.New()
	defer alice.Destroy()
	defer bob.Destroy()
	if err := alice.AppendSecret(a); err != nil {
		return comparator.NotReady, err
	}
	if err := bob.AppendSecret(b); err != nil {
		return comparator.NotReady, err
	}

	msg, err := alice.Begin()
	for turn := bob; err == nil && msg != nil; {
		msg, err = turn.Proceed(msg)
		if turn == bob {
			turn = alice
		} else {
			turn = bob
		}
	}
	if err != nil {
		return comparator.NotReady, err
	}
	return alice.Result()
}
