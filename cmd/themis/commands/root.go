package commands

import (
	"os"

	"github.com/spf13/cobra"

	"themis/internal/app"
	"themis/internal/logger"
)

// passphraseEnv supplies the passphrase when -p is not given.
const passphraseEnv = "THEMIS_PASSPHRASE"

var (
	configFile string
	home       string
	relayURL   string
	logLevel   string
	passphrase string
	appCtx     *app.App
)

// Execute runs the CLI.
func Execute() error {
	root := &cobra.Command{
		Use:          "themis",
		Short:        "Secure Cell, Message, Session and Comparator tool",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if passphrase == "" {
				passphrase = os.Getenv(passphraseEnv)
			}
			var level uint32
			if logLevel != "" {
				l, err := logger.ParseLevel(logLevel)
				if err != nil {
					return err
				}
				level = l
			}
			a, err := app.New(configFile, func(c *app.Config) {
				if home != "" {
					c.Home = home
				}
				if relayURL != "" {
					c.RelayURL = relayURL
				}
				if logLevel != "" {
					c.LogLevel = level
				}
			})
			if err != nil {
				return err
			}
			appCtx = a
			return nil
		},
	}

	root.PersistentFlags().StringVar(&configFile, "config", "", "YAML config file")
	root.PersistentFlags().StringVar(&home, "home", "", "config dir (default ~/.themis)")
	root.PersistentFlags().StringVarP(&passphrase, "passphrase", "p", "",
		"passphrase protecting the identity (or $"+passphraseEnv+")")
	root.PersistentFlags().StringVar(&relayURL, "relay", "", "relay base URL (e.g. http://127.0.0.1:8080)")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "debug, info, warn or error")

	root.AddCommand(
		keygenCmd(),
		fingerprintCmd(),
		exportCmd(),
		importPeerCmd(),
		publishCmd(),
		fetchPeerCmd(),
		peersCmd(),
		cellCmd(),
		signCmd(),
		verifyCmd(),
		encryptCmd(),
		decryptCmd(),
		sessionCmd(),
		compareCmd(),
	)
	return root.Execute()
}
