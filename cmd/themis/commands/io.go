package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/dustin/go-humanize"
)

func requirePassphrase() error {
	if passphrase == "" {
		return fmt.Errorf("passphrase required (-p or $%s)", passphraseEnv)
	}
	return nil
}

// readInput reads path, or stdin when path is empty or "-".
func readInput(path string) ([]byte, error) {
	if path == "" || path == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(path)
}

// writeOutput writes data to path, or stdout when path is empty or "-".
func writeOutput(path string, data []byte) error {
	if path == "" || path == "-" {
		_, err := os.Stdout.Write(data)
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

// report prints a one-line summary to stderr so stdout stays clean for data.
func report(verb string, in, out int) {
	fmt.Fprintf(os.Stderr, "%s %s -> %s\n", verb,
		humanize.Bytes(uint64(in)), humanize.Bytes(uint64(out)))
}
