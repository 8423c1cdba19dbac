package config

import (
	"fmt"
	"os"

	"golang.org/x/term"
)

// resolvePairKey returns key as-is, unless it is "-", in which case the
// passphrase is read from the controlling terminal without echoing it.
func resolvePairKey(key string) (string, error) {
	if key != "-" {
		return key, nil
	}
	fmt.Fprint(os.Stderr, "pairing passphrase: ")
	raw, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("read passphrase: %w", err)
	}
	return string(raw), nil
}
