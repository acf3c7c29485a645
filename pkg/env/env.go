package env

import (
	"os"
	"strings"
)

const Prefix = "CRAFTBUNDLE_"

// Get reads CRAFTBUNDLE_<key>, then the bare key, then falls back. Used for
// the few settings read before config.Load runs.
func Get(key, fallback string) string {
	for _, name := range []string{Prefix + key, key} {
		if val := strings.TrimSpace(os.Getenv(name)); val != "" {
			return val
		}
	}
	return fallback
}
