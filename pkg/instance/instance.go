package instance

import "os"

var idEnvVars = []string{"CRAFTBUNDLE_INSTANCE_ID", "DYNO", "HOSTNAME"}

// GetID names the running process for logs: the first set of
// CRAFTBUNDLE_INSTANCE_ID, DYNO or HOSTNAME, else fallback.
func GetID(fallback string) string {
	for _, key := range idEnvVars {
		if id := os.Getenv(key); id != "" {
			return id
		}
	}
	return fallback
}
