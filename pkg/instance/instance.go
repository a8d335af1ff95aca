package instance

import "os"

// GetID returns the process instance identifier used in log fields.
func GetID() string {
	if id := os.Getenv("INFLUENCE_INSTANCE_ID"); id != "" {
		return id
	}
	if id := os.Getenv("DYNO"); id != "" {
		return id
	}
	return "local"
}
