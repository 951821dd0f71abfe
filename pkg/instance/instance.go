package instance

import "os"

// GetID identifies this process in lock tokens and logs. RENTEASE_WORKER_ID wins over
// the hostname.
func GetID() string {
	if id := os.Getenv("RENTEASE_WORKER_ID"); id != "" {
		return id
	}
	if host, err := os.Hostname(); err == nil && host != "" {
		return host
	}
	return "worker-0"
}
