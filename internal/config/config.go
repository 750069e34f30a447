package config

import (
	"fmt"
	"os"
)

const defaultPDS = "https://bsky.social"

// Config holds all configuration for the batch tools.
type Config struct {
	// Handle is the BlueSky handle used to authenticate (e.g. user.bsky.social).
	Handle string

	// AppPassword is the App Password for the account. Never the account password.
	AppPassword string

	// PDS is the service URL of the PDS to authenticate against.
	PDS string
}

// Load reads configuration from environment variables. Credentials are
// required; validation happens here so a misconfigured run fails before any
// network call is made.
func Load() (*Config, error) {
	handle := os.Getenv("BLUESKY_HANDLE")
	password := os.Getenv("BLUESKY_APP_PASSWORD")
	if handle == "" || password == "" {
		return nil, fmt.Errorf("BLUESKY_HANDLE and BLUESKY_APP_PASSWORD are required")
	}

	pds := os.Getenv("BLUESKY_PDS")
	if pds == "" {
		pds = defaultPDS
	}

	return &Config{
		Handle:      handle,
		AppPassword: password,
		PDS:         pds,
	}, nil
}
