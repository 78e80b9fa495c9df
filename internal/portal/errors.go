package portal

import "errors"

// Sentinel errors for the failure modes the tool layer distinguishes.
// Everything the client and the scrapers return wraps one of these, so
// callers can classify with errors.Is without string matching.
var (
	// ErrAuth means the portal rejected the credentials.
	ErrAuth = errors.New("portal: authentication failed")

	// ErrUnreachable covers network and connectivity failures.
	ErrUnreachable = errors.New("portal: unreachable")

	// ErrSessionExpired is returned when a page fetch came back as the login
	// page even after one re-authentication attempt.
	ErrSessionExpired = errors.New("portal: session expired")

	// ErrPageStructure means a page no longer matches the markup the parser
	// expects. Reported to the caller, never retried blindly.
	ErrPageStructure = errors.New("portal: unexpected page structure")
)
