//go:build e2e

// Package e2e holds the browser test suite the controller pod hosts.
//
// The suite is isolated from the standard tests via the e2e build tag. It
// needs a Chrome: either a local one (auto-downloaded by rod) or a remote
// browser node selected by the orchestrator.
//
// Running against a remote node (how the orchestrator invokes it):
//
//	HEADLESS=true REMOTE_URL=http://node-0:4444 go test -tags e2e ./e2e/...
//
// Running locally with a visible browser:
//
//	HEADLESS=false go test -tags e2e ./e2e/...
//
// FILTER_SELECT_WAIT and FILTER_APPLY_WAIT (bare seconds) tune the settle
// delays after filter changes on slow environments.
package e2e
