// Package cli provides the interactive folio command-line client.
//
// It wires configuration, the credential store, the backend client and the
// session coordinator behind a small REPL. The terminal plays the role of
// the navigation layer: the coordinator moves the current route and the
// prompt shows where the session ended up.
//
// Key features:
//   - Login / Logout
//   - Status, route changes and redirect decisions
//   - Preferences and onboarding completion
//   - Identity revalidation and paper account refresh
//   - A debug dump of the coordinator state
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
// See App, runREPL and terminalNavigator for details.
package cli
