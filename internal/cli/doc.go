// Package cli provides the interactive famlink command-line client.
//
// It wires configuration, the local store, the translation relay and the
// backup sinks into a REPL. The first run walks the user through
// onboarding (names, languages, API key) and seeds starter phrases; later
// runs go straight to the prompt. A background watcher pings the relay and
// switches the translator between online and offline mode.
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
package cli
