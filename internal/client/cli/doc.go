// Package cli provides the interactive notebook client.
//
// It wires configuration, the identity gateway, local storage, and the
// optimistic notebook coordinator behind a REPL. Every protected command
// enters a route first and passes the session lifecycle check for it, so a
// fresh process starts logged out no matter what the durable store holds.
//
// Key features:
//   - Register / Login / Logout against the hosted identity provider
//   - Create / list / search / edit / tag / reorder / delete notebooks
//   - Attach links and file metadata to a notebook
//   - Works through outages: writes land locally and sync later
//
// The REPL is started via App.Root(ctx), which blocks until the user exits.
package cli
