// Package cli is the promptkeeper command-line client.
//
// It wires configuration, the local store, the optional remote backend, the
// sync engine and the identity session, then exposes them as cobra
// subcommands, an interactive shell and a background daemon with a small
// HTTP status server.
//
// Everything works offline. Signing in moves guest prompts to the account
// and starts background sync; signing out stops it.
package cli
