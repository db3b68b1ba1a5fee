// Package cli provides the warden-cli command-line interface.
//
// # Commands
//
// register: Create an account and print its token
//
//	warden-cli register --name Ada --email ada@example.com --password secret1
//
// login: Print a token for existing credentials
//
//	export WARDEN_TOKEN=$(warden-cli login --email ada@example.com --password secret1 --quiet)
//
// profile: Show the account the token belongs to
//
//	warden-cli profile
//
// users: Admin user management
//
//	warden-cli users list
//	warden-cli users update --id 42 --name "Ada L."
//	warden-cli users delete --id 42
//
// Every command accepts --server (default $WARDEN_URL or http://localhost:5000)
// and --token (default $WARDEN_TOKEN).
package cli
