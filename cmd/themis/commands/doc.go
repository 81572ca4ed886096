// Package commands defines the themis CLI and wires dependencies for subcommands.
//
// Commands
//
//   - keygen         Create the local identity (EC, RSA or ML-DSA)
//   - fingerprint    Print the identity fingerprint
//   - export         Write our public key for others to import
//   - import-peer    Pin a peer public key from a file
//   - publish        Publish our public key to the relay
//   - fetch-peer     Fetch and pin a peer public key from the relay
//   - peers          List pinned peers
//   - cell           Secure Cell: keygen, seal, open, token-seal, token-open, imprint
//   - sign, verify   Signed-only Secure Messages
//   - encrypt, decrypt  Encrypted Secure Messages
//   - session        Secure Session over the relay: connect, listen
//   - compare        Secure Comparator: local, or over a session
//
// # Implementation
//
// The root command loads configuration (flags over THEMIS_* environment over
// an optional YAML file over defaults) and builds the dependency graph
// (stores, services, relay client) before any subcommand runs.
package commands
