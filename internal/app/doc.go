// Package app wires application dependencies for the CLI.
//
// It loads Config with viper (defaults, an optional YAML file and THEMIS_*
// environment variables), then builds the concrete stores, relay client and
// high-level services, exposing them via the Wire struct for commands to use.
package app
