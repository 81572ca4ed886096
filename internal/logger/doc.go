// Package logger provides the leveled logrus logger shared by the CLI, the
// relay and the services.
package logger
