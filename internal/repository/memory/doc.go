// Package memory provides in-process implementations of the repository interfaces.
// They back the service when no POSTGRES_DSN is configured and are used throughout the tests.
package memory
