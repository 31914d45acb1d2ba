// Package logsink provides the logger component, a receiver that writes each
// record it gets to the component's slog logger at Info or Debug.
package logsink
