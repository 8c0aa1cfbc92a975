// Package slog provides log/slog decorators for harvest services.
package slog
