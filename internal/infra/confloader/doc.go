// Package confloader loads configuration from file and environment.
//
// It uses koanf with the priority: env > file > default. Command-line
// flags are not read here; the caller applies them on top.
package confloader
