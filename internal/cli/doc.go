// Package cli parses command-line arguments, validates user input and maps
// failures to process exit codes. It also drives a loaded graph through
// training and reports the result.
package cli
