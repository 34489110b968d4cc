// Package cli is responsible for parsing command-line arguments, validating
// user input, and handling process-level concerns like exit codes. It
// translates CLI flags into the application's internal configuration.
//
// Usage:
//
//	burstplan [flags] QUERY...
//
// The words after the flags are joined into the query. With --plan-file the
// plans are replayed from a file and no language model is contacted.
package cli
