// Package cmd provides the command-line interface for charsetcop.
//
// # Available Commands
//
//   - charsetcop [paths...]: check that every file under the paths decodes
//     in one encoding and print a summary
//   - detect: report the first of several candidate encodings each file
//     decodes in
//   - encodings: list the supported encoding names
//   - version: show build information
//
// # Command Examples
//
//	// Check a source tree as Latin-1, Java files only
//	charsetcop -e ISO-8859-1 -t '*.java' src
//
//	// JSON report, symlinks recorded instead of followed
//	charsetcop -s -f json .
//
//	// Keep checking files as they change
//	charsetcop -w docs
//
// # Configuration Integration
//
// Commands respect configuration from multiple sources in order of precedence:
//
//  1. Command-line flags (highest priority)
//  2. Environment variables (CHARSETCOP_SCAN_ENCODING, CHARSETCOP_OUTPUT_FORMAT, ...)
//  3. Configuration file (--config, CHARSETCOP_CONFIG_FILE or .charsetcop.yml)
//  4. Default values (lowest priority)
//
// # Exit Status
//
// Files that fail the encoding check are reported, not fatal. The exit status
// is non-zero only when the run itself fails: an unknown encoding, a bad
// filter, a root path that is neither a file nor a directory, or a report
// that cannot be written. Running without paths prints usage and exits 0.
package cmd
