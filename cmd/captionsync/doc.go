// Package main hosts the captionsync CLI entrypoint and command graph.
//
// Commands load configuration once through the shared command context, build
// a logger that writes to stderr and the log file, and leave stdout for
// reports. Rating work itself lives in internal/engine; this package only
// wires collaborators, persists artifacts, and maps outcomes to exit codes:
// 0 passed, 1 failed rating, 2 invalid input or configuration, 3 external
// tool failure.
package main
