// Package preflight provides readiness checks for the external programs,
// directories, and services captionsync depends on.
//
// The doctor command prints every check; rate and worker run RunAll before
// doing any work so a missing ffmpeg or unwritable report directory fails
// fast with a configuration error instead of minutes into a run.
package preflight
