// Package version records the typebridge release version stamped into
// generated file headers.
package version

// Tag is the current release version. Overridden at build time via
// -ldflags "-X github.com/typebridge/typebridge/version.Tag=...".
var Tag = "0.4.0"
