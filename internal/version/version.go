package version

// Version is the current application version.
// This value is injected at build time for releases.
var Version = "0.1.0-dev"
