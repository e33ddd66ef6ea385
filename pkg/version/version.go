// Package version holds the application version string reported by the
// API and logged at startup.
package version

// Version is the current release of ArgusGo.
const Version = "0.3.1"
