// Package appconfig holds the branding and feature-flag configuration rendered
// by the web front. A Store keeps the immutable process-wide defaults and
// resolves them against request-scoped overrides into a fully populated
// AppConfig. Resolution is pure: malformed overrides are dropped silently and
// the default value is kept.
package appconfig
