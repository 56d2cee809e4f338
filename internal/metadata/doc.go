// Package metadata wraps `cargo metadata`, the query used to learn which
// packages make up a workspace and where their manifests live.
package metadata
