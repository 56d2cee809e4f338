// Package manifest edits Cargo manifests in place. A Document keeps the
// original bytes of Cargo.toml and applies registry edits as byte splices,
// so comments, ordering and formatting outside the touched fields survive a
// round trip unchanged.
package manifest
