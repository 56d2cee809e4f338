// Package update sets the registry of selected dependencies across the
// manifests of a Cargo workspace.
//
// Run resolves the workspace, drops excluded members, rewrites each
// remaining member with UpdateMember and finally resolves the workspace again
// to check that the edited manifests still load. Each manifest is written at
// most once and never during a dry run.
package update
