// Package workspace turns cargo metadata into the list of workspace members
// to process, and filters that list by exclusion.
package workspace
