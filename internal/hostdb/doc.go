// Package hostdb reads and writes the host forum's product tables in a
// SQLite database.
//
// It serves three consumers: the builder's phrase-type registry, the porter
// (which reads an installed product back into a project tree) and the build
// history recorded by the CLI. The schema is the subset of the host schema
// those consumers touch.
package hostdb
