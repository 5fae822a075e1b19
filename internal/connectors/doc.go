// Package connectors holds the sources documents arrive from. The only
// source is the local filesystem; see the filesystem subpackage for the
// change watcher that keeps a silo current between full ingests.
package connectors
