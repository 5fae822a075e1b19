// Package jsonfile provides JSON-file implementations of the manifest and
// silo registry stores.
//
// Both stores keep their whole document in memory and rewrite it on every
// mutation with write-temp, fsync, rename in the same directory, so a crash
// leaves either the previous or the new document on disk. A mutex
// serializes writers within the process.
package jsonfile
