// Package safety gates what the ingest pipeline may read: cloud-sync roots,
// secret files, include/exclude globs and hostile ZIP archives.
package safety
