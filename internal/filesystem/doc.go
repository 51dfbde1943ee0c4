/*
Package filesystem wraps the filesystem calls made while scanning pose
libraries with retry logic for NFS stale file handle errors.

Library roots frequently live on network shares. A directory listing that
races a server-side change can fail with ESTALE even though an immediate
second attempt would succeed, so the stat, readdir and read operations used by
the indexer and image resolver retry those errors with exponential backoff.
Every other error fails immediately.

# Usage

	entries, err := filesystem.ReadDirWithRetry(dir, filesystem.DefaultRetryConfig())
	if err != nil {
	    // treated by callers as "nothing here"
	}

# Observability

Operations report through an Observer so that this package does not import
the metrics package. The metrics package provides the implementation and
main wires it with SetObserver. Volume labels ("library", "cache",
"database") are derived with a VolumeResolver.
*/
package filesystem
