// Command posectl manages a pose browser installation without a running
// server.
//
// Usage:
//
//	posectl [--database-dir DIR] [--cache-dir DIR] <command>
//
// Commands:
//
//	libraries list        List library roots in insertion order
//	libraries add <path>  Add a library root
//	libraries clear       Remove every library root (asks unless --yes)
//	scan                  Index the roots and print document counts
//	list                  Index the roots and list documents (--search, --images-only)
//	cache clear           Delete cached thumbnails
//
// Environment:
//
//	DATABASE_DIR - Path to the settings database directory (default: /database)
//	CACHE_DIR    - Path to the cache directory (default: /cache)
package main
