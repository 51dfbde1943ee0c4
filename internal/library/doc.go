/*
Package library indexes pose documents under the configured library roots.

# Syncs

A full sync clears the current index, walks every root in parallel, keeps
the non-hidden pose documents it finds and publishes them sorted by path.
An image sync resolves a preview image for every indexed document in the
background. Each kind of sync is single-flight: a request arriving while
one is running is dropped, never queued.

	lib := library.New(settingsStore, resolver)
	lib.OnClear(controller.Abandon)
	lib.FullSync()

Image syncs triggered outside a full sync go through a RateLimiter so that
expensive refreshes run at most once per interval unless forced.

# Display

ShortPath strips the longest matching library root from a document path.
Filter narrows the index by substring or glob search and by whether a
preview image was found.
*/
package library
