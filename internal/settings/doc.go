/*
Package settings persists browser configuration in SQLite.

The store holds the ordered list of library roots (duplicates are kept as
entered), whether preview images are shown, the thumbnail box size and
whether the external pose applier is used. The host editing mode is kept in
memory only because it reflects the live host, not a preference.

Every mutation notifies subscribers:

	unsubscribe := store.Subscribe(func(c settings.Change) {
		if c.Key == settings.KeyImagesEnabled {
			lib.RefreshImages(false)
		}
	})
	defer unsubscribe()

A YAML seed file can provide initial values on first start.
*/
package settings
