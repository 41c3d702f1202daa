package filestore

// SetBeforeRename installs a hook that runs after the temp file is synced
// and before it replaces the destination.
func (b *Backend) SetBeforeRename(fn func(key string) error) { b.beforeRename = fn }
