// Package theme loads the GTK stylesheet for toast windows. A bundled
// theme is layered with an optional user stylesheet, and the user file is
// reloaded when it changes on disk.
package theme
