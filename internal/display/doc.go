// Package display renders popup stack items as GTK4 layer-shell windows.
// Everything here runs on the GTK main thread; Dispatch is the way in from
// other goroutines.
package display
