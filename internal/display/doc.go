// Package display presents toasts as GTK4 layer-shell windows, one window
// per toast. It implements toast.Surface: windows are stacked by the stack
// package, styled by the theme package, and follow the pointer while a
// swipe is in progress by shifting their layer-shell margins.
package display
