// Package daemon holds the parts of toastuid that sit between its
// components, such as the toasts the daemon shows about itself.
package daemon
