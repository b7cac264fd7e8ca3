// Package radiolink tracks the operating state of the radio and notifies
// subscribers of availability and power transitions.
//
// Transitions fire in a fixed order: state changed, available, not
// available, on, off-or-not-available. Subscribing to a level condition that
// already holds delivers one immediate notification.
package radiolink
