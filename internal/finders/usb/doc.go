// Package usb implements the USB serial discovery finder.
//
// The finder polls the attached USB serial devices (sysfs on Linux, an
// injectable enumerator elsewhere) and matches their descriptor
// attributes against the add-on catalog. Poll results flow through the
// same ingestion queue as the event-driven finders, so the match-state
// semantics are identical across finder kinds.
package usb
