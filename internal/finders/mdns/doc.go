// Package mdns implements the multicast DNS discovery finder.
//
// It adapts zeroconf service browsing onto the shared finder core in
// package finders: announcements arrive on the library's callback
// channels, are converted to ServiceEvents, and are handed to the
// non-blocking ingestion queue. Match properties are evaluated against
// the announced TXT records plus the reserved "instance", "host", and
// "port" keys.
package mdns
