// Package entity defines the remote entity kinds mirrored by the bridge and
// the in-memory Registry that tracks which of them are currently announced.
//
// A Kind is one of a closed set (session, user, device, task, plugin,
// library, playlist, syncgroup). Each kind has exactly one category, which is
// both its topic segment and its group gate key.
//
// The Registry holds no persistent state. After a restart it is empty and
// every live entity is announced again on the first successful poll.
package entity
