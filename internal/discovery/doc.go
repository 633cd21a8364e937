// Package discovery publishes Home Assistant MQTT discovery configs and the
// state values they point at.
//
// The Publisher implements the reconciliation sink: Register announces every
// discovery object of an entity and publishes its state, Update republishes
// state only, and Unregister retracts the same objects by publishing an empty
// retained payload to each config topic. Announce and retract walk the same
// descriptor list, so an entity never leaves an orphaned config behind.
//
// Discovery object ids have the form <kind>_<short_id>_<suffix> and are
// prefixed with jellyfin_<server_id>_ to build the unique id and node id.
// Entities of one kind whose ids share a short id share these objects; they
// are retracted only when the last of them is unregistered.
//
// Besides per-entity objects the Publisher announces the static set:
// aggregate sensors, scalar category sensors, group switches, server
// buttons, hardware sensors and bridge status sensors.
package discovery
