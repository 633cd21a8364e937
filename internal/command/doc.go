// Package command routes inbound bus messages to remote control actions and
// group toggles.
//
// A message is parsed from its topic into one of four shapes:
//
//	<base>/groups/<category>/set              group toggle
//	<base>/<category>/command|set             category-global command
//	<base>/<category>/<short>/command         per-entity command
//	<base>/<category>/<short>/<field>/set     per-entity value
//
// Entity short ids are resolved against the registry: ids that start with
// the fragment win over ids that merely contain it, and among several
// candidates the smallest id is chosen and an ambiguity warning is logged.
//
// The resolved action is looked up in a static table, its argument is
// validated, and the remote is called exactly once with a timeout. Nothing
// is published back except group state.
package command
