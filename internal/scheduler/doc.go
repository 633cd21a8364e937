// Package scheduler runs the bridge's single poll loop.
//
// One goroutine owns the registry, gate, reconciliation engine and
// publisher. Bus callbacks never touch them: inbound messages are queued on
// a bounded inbox and reconnects raise a one-slot signal, and the loop
// drains both between ticks. A full inbox drops the message.
//
// Each tick polls, in order: the system category, every entity kind in
// reconcile order, the scalar content categories, then the GPU, container
// and bridge categories. Content categories are skipped while their gate is
// off. Every step runs behind a boundary that turns errors and panics into
// a warning so one failing category never stops the others.
package scheduler
