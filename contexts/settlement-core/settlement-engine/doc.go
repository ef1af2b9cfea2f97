// Package settlementengine executes batch purchases: it validates a batch
// against the registry and policy, moves funds through the ledger, and
// reassigns ownership, all-or-nothing.
package settlementengine
