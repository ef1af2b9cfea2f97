// Package registryservice owns the durable digital-asset registry: one-time
// asset registration, metadata reads, and the ownership map mutated only by
// successful settlements.
package registryservice
