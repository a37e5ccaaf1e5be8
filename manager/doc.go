// Package manager implements the UDF Manager: construction of a UDF chain
// from config, a single dispatch goroutine pulling frames off a bounded
// input queue and submitting chain-walk jobs to a thread pool, and a
// bounded output queue workers push finished frames onto with blocking
// backpressure.
package manager
