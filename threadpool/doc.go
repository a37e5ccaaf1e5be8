// Package threadpool implements a fixed-size worker pool with a bounded job
// queue, the execution substrate the Manager submits UDF-chain work to. It
// is grounded on the fixed-worker/bounded-channel pool pattern but built on
// this module's own queue.Queue so Stop can distinguish jobs a worker has
// already picked up from jobs still waiting, and run a caller-supplied
// cleanup for the latter instead of silently dropping them.
package threadpool
