// Package queue implements a bounded, thread-safe FIFO used throughout this
// module for frame hand-off between the Manager's dispatch loop, the thread
// pool, and its output stage. It uses a sync.Cond rather than channels so
// Push/Pop/WaitFor can report queue depth and support draining with a
// caller-supplied cleanup on every leftover element, which a plain
// buffered channel cannot do.
package queue
