// Package scheduler decides when each node of a round's execution graph may
// run, and streams ready nodes to the workers.
//
// # How It Works
//
// Every node starts with a counter of dependencies that have no terminal
// outcome yet. Nodes whose counter is already zero are queued immediately.
// When a worker records an outcome it calls Complete, which decrements the
// counter of every dependent. A dependent that reaches zero is either:
//
//   - queued on the ReadyNodes channel, when all of its dependencies
//     succeeded or the dependent is the join task, or
//   - recorded as Skipped without ever being launched, when some dependency
//     failed or was skipped. Its own dependents are then completed in turn.
//
// The join task is never skipped. It runs once every other task is terminal,
// whatever their status, so the join step can observe failures.
//
// Scheduling is event driven. Nothing polls: readiness is discovered at the
// moment the last dependency completes, so a task starts as soon as its
// inputs exist no matter how slow its siblings are.
//
// # Termination
//
// ReadyNodes is closed once every node is terminal. The channel is buffered
// to the number of nodes, so Complete never blocks on a slow consumer.
//
// # Thread-Safety
//
// Complete may be called concurrently from any number of workers. Counters
// are atomic and every node finishes exactly once.
package scheduler
