/*
Package session serializes access to reader progress.

Manager wraps any ports.ProgressStore with per-reader mutexes and, optionally,
a ports.DistributedLocker so replicas sharing one backend do not interleave a
read with a write for the same reader. It also keeps the set of readers that
have a session running in the current process.
*/
package session
