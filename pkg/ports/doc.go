/*
Package ports defines the driven ports (interfaces) of the Storyline engine.

These interfaces decouple the navigation state machine from the chat transport
and the persistence engine, allowing the same core to run in a terminal, behind
an HTTP API, or against any storage backend.

# Key Interfaces

  - ProgressStore: get/set a reader's last-known passage (upsert keyed by reader).
  - Transport: present a message, await a matching selection, withdraw controls.
  - DistributedLocker: provides distributed locking for per-reader serialization.
*/
package ports
