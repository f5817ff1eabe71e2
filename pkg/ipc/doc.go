// Package ipc defines the message queue primitive used by channels.
package ipc

// A queue is identified by a numeric Key chosen by the caller, and once
// opened it is addressed by a Handle. Each message carries a Tag (the
// System V mtype) which receivers may use to select messages.
//
// Implementations:
//   - Memory: process local queues, mostly for tests and single process
//     deployments.
//   - sysv.Transport: System V message queues.
//   - comm.Transport: queues emulated over packet links (named pipes,
//     MQTT, websocket).
