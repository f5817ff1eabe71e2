// Package sysv implements ipc.Transport with System V message queues.
package sysv
