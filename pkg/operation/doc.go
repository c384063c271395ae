// Package operation implements the state half of the asynchronous
// file-operation engine: operation records, the progress protocol, the
// cancellation token, and the Manager that owns them together with the
// undo/redo log.
//
// The Manager is the single owner of every record. Workers running the
// execution engine (package executor) never touch a record directly;
// they stream ProgressUpdate events through the Manager's queue and the
// host applies them by calling ProcessUpdates.
package operation
