package exdyn

import "errors"

var (
	// ErrNotDirectory occurs when the discovery target is not a directory.
	ErrNotDirectory = errors.New("extension path is not a directory")
	// ErrDuplicateExtension occurs when two artifacts derive the same identifier.
	ErrDuplicateExtension = errors.New("duplicate extension identifier")
	// ErrLibraryLoad occurs when an artifact cannot be mapped into the process.
	ErrLibraryLoad = errors.New("cannot load extension library")
	// ErrMissingEntrypoint occurs when a linked library does not export the entrypoint symbol.
	ErrMissingEntrypoint = errors.New("missing extension entrypoint symbol")
	// ErrHandleConsumed occurs when a Handle is reclaimed more than once.
	ErrHandleConsumed = errors.New("entrypoint handle already reclaimed")
	// ErrTaskStarted occurs when starting a Task a second time.
	ErrTaskStarted = errors.New("task already started")
	// ErrChannelClosed occurs when receiving from a drained event channel whose senders are all closed.
	ErrChannelClosed = errors.New("event channel closed")
	// ErrSenderClosed occurs when sending on or re-closing a closed sender clone.
	ErrSenderClosed = errors.New("event sender closed")
	// ErrAlreadyRegistered occurs when registering an in-process entrypoint under a taken name.
	ErrAlreadyRegistered = errors.New("extension already registered")
	// ErrBadSignature occurs when an author function matches neither accepted entrypoint shape.
	ErrBadSignature = errors.New("function does not match an accepted entrypoint shape")
)
