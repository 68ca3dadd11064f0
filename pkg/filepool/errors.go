package filepool

import "errors"

// Sentinel errors for the pool's error kinds (spec §7). Registration-time
// errors are returned to the caller as one of these; runtime loader errors
// are logged rather than propagated, since no error may reach the audio
// thread.
var (
	// ErrPathUnresolved means PathResolver could not find a case-insensitive
	// match for a registered identity under the pool's root directory.
	ErrPathUnresolved = errors.New("filepool: path could not be resolved")

	// ErrUnsupportedChannelCount means the decoded file reported a channel
	// count outside {1, 2}.
	ErrUnsupportedChannelCount = errors.New("filepool: unsupported channel count")

	// ErrDecoderError wraps a failure from the underlying AudioReader.
	ErrDecoderError = errors.New("filepool: decoder error")

	// ErrQueueFull names a failed non-blocking push onto the LoadQueue. No
	// code path returns or logs it: GetFilePromise drops the request and
	// returns the entry handle regardless.
	ErrQueueFull = errors.New("filepool: load queue is full")

	// ErrMetadataMissing is non-fatal: absence of instrument/wavetable
	// metadata is expected for many files.
	ErrMetadataMissing = errors.New("filepool: no instrument metadata present")

	// ErrStuckInvalidState means a loader's spin-wait for a registry slot
	// to leave Invalid status timed out.
	ErrStuckInvalidState = errors.New("filepool: entry stuck in invalid state")

	// ErrUnknownIdentity means an operation referenced an identity that was
	// never registered.
	ErrUnknownIdentity = errors.New("filepool: identity not registered")
)
