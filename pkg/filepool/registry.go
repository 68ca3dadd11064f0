package filepool

import (
	"path/filepath"
	"sync"

	"github.com/drgolem/samplepool/pkg/audiobuffer"
	"github.com/drgolem/samplepool/pkg/audioreader"
	"github.com/drgolem/samplepool/pkg/oversampler"
	"github.com/drgolem/samplepool/pkg/pathresolver"
)

// record pairs a CacheEntry with the bookkeeping the registry needs but
// voices never see: the caller-supplied maxOffset and totalFrames in
// native (F=1) units, kept separately so repeated setOversamplingFactor
// calls rescale from the original request rather than compounding
// rounding error across successive factor changes.
type record struct {
	entry             *CacheEntry
	nativeMaxOffset   uint32
	nativeTotalFrames uint32
	nativeSampleRate  float64
}

// PreloadRegistry is the control-thread-only identity -> CacheEntry map
// (spec.md §4.3). It is never touched by loaders, the dispatcher, or the
// audio thread; those only hold *CacheEntry pointers handed out earlier.
type PreloadRegistry struct {
	mu      sync.Mutex
	entries map[SampleIdentity]*record

	rootDirectory      string
	preloadSize        int
	ramLoading         bool
	oversamplingFactor int

	resampler oversampler.Oversampler
}

// NewPreloadRegistry creates an empty registry under rootDir with the
// given initial preload size (native frames) and oversampling factor.
func NewPreloadRegistry(rootDir string, preloadSize int, oversamplingFactor int) *PreloadRegistry {
	if oversamplingFactor < 1 {
		oversamplingFactor = 1
	}
	return &PreloadRegistry{
		entries:            make(map[SampleIdentity]*record),
		rootDirectory:      rootDir,
		preloadSize:        preloadSize,
		oversamplingFactor: oversamplingFactor,
		resampler:          oversampler.NewSoxResampler(),
	}
}

// resolve applies PathResolver against the registry's root directory and
// canonicalises id's filename on success (spec.md §4.1).
func (r *PreloadRegistry) resolve(id SampleIdentity) (SampleIdentity, string, error) {
	resolved, ok, err := pathresolver.Resolve(r.rootDirectory, id.Filename)
	if err != nil {
		return id, "", ErrDecoderError
	}
	if !ok {
		return id, "", ErrPathUnresolved
	}
	id.Filename = resolved
	return id, filepath.Join(r.rootDirectory, resolved), nil
}

// PreloadFile ensures an entry exists for id whose preload buffer holds at
// least min(totalFrames, maxOffset+preloadSize) frames, or the full file
// in RAM-load mode (spec.md §4.3). Extends but never shrinks an existing
// preload buffer, and never lowers a previously recorded maxOffset.
func (r *PreloadRegistry) PreloadFile(id SampleIdentity, maxOffset uint32) (SampleIdentity, bool, error) {
	resolvedID, path, err := r.resolve(id)
	if err != nil {
		return id, false, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if rec, ok := r.entries[resolvedID]; ok {
		if maxOffset <= rec.nativeMaxOffset {
			return resolvedID, true, nil
		}
		rec.nativeMaxOffset = maxOffset
		if err := r.reloadPreload(rec, path, resolvedID.Reversed); err != nil {
			return resolvedID, false, err
		}
		return resolvedID, true, nil
	}

	md, preload, rec, err := r.buildEntry(path, resolvedID.Reversed, maxOffset)
	if err != nil {
		return resolvedID, false, err
	}

	src := SourceInfo{
		ResolvedPath:      path,
		Reversed:          resolvedID.Reversed,
		NativeSampleRate:  rec.nativeSampleRate,
		NativeTotalFrames: rec.nativeTotalFrames,
	}
	entry := newCacheEntry(resolvedID, md, preload, src, r.oversamplingFactor)
	rec.entry = entry
	r.entries[resolvedID] = rec
	return resolvedID, true, nil
}

// LoadFile fully reads the sample into the preload buffer, treating it as
// "everything preloaded" (spec.md §4.3), and returns the entry.
func (r *PreloadRegistry) LoadFile(id SampleIdentity) (*CacheEntry, error) {
	resolvedID, path, err := r.resolve(id)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if rec, ok := r.entries[resolvedID]; ok {
		rec.nativeMaxOffset = rec.nativeTotalFrames // force "everything" on future preload extensions
		if err := r.reloadPreloadFull(rec, path, resolvedID.Reversed); err != nil {
			return nil, err
		}
		return rec.entry, nil
	}

	nativeMD, err := getFileInformation(path, resolvedID.Reversed, 0)
	if err != nil {
		return nil, err
	}
	preload, err := r.decodePreload(path, resolvedID.Reversed, int(nativeMD.TotalFrames), nativeMD.SampleRate)
	if err != nil {
		return nil, err
	}
	md := nativeMD.Rescale(1, r.oversamplingFactor)

	src := SourceInfo{
		ResolvedPath:      path,
		Reversed:          resolvedID.Reversed,
		NativeSampleRate:  nativeMD.SampleRate,
		NativeTotalFrames: nativeMD.TotalFrames,
	}
	entry := newCacheEntry(resolvedID, md, preload, src, r.oversamplingFactor)
	r.entries[resolvedID] = &record{
		entry:             entry,
		nativeMaxOffset:   nativeMD.TotalFrames,
		nativeTotalFrames: nativeMD.TotalFrames,
		nativeSampleRate:  nativeMD.SampleRate,
	}
	return entry, nil
}

// Lookup returns the entry for id, if registered.
func (r *PreloadRegistry) Lookup(id SampleIdentity) (*CacheEntry, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.entries[id]
	if !ok {
		return nil, false
	}
	return rec.entry, true
}

// SetPreloadSize re-reads n + entry.maxOffset frames into the preload
// buffer for every entry not in RAM-load mode (spec.md §4.3). No change to
// the streaming tail.
func (r *PreloadRegistry) SetPreloadSize(n int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.preloadSize = n

	if r.ramLoading {
		return nil
	}
	for id, rec := range r.entries {
		path := filepath.Join(r.rootDirectory, id.Filename)
		if err := r.reloadPreload(rec, path, id.Reversed); err != nil {
			return err
		}
	}
	return nil
}

// SetRamLoading toggles between "preload head + streamed tail" and
// "entire file resident in preload" (spec.md §4.3).
func (r *PreloadRegistry) SetRamLoading(enabled bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.ramLoading == enabled {
		return nil
	}
	r.ramLoading = enabled

	for id, rec := range r.entries {
		path := filepath.Join(r.rootDirectory, id.Filename)
		if enabled {
			if err := r.reloadPreloadFull(rec, path, id.Reversed); err != nil {
				return err
			}
		} else if err := r.reloadPreload(rec, path, id.Reversed); err != nil {
			return err
		}
	}
	return nil
}

// SetOversamplingFactor recomputes framesToLoad under the new factor,
// re-reads the preload buffer at F', rescales metadata by F'/F for every
// entry, and if status is Done, re-reads the full-file tail at F' and
// updates availableFrames to oldAvailable*F'/F (spec.md §4.3). Must be
// called when no voices are reading; no mid-stream consistency is
// guaranteed (Open Question (b), resolved in DESIGN.md: callers must
// ensure quiescence themselves).
func (r *PreloadRegistry) SetOversamplingFactor(newFactor int) error {
	if newFactor < 1 {
		newFactor = 1
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	oldFactor := r.oversamplingFactor
	if oldFactor == newFactor {
		return nil
	}

	for id, rec := range r.entries {
		path := filepath.Join(r.rootDirectory, id.Filename)
		md := rec.entry.Metadata().Rescale(oldFactor, newFactor)
		rec.entry.setMetadata(md)
		rec.entry.setFactor(newFactor)

		r.oversamplingFactor = newFactor
		if r.ramLoading {
			if err := r.reloadPreloadFull(rec, path, id.Reversed); err != nil {
				r.oversamplingFactor = oldFactor
				return err
			}
		} else if err := r.reloadPreload(rec, path, id.Reversed); err != nil {
			r.oversamplingFactor = oldFactor
			return err
		}

		if rec.entry.Status() == StatusDone {
			oldAvailable := rec.entry.AvailableFrames()
			newAvailable := uint32(float64(oldAvailable) * float64(newFactor) / float64(oldFactor))
			if err := r.reloadTail(rec, path, id.Reversed); err != nil {
				return err
			}
			rec.entry.publishAvailable(newAvailable)
		}
	}

	r.oversamplingFactor = newFactor
	return nil
}

// SetRootDirectory changes the base path used to resolve future
// registrations. Background loads of already-registered entries keep
// streaming from the path resolved at registration, while later
// SetPreloadSize, SetRamLoading and SetOversamplingFactor calls re-read
// preload data from the new root joined with each entry's filename.
func (r *PreloadRegistry) SetRootDirectory(root string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rootDirectory = root
}

// Clear empties the registry.
func (r *PreloadRegistry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = make(map[SampleIdentity]*record)
}

// Len returns the number of registered entries.
func (r *PreloadRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

func (r *PreloadRegistry) buildEntry(path string, reversed bool, maxOffset uint32) (FileMetadata, *audiobuffer.Buffer, *record, error) {
	nativeMD, err := getFileInformation(path, reversed, maxOffset)
	if err != nil {
		return FileMetadata{}, nil, nil, err
	}

	framesWanted := int(maxOffset) + r.preloadSize
	if r.ramLoading || framesWanted > int(nativeMD.TotalFrames) {
		framesWanted = int(nativeMD.TotalFrames)
	}

	preload, err := r.decodePreload(path, reversed, framesWanted, nativeMD.SampleRate)
	if err != nil {
		return FileMetadata{}, nil, nil, err
	}

	md := nativeMD.Rescale(1, r.oversamplingFactor)
	md.MaxOffset = maxOffset * uint32(r.oversamplingFactor)

	rec := &record{
		nativeMaxOffset:   maxOffset,
		nativeTotalFrames: nativeMD.TotalFrames,
		nativeSampleRate:  nativeMD.SampleRate,
	}
	return md, preload, rec, nil
}

// decodePreload decodes framesWanted native frames from path and, if the
// registry's oversampling factor is greater than 1, streams them through
// the oversampler to produce framesWanted*factor frames.
func (r *PreloadRegistry) decodePreload(path string, reversed bool, framesWanted int, nativeRate float64) (*audiobuffer.Buffer, error) {
	reader, err := audioreader.Open(path, reversed)
	if err != nil {
		return nil, ErrDecoderError
	}
	defer reader.Close()

	native, err := reader.ReadAll(framesWanted)
	if err != nil {
		return nil, ErrDecoderError
	}

	if r.oversamplingFactor <= 1 {
		return native, nil
	}

	dst := audiobuffer.New(native.NumChannels(), native.NumFrames()*r.oversamplingFactor)
	if err := r.resampler.Stream(dst, native, int(nativeRate), r.oversamplingFactor, nil); err != nil {
		return nil, ErrDecoderError
	}
	return dst, nil
}

func (r *PreloadRegistry) reloadPreload(rec *record, path string, reversed bool) error {
	framesWanted := int(rec.nativeMaxOffset) + r.preloadSize
	if r.ramLoading || framesWanted > int(rec.nativeTotalFrames) {
		framesWanted = int(rec.nativeTotalFrames)
	}
	buf, err := r.decodePreload(path, reversed, framesWanted, rec.nativeSampleRate)
	if err != nil {
		return err
	}
	rec.entry.setPreloadedData(buf)
	return nil
}

func (r *PreloadRegistry) reloadPreloadFull(rec *record, path string, reversed bool) error {
	buf, err := r.decodePreload(path, reversed, int(rec.nativeTotalFrames), rec.nativeSampleRate)
	if err != nil {
		return err
	}
	rec.entry.setPreloadedData(buf)
	return nil
}

func (r *PreloadRegistry) reloadTail(rec *record, path string, reversed bool) error {
	buf, err := r.decodePreload(path, reversed, int(rec.nativeTotalFrames), rec.nativeSampleRate)
	if err != nil {
		return err
	}
	rec.entry.fileData.Store(buf)
	return nil
}
