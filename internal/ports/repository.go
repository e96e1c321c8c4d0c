package ports

// PreferencesRepository stores the handful of settings SongScope remembers
// between runs: playback volume, loop mode and the last opened video.
// Missing values are not errors; loaders fall back to 1.0, false and "".
// Implementations must be safe for concurrent use.
type PreferencesRepository interface {
	SaveVolume(volume float64) error
	LoadVolume() (float64, error)

	SaveLoopMode(enabled bool) error
	LoadLoopMode() (bool, error)

	// SaveLastVideoURL records the watch URL restored on the next start.
	SaveLastVideoURL(url string) error
	LoadLastVideoURL() (string, error)

	// Clear forgets every stored value.
	Clear() error
}
