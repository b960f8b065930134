package store

// Config exposes the store's behavioural knobs.
type Config struct {
	// RetainEmptyGroups controls the cascade policy on patient removal.
	// When false (the default), a hospital or department whose patient
	// embedding becomes empty as a result of removing or re-homing a
	// patient is dropped from its collection: the store mirrors only
	// entities relevant to the current user's patients, so an emptied
	// group disappears from view even though it still exists server-side.
	// When true, emptied groups stay in their collections with an empty
	// patient embedding.
	RetainEmptyGroups bool

	// Logger receives store lifecycle messages. Nil disables logging.
	Logger func(format string, args ...any)
}

// DefaultConfig returns the configuration matching the directory service's
// historical behaviour: emptied groups cascade away.
func DefaultConfig() Config {
	return Config{}
}

func (c Config) logf(format string, args ...any) {
	if c.Logger != nil {
		c.Logger(format, args...)
	}
}
