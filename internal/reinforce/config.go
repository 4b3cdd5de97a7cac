package reinforce

// Config tunes the reinforcement hooks. Boosts are additive deltas applied
// per event.
type Config struct {
	// Enabled is the master switch; when false every hook is a no-op.
	Enabled bool `yaml:"enabled"`

	// SearchEnergyBoost is added to each note returned by a recall query.
	SearchEnergyBoost float64 `yaml:"search_energy_boost"`

	// SearchSynapseBoost is added to the synapse weight of every ordered
	// pair of co-returned notes, creating missing synapses.
	SearchSynapseBoost float64 `yaml:"search_synapse_boost"`

	// CommitEnergyBoost is added to notes linked to files a commit touched.
	CommitEnergyBoost float64 `yaml:"commit_energy_boost"`

	// ContextEnergyBoost is added to notes assembled into a context window.
	ContextEnergyBoost float64 `yaml:"context_energy_boost"`
}

// DefaultConfig returns the standard reinforcement tuning.
func DefaultConfig() Config {
	return Config{
		Enabled:            true,
		SearchEnergyBoost:  0.1,
		SearchSynapseBoost: 0.05,
		CommitEnergyBoost:  0.2,
		ContextEnergyBoost: 0.05,
	}
}
