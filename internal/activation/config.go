package activation

// Config tunes a spreading-activation query. Values are fixed per run.
type Config struct {
	// InitialK is how many vector-search seeds start the activation.
	InitialK int `yaml:"initial_k"`

	// MaxHops bounds how far activation spreads from the seeds.
	MaxHops int `yaml:"max_hops"`

	// DecayPerHop scales activation at each hop, in (0, 1].
	DecayPerHop float64 `yaml:"decay_per_hop"`

	// MinEnergy is the dead-neuron threshold: notes below it neither
	// originate nor receive spread.
	MinEnergy float64 `yaml:"min_energy"`

	// MinActivation drops results scoring below it.
	MinActivation float64 `yaml:"min_activation"`

	// MaxResults truncates the ranked result list.
	MaxResults int `yaml:"max_results"`

	// Bidirectional also spreads against synapse direction when true.
	Bidirectional bool `yaml:"bidirectional"`
}

// DefaultConfig returns the standard recall tuning.
func DefaultConfig() Config {
	return Config{
		InitialK:      5,
		MaxHops:       3,
		DecayPerHop:   0.5,
		MinEnergy:     0.1,
		MinActivation: 0.01,
		MaxResults:    20,
		Bidirectional: false,
	}
}

// withDefaults fills zero-valued fields from DefaultConfig.
func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.InitialK <= 0 {
		c.InitialK = def.InitialK
	}
	if c.MaxHops <= 0 {
		c.MaxHops = def.MaxHops
	}
	if c.DecayPerHop <= 0 {
		c.DecayPerHop = def.DecayPerHop
	}
	if c.MaxResults <= 0 {
		c.MaxResults = def.MaxResults
	}
	return c
}
