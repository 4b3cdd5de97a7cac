package analytics

// Config holds the tuning knobs for an analytics run. Supplied per run;
// zero-value fields are replaced by the defaults at construction time.
type Config struct {
	// Damping is the PageRank damping factor.
	Damping float64 `yaml:"damping"`

	// Tolerance is the L1 convergence tolerance for PageRank iteration.
	Tolerance float64 `yaml:"tolerance"`

	// MaxPageRankIterations caps PageRank iteration. Hitting the cap is a
	// successful-but-unconverged result, not an error.
	MaxPageRankIterations int `yaml:"max_pagerank_iterations"`

	// Resolution is the Louvain resolution parameter. Values above 1.0
	// favor smaller communities.
	Resolution float64 `yaml:"resolution"`

	// MaxLouvainPasses caps local-moving passes within one Louvain level.
	MaxLouvainPasses int `yaml:"max_louvain_passes"`

	// MaxLouvainLevels caps aggregation levels.
	MaxLouvainLevels int `yaml:"max_louvain_levels"`

	// MinClusteringDegree is the minimum undirected degree required for a
	// node to receive a nonzero clustering coefficient.
	MinClusteringDegree int `yaml:"min_clustering_degree"`
}

// DefaultConfig returns the default analytics configuration.
func DefaultConfig() Config {
	return Config{
		Damping:               0.85,
		Tolerance:             1e-6,
		MaxPageRankIterations: 100,
		Resolution:            1.0,
		MaxLouvainPasses:      10,
		MaxLouvainLevels:      10,
		MinClusteringDegree:   2,
	}
}

// withDefaults fills zero-valued fields from DefaultConfig.
func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.Damping <= 0 || c.Damping >= 1 {
		c.Damping = def.Damping
	}
	if c.Tolerance <= 0 {
		c.Tolerance = def.Tolerance
	}
	if c.MaxPageRankIterations <= 0 {
		c.MaxPageRankIterations = def.MaxPageRankIterations
	}
	if c.Resolution <= 0 {
		c.Resolution = def.Resolution
	}
	if c.MaxLouvainPasses <= 0 {
		c.MaxLouvainPasses = def.MaxLouvainPasses
	}
	if c.MaxLouvainLevels <= 0 {
		c.MaxLouvainLevels = def.MaxLouvainLevels
	}
	if c.MinClusteringDegree <= 0 {
		c.MinClusteringDegree = def.MinClusteringDegree
	}
	return c
}
