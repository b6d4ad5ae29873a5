package boosting

// Params contains all gradient boosting hyperparameters.
type Params struct {
	// Basic parameters
	NumIterations   int     `json:"num_iterations" yaml:"num_iterations"`
	LearningRate    float64 `json:"learning_rate" yaml:"learning_rate"`
	MaxDepth        int     `json:"max_depth" yaml:"max_depth"`
	MinChildSamples int     `json:"min_child_samples" yaml:"min_child_samples"`
	MinChildWeight  float64 `json:"min_child_weight" yaml:"min_child_weight"`

	// Regularization
	RegLambda      float64 `json:"reg_lambda" yaml:"reg_lambda"`
	RegAlpha       float64 `json:"reg_alpha" yaml:"reg_alpha"`
	MinGainToSplit float64 `json:"min_gain_to_split" yaml:"min_gain_to_split"`

	// Sampling
	Subsample       float64 `json:"subsample" yaml:"subsample"`
	ColsampleByTree float64 `json:"colsample_bytree" yaml:"colsample_bytree"`

	// Objective
	Objective string `json:"objective" yaml:"objective"`

	// Other
	Seed      int `json:"seed" yaml:"seed"`
	Verbosity int `json:"verbosity" yaml:"verbosity"`
}

// DefaultParams returns the tuned hyperparameters used for the Ames
// sale-price model.
func DefaultParams() Params {
	return Params{
		NumIterations:   1000,
		LearningRate:    0.01,
		MaxDepth:        6,
		MinChildSamples: 1,
		MinChildWeight:  1.0,
		RegLambda:       1.0,
		RegAlpha:        0.5,
		MinGainToSplit:  0,
		Subsample:       0.7,
		ColsampleByTree: 0.7,
		Objective:       "l2",
		Seed:            0,
	}
}

// withDefaults fills zero-valued fields with safe defaults so a partially
// specified Params still trains.
func (p Params) withDefaults() Params {
	if p.NumIterations == 0 {
		p.NumIterations = 100
	}
	if p.LearningRate == 0 {
		p.LearningRate = 0.1
	}
	if p.MaxDepth == 0 {
		p.MaxDepth = 6
	}
	if p.MinChildSamples == 0 {
		p.MinChildSamples = 1
	}
	if p.Subsample == 0 {
		p.Subsample = 1.0
	}
	if p.ColsampleByTree == 0 {
		p.ColsampleByTree = 1.0
	}
	if p.Objective == "" {
		p.Objective = "l2"
	}
	return p
}
