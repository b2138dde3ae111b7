package fragmentation

import (
	"github.com/turtacn/MolFrag/internal/infrastructure/monitoring/logging"
)

// DefaultLeafCacheCapacity bounds the leaf cache when no option overrides it.
const DefaultLeafCacheCapacity = 500

type options struct {
	logger             logging.Logger
	leafCacheCapacity  int
	tripletThreshold   int
	maxValueHeavyAtoms int
	minKeyValueRatio   float64
	removeHydrogens    bool
}

func defaultOptions() options {
	return options{
		logger:            logging.NewNopLogger(),
		leafCacheCapacity: DefaultLeafCacheCapacity,
		tripletThreshold:  DefaultTripletThreshold,
	}
}

// Option configures a Factory.
type Option func(*options)

// WithLogger sets the factory logger.
func WithLogger(l logging.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithLeafCacheCapacity bounds the number of cached leaves.
func WithLeafCacheCapacity(n int) Option {
	return func(o *options) { o.leafCacheCapacity = n }
}

// WithTripletThreshold sets the raw candidate count above which invalid
// triplets are materialised eagerly.
func WithTripletThreshold(n int) Option {
	return func(o *options) { o.tripletThreshold = n }
}

// WithMaxValueHeavyAtoms rejects fragmentations whose core has more heavy
// atoms than n.  Zero disables the filter.
func WithMaxValueHeavyAtoms(n int) Option {
	return func(o *options) { o.maxValueHeavyAtoms = n }
}

// WithMinKeyValueRatio rejects fragmentations whose leaf-to-core heavy atom
// ratio is below r.  Zero disables the filter.
func WithMinKeyValueRatio(r float64) Option {
	return func(o *options) { o.minKeyValueRatio = r }
}

// WithRemoveExplicitHydrogens strips explicit hydrogens from every fragment
// before encoding.
func WithRemoveExplicitHydrogens(on bool) Option {
	return func(o *options) { o.removeHydrogens = on }
}

//Personal.AI order the ending
