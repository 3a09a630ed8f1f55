package schema

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/pelletier/go-toml/v2"
)

// DefaultAlgorithmVersion is the algorithm used when none is requested.
const DefaultAlgorithmVersion = "7.3"

// weightTolerance is the allowed deviation of a weight table sum from 1.
const weightTolerance = 1e-6

//go:embed algorithms.toml
var builtinAlgorithms []byte

// ErrConfiguration is the sentinel wrapped by every ConfigurationError.
var ErrConfiguration = errors.New("configuration error")

// ConfigurationError reports a malformed algorithm bundle. It is fatal and
// surfaces before any scoring happens.
type ConfigurationError struct {
	Version string
	Reason  string
}

func (e *ConfigurationError) Error() string {
	if e.Version == "" {
		return fmt.Sprintf("algorithm registry: %s", e.Reason)
	}
	return fmt.Sprintf("algorithm %s: %s", e.Version, e.Reason)
}

// Unwrap allows errors.Is(err, ErrConfiguration).
func (e *ConfigurationError) Unwrap() error { return ErrConfiguration }

// PredicateKind is the kind of test a risk rule applies to a tool's metadata.
type PredicateKind string

// All predicate kinds supported by risk rules.
const (
	PredicateFlag     PredicateKind = "flag"      // any path holds a true boolean
	PredicateIn       PredicateKind = "in"        // any path holds one of Values (case-insensitive)
	PredicateGTE      PredicateKind = "gte"       // any path holds a number >= Threshold
	PredicateLTE      PredicateKind = "lte"       // any path holds a number <= Threshold
	PredicateCountGTE PredicateKind = "count_gte" // first present path has length >= Threshold
	PredicateCountLTE PredicateKind = "count_lte" // first present path has length <= Threshold
)

var validPredicateKinds = map[PredicateKind]struct{}{
	PredicateFlag:     {},
	PredicateIn:       {},
	PredicateGTE:      {},
	PredicateLTE:      {},
	PredicateCountGTE: {},
	PredicateCountLTE: {},
}

// RiskRule is one row of the platform risk table.
type RiskRule struct {
	Name       string        `toml:"name"`
	Adjustment float64       `toml:"adjustment"`
	Kind       PredicateKind `toml:"kind"`
	Paths      []string      `toml:"paths"`
	Values     []string      `toml:"values"`
	Threshold  float64       `toml:"threshold"`
}

// RevenueTable maps business models onto revenue quality multipliers.
type RevenueTable struct {
	Default     string             `toml:"default"`
	Paths       []string           `toml:"paths"`
	Multipliers map[string]float64 `toml:"multipliers"`
	Aliases     map[string]string  `toml:"aliases"`
}

// Enabled reports whether the table carries any multipliers.
func (r RevenueTable) Enabled() bool {
	return len(r.Multipliers) > 0
}

// TierBand assigns Tier to every rank up to and including MaxRank.
type TierBand struct {
	Tier    Tier `toml:"tier" json:"tier"`
	MaxRank int  `toml:"max_rank" json:"max_rank"`
}

// AlgorithmConfig is the versioned constant bundle used by one scoring run.
type AlgorithmConfig struct {
	Version             string             `toml:"version"`
	Description         string             `toml:"description"`
	FactorScale         float64            `toml:"factor_scale"`
	ScorePrecision      int                `toml:"score_precision"`
	DecayHalfLifeMonths float64            `toml:"decay_half_life_months"`
	Weights             map[string]float64 `toml:"weights"`
	Risk                []RiskRule         `toml:"risk"`
	Revenue             RevenueTable       `toml:"revenue"`
	Tiers               []TierBand         `toml:"tiers"`
	FallbackTier        Tier               `toml:"fallback_tier"`
}

// Weight returns the weight of a factor.
func (a *AlgorithmConfig) Weight(key FactorKey) float64 {
	return a.Weights[string(key)]
}

// TierFor returns the tier for a 1-based rank.
func (a *AlgorithmConfig) TierFor(rank int) Tier {
	for _, band := range a.Tiers {
		if rank <= band.MaxRank {
			return band.Tier
		}
	}
	return a.FallbackTier
}

// RevenueMultiplier classifies a free-text business model and returns the
// canonical model with its multiplier. Unknown or empty input resolves to the default.
func (a *AlgorithmConfig) RevenueMultiplier(model string) (string, float64) {
	if !a.Revenue.Enabled() {
		return "", 1
	}
	key := NormalizeKey(model)
	if alias, ok := a.Revenue.Aliases[key]; ok {
		key = alias
	}
	if m, ok := a.Revenue.Multipliers[key]; ok {
		return key, m
	}
	return a.Revenue.Default, a.Revenue.Multipliers[a.Revenue.Default]
}

// WeightSum returns the total of all factor weights.
func (a *AlgorithmConfig) WeightSum() float64 {
	var sum float64
	for _, k := range AllFactors {
		sum += a.Weights[string(k)]
	}
	return sum
}

// ValidateWeights checks that the weights cover exactly the eight factors,
// are finite and non-negative, and sum to 1.
func (a *AlgorithmConfig) ValidateWeights() error {
	if len(a.Weights) != len(AllFactors) {
		return a.configErr("weights must name exactly %d factors, got %d", len(AllFactors), len(a.Weights))
	}
	for _, k := range AllFactors {
		w, ok := a.Weights[string(k)]
		if !ok {
			return a.configErr("missing weight for factor %s", k)
		}
		if !isFinite(w) {
			return a.configErr("weight for factor %s must be a finite number", k)
		}
		if w < 0 {
			return a.configErr("negative weight %f for factor %s", w, k)
		}
	}
	if sum := a.WeightSum(); !(math.Abs(sum-1) <= weightTolerance) {
		return a.configErr("weights sum to %.8f, must sum to 1.0", sum)
	}
	return nil
}

// Validate checks the whole bundle.
func (a *AlgorithmConfig) Validate() error {
	if strings.TrimSpace(a.Version) == "" {
		return &ConfigurationError{Reason: "algorithm without version"}
	}
	if err := a.ValidateWeights(); err != nil {
		return err
	}
	if !isFinite(a.FactorScale) || a.FactorScale <= 0 {
		return a.configErr("factor_scale must be a positive finite number")
	}
	if a.ScorePrecision < 0 || a.ScorePrecision > 6 {
		return a.configErr("score_precision must be between 0 and 6")
	}
	if !isFinite(a.DecayHalfLifeMonths) || a.DecayHalfLifeMonths < 0 {
		return a.configErr("decay_half_life_months must be a non-negative finite number")
	}
	if len(a.Tiers) == 0 {
		return a.configErr("no tier bands")
	}
	prev, prevTier := 0, TierIndex(TierS)
	for _, band := range a.Tiers {
		if _, ok := tierOrder[band.Tier]; !ok {
			return a.configErr("unknown tier %q", band.Tier)
		}
		if band.MaxRank <= prev {
			return a.configErr("tier bands must have strictly increasing max_rank")
		}
		// A later band may never hold a better tier than an earlier one.
		if TierIndex(band.Tier) < prevTier {
			return a.configErr("tier %s at max_rank %d is better than the band before it", band.Tier, band.MaxRank)
		}
		prev, prevTier = band.MaxRank, TierIndex(band.Tier)
	}
	if _, ok := tierOrder[a.FallbackTier]; !ok {
		return a.configErr("unknown fallback tier %q", a.FallbackTier)
	}
	if TierIndex(a.FallbackTier) < prevTier {
		return a.configErr("fallback tier %s is better than the last band", a.FallbackTier)
	}
	for _, rule := range a.Risk {
		if rule.Name == "" {
			return a.configErr("risk rule without name")
		}
		if !isFinite(rule.Adjustment) {
			return a.configErr("risk rule %s adjustment must be a finite number", rule.Name)
		}
		if _, ok := validPredicateKinds[rule.Kind]; !ok {
			return a.configErr("risk rule %s has unknown kind %q", rule.Name, rule.Kind)
		}
		if len(rule.Paths) == 0 {
			return a.configErr("risk rule %s has no paths", rule.Name)
		}
		if rule.Kind == PredicateIn && len(rule.Values) == 0 {
			return a.configErr("risk rule %s has no values", rule.Name)
		}
	}
	if a.Revenue.Enabled() {
		for model, m := range a.Revenue.Multipliers {
			if !(m > 0 && m <= 1) {
				return a.configErr("revenue multiplier for %s must be in (0,1]", model)
			}
		}
		if _, ok := a.Revenue.Multipliers[a.Revenue.Default]; !ok {
			return a.configErr("revenue default %q has no multiplier", a.Revenue.Default)
		}
		for alias, target := range a.Revenue.Aliases {
			if _, ok := a.Revenue.Multipliers[target]; !ok {
				return a.configErr("revenue alias %s points to unknown model %s", alias, target)
			}
		}
		if len(a.Revenue.Paths) == 0 {
			return a.configErr("revenue table has no paths")
		}
	}
	return nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func (a *AlgorithmConfig) configErr(format string, args ...any) error {
	return &ConfigurationError{Version: a.Version, Reason: fmt.Sprintf(format, args...)}
}

// algorithmFile is the on-disk TOML shape.
type algorithmFile struct {
	Algorithms []AlgorithmConfig `toml:"algorithm"`
}

// Registry holds every known algorithm version.
type Registry struct {
	versions map[string]*AlgorithmConfig
}

// LoadRegistry parses the built-in algorithms, merges the optional extra TOML
// on top of them (same version replaces the built-in), and validates every version.
func LoadRegistry(extra []byte) (*Registry, error) {
	reg := &Registry{versions: make(map[string]*AlgorithmConfig)}
	for _, src := range [][]byte{builtinAlgorithms, extra} {
		if len(bytes.TrimSpace(src)) == 0 {
			continue
		}
		var file algorithmFile
		dec := toml.NewDecoder(bytes.NewReader(src)).DisallowUnknownFields()
		if err := dec.Decode(&file); err != nil {
			return nil, &ConfigurationError{Reason: fmt.Sprintf("cannot parse algorithms: %v", err)}
		}
		for i := range file.Algorithms {
			algo := file.Algorithms[i]
			if err := algo.Validate(); err != nil {
				return nil, err
			}
			reg.versions[algo.Version] = &algo
		}
	}
	return reg, nil
}

var defaultRegistry = sync.OnceValues(func() (*Registry, error) {
	return LoadRegistry(nil)
})

// DefaultRegistry returns the registry of built-in algorithms.
func DefaultRegistry() (*Registry, error) {
	return defaultRegistry()
}

// Get returns the algorithm for a version.
func (r *Registry) Get(version string) (*AlgorithmConfig, error) {
	if version == "" {
		version = DefaultAlgorithmVersion
	}
	algo, ok := r.versions[version]
	if !ok {
		return nil, &ConfigurationError{Version: version, Reason: "unknown algorithm version"}
	}
	return algo, nil
}

// Has reports whether the registry knows a version.
func (r *Registry) Has(version string) bool {
	_, ok := r.versions[version]
	return ok
}

// Versions returns all known versions, oldest first.
func (r *Registry) Versions() []string {
	out := make([]string, 0, len(r.versions))
	for v := range r.versions {
		out = append(out, v)
	}
	slices.SortFunc(out, CompareVersions)
	return out
}

// CompareVersions orders dotted numeric versions like "6.0" and "7.10".
// Non-numeric parts compare lexically.
func CompareVersions(a, b string) int {
	pa, pb := strings.Split(a, "."), strings.Split(b, ".")
	for i := 0; i < max(len(pa), len(pb)); i++ {
		var sa, sb string
		if i < len(pa) {
			sa = pa[i]
		}
		if i < len(pb) {
			sb = pb[i]
		}
		na, errA := strconv.Atoi(sa)
		nb, errB := strconv.Atoi(sb)
		if errA == nil && errB == nil {
			if na != nb {
				return na - nb
			}
			continue
		}
		if c := strings.Compare(sa, sb); c != 0 {
			return c
		}
	}
	return 0
}
