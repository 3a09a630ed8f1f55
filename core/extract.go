package core

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/huangsam/powerrank/schema"
)

// Extraction is the output of the factor extractor for one tool.
type Extraction struct {
	Factors             schema.FactorScores
	RevenueContribution float64    // part of market traction attributable to revenue, in factor-scale units
	Defaulted           []string   // components resolved from defaults, as "factor.component"
	InnovationDate      *time.Time // most recent innovation event, nil when undated
}

// normalizer maps a raw metadata value onto [0,1]. ok is false when the value is unusable.
type normalizer func(v any) (float64, bool)

// component is one weighted input of a factor.
type component struct {
	name    string
	paths   []string // candidate paths, first present wins
	weight  float64  // share of the factor, components of a factor sum to 1
	def     float64  // normalized default when every path is absent or malformed
	norm    normalizer
	revenue bool // revenue sub-component subject to revenue quality
}

type factorSpec struct {
	key        schema.FactorKey
	components []component
}

// anchor is a point on a piecewise-linear curve.
type anchor struct{ x, y float64 }

var (
	contextWindowAnchors = []anchor{{0, 0}, {32_000, 0.4}, {128_000, 0.6}, {200_000, 0.8}, {1_000_000, 1}}
	languageAnchors      = []anchor{{0, 0}, {5, 0.4}, {10, 0.6}, {20, 0.8}, {50, 1}}
	releaseCadenceDays   = []anchor{{0, 1}, {7, 0.9}, {30, 0.6}, {90, 0.3}, {365, 0}}
	providerAnchors      = []anchor{{0, 0}, {1, 0.3}, {3, 0.7}, {5, 1}}
)

// newsPrefix marks paths served only by the aggregated news signal, never by tool metadata.
const newsPrefix = "news."

// innovationDatePaths are checked in order for the most recent innovation event.
var innovationDatePaths = []string{
	"innovation.last_event_date",
	"metrics.innovation_date",
	"product.last_major_release",
	"launch_date",
}

// factorTable resolves each factor from candidate metadata paths.
var factorTable = []factorSpec{
	{schema.AgenticCapability, []component{
		{name: "score", paths: []string{"metrics.agentic_capability", "technical.agentic_score", "agentic_capability"}, weight: 0.6, def: 0.5, norm: linear(10)},
		{name: "autonomy", paths: []string{"technical.autonomous_mode", "technical.autonomy", "features.autonomous_mode"}, weight: 0.25, norm: flag},
		{name: "tool_use", paths: []string{"technical.mcp_support", "technical.tool_use", "features.tool_use"}, weight: 0.15, norm: flag},
	}},
	{schema.Innovation, []component{
		{name: "score", paths: []string{"metrics.innovation_score", "innovation.score", "innovation_score"}, weight: 0.7, def: 0.5, norm: linear(10)},
		{name: "features", paths: []string{"product.features", "features.list", "technical.features"}, weight: 0.3, def: 0.2, norm: countLog(30)},
	}},
	{schema.TechnicalPerformance, []component{
		{name: "benchmark", paths: []string{"metrics.swe_bench.verified", "metrics.swe_bench_score", "technical.benchmarks.swe_bench", "benchmarks.swe_bench_verified"}, weight: 0.4, def: 0.4, norm: linear(100)},
		{name: "multi_file", paths: []string{"technical.multi_file_support", "technical.multi_file_editing", "features.multi_file"}, weight: 0.3, norm: flag},
		{name: "context_window", paths: []string{"technical.context_window", "technical.max_context_tokens", "context_window"}, weight: 0.2, def: 0.4, norm: anchored(contextWindowAnchors)},
		{name: "languages", paths: []string{"technical.language_support", "technical.languages", "languages"}, weight: 0.1, def: 0.4, norm: countAnchored(languageAnchors)},
	}},
	{schema.DeveloperAdoption, []component{
		{name: "github_stars", paths: []string{"metrics.github_stars", "technical.github_stars", "community.github_stars"}, weight: 0.4, norm: logScale(200_000)},
		{name: "users", paths: []string{"metrics.users", "metrics.monthly_active_users", "business.users"}, weight: 0.4, norm: logScale(10_000_000)},
		{name: "downloads", paths: []string{"metrics.downloads", "metrics.vscode_installs", "metrics.npm_downloads"}, weight: 0.2, norm: logScale(50_000_000)},
	}},
	{schema.MarketTraction, []component{
		{name: "revenue", paths: []string{"business.arr", "metrics.arr", "business.annual_recurring_revenue", "metrics.revenue"}, weight: 0.5, norm: logScale(1e9), revenue: true},
		{name: "valuation", paths: []string{"business.valuation", "business.total_funding", "metrics.funding"}, weight: 0.3, norm: logScale(5e10)},
		{name: "customers", paths: []string{"business.customers", "metrics.customers", "business.enterprise_customers"}, weight: 0.2, norm: logScale(10_000)},
	}},
	{schema.BusinessSentiment, []component{
		{name: "sentiment", paths: []string{"metrics.sentiment", "business.sentiment", "sentiment"}, weight: 0.6, def: 0.5, norm: signed},
		{name: "news_sentiment", paths: []string{"news.avg_sentiment"}, weight: 0.4, def: 0.5, norm: signed},
	}},
	{schema.DevelopmentVelocity, []component{
		{name: "release_cadence", paths: []string{"metrics.release_frequency_days", "technical.release_frequency_days"}, weight: 0.4, def: 0.4, norm: anchored(releaseCadenceDays)},
		{name: "commits", paths: []string{"metrics.commits_30d", "technical.commits_last_30_days"}, weight: 0.3, norm: logScale(2000)},
		{name: "news_mentions", paths: []string{"news.recent_mentions"}, weight: 0.3, norm: logScale(50)},
	}},
	{schema.PlatformResilience, []component{
		{name: "llm_providers", paths: []string{"technical.llm_providers", "technical.supported_models"}, weight: 0.5, def: 0.3, norm: countAnchored(providerAnchors)},
		{name: "open_source", paths: []string{"technical.open_source"}, weight: 0.2, norm: flag},
		{name: "self_hosted", paths: []string{"technical.self_hosted"}, weight: 0.3, norm: flag},
	}},
}

// ExtractFactors resolves all eight factors for one tool. It never fails:
// absent or malformed inputs degrade to the component default.
func ExtractFactors(tool schema.Tool, news NewsSignal, algo *schema.AlgorithmConfig) Extraction {
	src := sources{info: layers{tool.Info}, news: layers{news.layer()}}
	var ex Extraction
	for _, spec := range factorTable {
		var sum float64
		for _, c := range spec.components {
			v, ok := resolve(src, c)
			if !ok {
				v = c.def
				ex.Defaulted = append(ex.Defaulted, string(spec.key)+"."+c.name)
			}
			contribution := algo.FactorScale * c.weight * v
			if c.revenue {
				ex.RevenueContribution += contribution
			}
			sum += contribution
		}
		ex.Factors = ex.Factors.Set(spec.key, sum)
	}
	ex.InnovationDate = innovationDate(layers{tool.Info})
	return ex
}

// sources routes a path to the tool's own metadata or to the derived news layer.
type sources struct {
	info layers
	news layers
}

func (s sources) lookup(path string) (any, bool) {
	if strings.HasPrefix(path, newsPrefix) {
		return s.news.lookup(path)
	}
	return s.info.lookup(path)
}

func resolve(src sources, c component) (float64, bool) {
	for _, p := range c.paths {
		raw, ok := src.lookup(p)
		if !ok {
			continue
		}
		if v, ok := c.norm(raw); ok {
			return clamp01(v), true
		}
	}
	return 0, false
}

func innovationDate(b layers) *time.Time {
	for _, p := range innovationDatePaths {
		raw, ok := b.lookup(p)
		if !ok {
			continue
		}
		if t, ok := toTime(raw); ok {
			return &t
		}
	}
	return nil
}

// layers is a read-only stack of nested metadata maps. Earlier layers win.
type layers []map[string]any

// lookup follows a dotted path. Absence at any level is reported as !ok.
func (l layers) lookup(path string) (any, bool) {
	keys := strings.Split(path, ".")
	for _, root := range l {
		if root == nil {
			continue
		}
		if v, ok := walk(root, keys); ok && v != nil {
			return v, true
		}
	}
	return nil, false
}

func walk(m map[string]any, keys []string) (any, bool) {
	var cur any = m
	for _, k := range keys {
		obj, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = obj[k]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

func linear(maxV float64) normalizer {
	return func(v any) (float64, bool) {
		f, ok := toFloat(v)
		if !ok {
			return 0, false
		}
		return f / maxV, true
	}
}

func logScale(maxV float64) normalizer {
	return func(v any) (float64, bool) {
		f, ok := toFloat(v)
		if !ok || f < 0 {
			return 0, false
		}
		return math.Log1p(f) / math.Log1p(maxV), true
	}
}

func countLog(maxV float64) normalizer {
	return func(v any) (float64, bool) {
		n, ok := toCount(v)
		if !ok {
			return 0, false
		}
		return math.Log1p(n) / math.Log1p(maxV), true
	}
}

func anchored(points []anchor) normalizer {
	return func(v any) (float64, bool) {
		f, ok := toFloat(v)
		if !ok {
			return 0, false
		}
		return interpolate(points, f), true
	}
}

func countAnchored(points []anchor) normalizer {
	return func(v any) (float64, bool) {
		n, ok := toCount(v)
		if !ok {
			return 0, false
		}
		return interpolate(points, n), true
	}
}

func flag(v any) (float64, bool) {
	b, ok := toBool(v)
	if !ok {
		return 0, false
	}
	if b {
		return 1, true
	}
	return 0, true
}

// signed maps [-1,1] onto [0,1].
func signed(v any) (float64, bool) {
	f, ok := toFloat(v)
	if !ok {
		return 0, false
	}
	return (f + 1) / 2, true
}

// interpolate evaluates a piecewise-linear curve, flat beyond both ends.
func interpolate(points []anchor, x float64) float64 {
	if x <= points[0].x {
		return points[0].y
	}
	for i := 1; i < len(points); i++ {
		lo, hi := points[i-1], points[i]
		if x <= hi.x {
			return lo.y + (x-lo.x)/(hi.x-lo.x)*(hi.y-lo.y)
		}
	}
	return points[len(points)-1].y
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// toFloat accepts numbers, json.Number and numeric strings like "128k", "1.2M" or "45%".
func toFloat(v any) (float64, bool) {
	var f float64
	switch x := v.(type) {
	case float64:
		f = x
	case float32:
		f = float64(x)
	case int:
		f = float64(x)
	case int64:
		f = float64(x)
	case int32:
		f = float64(x)
	case json.Number:
		parsed, err := x.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case string:
		parsed, ok := parseNumeric(x)
		if !ok {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func parseNumeric(s string) (float64, bool) {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", ""))
	s = strings.TrimSuffix(s, "%")
	if s == "" {
		return 0, false
	}
	mult := 1.0
	switch strings.ToLower(s[len(s)-1:]) {
	case "k":
		mult = 1e3
	case "m":
		mult = 1e6
	case "b":
		mult = 1e9
	}
	if mult != 1 {
		s = s[:len(s)-1]
	}
	f, err := strconv.ParseFloat(strings.TrimPrefix(s, "$"), 64)
	if err != nil {
		return 0, false
	}
	return f * mult, true
}

func toBool(v any) (bool, bool) {
	switch x := v.(type) {
	case bool:
		return x, true
	case string:
		switch strings.ToLower(strings.TrimSpace(x)) {
		case "true", "yes", "1", "y":
			return true, true
		case "false", "no", "0", "n":
			return false, true
		}
		return false, false
	}
	if f, ok := toFloat(v); ok {
		return f != 0, true
	}
	return false, false
}

// toCount accepts lists, maps and plain numbers.
func toCount(v any) (float64, bool) {
	switch x := v.(type) {
	case []any:
		return float64(len(x)), true
	case []string:
		return float64(len(x)), true
	case map[string]any:
		return float64(len(x)), true
	case string:
		if f, ok := toFloat(x); ok {
			return max(f, 0), true
		}
		parts := strings.FieldsFunc(x, func(r rune) bool { return r == ',' || r == ';' })
		if len(parts) == 0 {
			return 0, false
		}
		return float64(len(parts)), true
	}
	f, ok := toFloat(v)
	if !ok || f < 0 {
		return 0, false
	}
	return f, true
}

func toTime(v any) (time.Time, bool) {
	switch x := v.(type) {
	case time.Time:
		return x.UTC(), true
	case string:
		if strings.TrimSpace(x) == "" {
			return time.Time{}, false
		}
		t, err := dateparse.ParseIn(strings.TrimSpace(x), time.UTC)
		if err != nil {
			return time.Time{}, false
		}
		return t.UTC(), true
	}
	return time.Time{}, false
}
