package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"

	"github.com/huangsam/powerrank/internal/contract"
	"github.com/huangsam/powerrank/schema"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// AlgorithmRenderModel is the presentation shape of one algorithm version.
type AlgorithmRenderModel struct {
	Version             string              `json:"version"`
	Description         string              `json:"description"`
	Default             bool                `json:"default"`
	FactorScale         float64             `json:"factor_scale"`
	ScorePrecision      int                 `json:"score_precision"`
	DecayHalfLifeMonths float64             `json:"decay_half_life_months"`
	Weights             []WeightRenderModel `json:"weights"`
	Risk                []RiskRenderModel   `json:"risk"`
	RevenueDefault      string              `json:"revenue_default,omitempty"`
	RevenueMultipliers  map[string]float64  `json:"revenue_multipliers,omitempty"`
	Tiers               []schema.TierBand   `json:"tiers"`
	FallbackTier        schema.Tier         `json:"fallback_tier"`
}

// WeightRenderModel is one factor weight.
type WeightRenderModel struct {
	Factor schema.FactorKey `json:"factor"`
	Weight float64          `json:"weight"`
}

// RiskRenderModel is one platform risk rule.
type RiskRenderModel struct {
	Name       string               `json:"name"`
	Kind       schema.PredicateKind `json:"kind"`
	Adjustment float64              `json:"adjustment"`
	Paths      []string             `json:"paths"`
}

// BuildAlgorithmRenderModel flattens an algorithm bundle for output.
func BuildAlgorithmRenderModel(algo *schema.AlgorithmConfig) AlgorithmRenderModel {
	m := AlgorithmRenderModel{
		Version:             algo.Version,
		Description:         algo.Description,
		Default:             algo.Version == schema.DefaultAlgorithmVersion,
		FactorScale:         algo.FactorScale,
		ScorePrecision:      algo.ScorePrecision,
		DecayHalfLifeMonths: algo.DecayHalfLifeMonths,
		Tiers:               algo.Tiers,
		FallbackTier:        algo.FallbackTier,
	}
	for _, k := range schema.AllFactors {
		m.Weights = append(m.Weights, WeightRenderModel{Factor: k, Weight: algo.Weight(k)})
	}
	for _, r := range algo.Risk {
		m.Risk = append(m.Risk, RiskRenderModel{Name: r.Name, Kind: r.Kind, Adjustment: r.Adjustment, Paths: r.Paths})
	}
	if algo.Revenue.Enabled() {
		m.RevenueDefault = algo.Revenue.Default
		m.RevenueMultipliers = algo.Revenue.Multipliers
	}
	return m
}

// WriteAlgorithms prints the algorithm versions using the configured output format.
func WriteAlgorithms(algos []*schema.AlgorithmConfig, cfg *contract.Config) error {
	models := make([]AlgorithmRenderModel, 0, len(algos))
	for _, a := range algos {
		models = append(models, BuildAlgorithmRenderModel(a))
	}

	switch cfg.Output {
	case schema.JSONOut:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, models)
		}, "Wrote JSON"); err != nil {
			return fmt.Errorf("error writing JSON output: %w", err)
		}
	case schema.CSVOut:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeAlgorithmsCSV(w, models)
		}, "Wrote CSV"); err != nil {
			return fmt.Errorf("error writing CSV output: %w", err)
		}
	case schema.ParquetOut:
		return fmt.Errorf("parquet output is only available for rankings and snapshot export")
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeAlgorithmsText(w, models)
		}, "Wrote text")
	}
	return nil
}

func writeAlgorithmsText(w io.Writer, models []AlgorithmRenderModel) error {
	for i, m := range models {
		if i > 0 {
			if _, err := fmt.Fprintln(w); err != nil {
				return err
			}
		}
		title := "🧮 v" + m.Version
		if m.Default {
			title += " (default)"
		}
		if _, err := fmt.Fprintf(w, "%s - %s\n", title, m.Description); err != nil {
			return err
		}
		decay := "off"
		if m.DecayHalfLifeMonths > 0 {
			decay = fmt.Sprintf("%g months", m.DecayHalfLifeMonths)
		}
		if _, err := fmt.Fprintf(w, "Factor scale %g, precision %d, innovation half-life %s\n", m.FactorScale, m.ScorePrecision, decay); err != nil {
			return err
		}

		table := tablewriter.NewWriter(w)
		table.Header([]string{"Factor", "Weight"})
		table.Configure(func(cfg *tablewriter.Config) {
			cfg.Row.Alignment.Global = tw.AlignRight
		})
		data := make([][]string, 0, len(m.Weights))
		for _, wt := range m.Weights {
			data = append(data, []string{string(wt.Factor), strconv.FormatFloat(wt.Weight, 'f', 3, 64)})
		}
		if err := table.Bulk(data); err != nil {
			return err
		}
		if err := table.Render(); err != nil {
			return err
		}

		if len(m.Risk) > 0 {
			if _, err := fmt.Fprintln(w, "Platform risk:"); err != nil {
				return err
			}
			for _, r := range m.Risk {
				if _, err := fmt.Fprintf(w, "  %-28s %+g (%s on %s)\n", r.Name, r.Adjustment, r.Kind, strings.Join(r.Paths, ", ")); err != nil {
					return err
				}
			}
		}
		if len(m.RevenueMultipliers) > 0 {
			if _, err := fmt.Fprintf(w, "Revenue quality (default %s):\n", m.RevenueDefault); err != nil {
				return err
			}
			for _, model := range sortedKeys(m.RevenueMultipliers) {
				if _, err := fmt.Fprintf(w, "  %-28s x%.2f\n", model, m.RevenueMultipliers[model]); err != nil {
					return err
				}
			}
		}
		if _, err := fmt.Fprintf(w, "Tiers: %s\n", formatTiers(m.Tiers, m.FallbackTier)); err != nil {
			return err
		}
	}
	return nil
}

// formatTiers renders bands like "S ≤5, A ≤15, D otherwise".
func formatTiers(bands []schema.TierBand, fallback schema.Tier) string {
	parts := make([]string, 0, len(bands)+1)
	for _, b := range bands {
		parts = append(parts, fmt.Sprintf("%s ≤%d", b.Tier, b.MaxRank))
	}
	parts = append(parts, fmt.Sprintf("%s otherwise", fallback))
	return strings.Join(parts, ", ")
}

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// writeAlgorithmsCSV writes one row per configurable constant.
func writeAlgorithmsCSV(w io.Writer, models []AlgorithmRenderModel) error {
	return writeCSVWithHeader(w, []string{"version", "section", "key", "value"}, func(cw *csv.Writer) error {
		for _, m := range models {
			var rows [][]string
			for _, wt := range m.Weights {
				rows = append(rows, []string{m.Version, "weight", string(wt.Factor), strconv.FormatFloat(wt.Weight, 'f', -1, 64)})
			}
			for _, r := range m.Risk {
				rows = append(rows, []string{m.Version, "risk", r.Name, strconv.FormatFloat(r.Adjustment, 'f', -1, 64)})
			}
			for _, model := range sortedKeys(m.RevenueMultipliers) {
				rows = append(rows, []string{m.Version, "revenue", model, strconv.FormatFloat(m.RevenueMultipliers[model], 'f', -1, 64)})
			}
			for _, b := range m.Tiers {
				rows = append(rows, []string{m.Version, "tier", string(b.Tier), strconv.Itoa(b.MaxRank)})
			}
			for _, rec := range rows {
				if err := cw.Write(rec); err != nil {
					return err
				}
			}
		}
		return nil
	})
}
