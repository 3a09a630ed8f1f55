package schema

// Custom string types for type safety.
type (
	// FactorKey represents one of the eight scoring factors.
	FactorKey string

	// OutputMode represents the format of the output.
	OutputMode string

	// ToolStatus represents the lifecycle status of a tool.
	ToolStatus string

	// Tier represents the letter grade derived from a rank.
	Tier string

	// Direction represents the direction of rank movement between periods.
	Direction string

	// DatabaseBackend represents the database backend for snapshot storage.
	DatabaseBackend string
)

// Factor keys used in the scoring logic.
const (
	AgenticCapability    FactorKey = "agentic_capability"
	Innovation           FactorKey = "innovation"
	TechnicalPerformance FactorKey = "technical_performance"
	DeveloperAdoption    FactorKey = "developer_adoption"
	MarketTraction       FactorKey = "market_traction"
	BusinessSentiment    FactorKey = "business_sentiment"
	DevelopmentVelocity  FactorKey = "development_velocity"
	PlatformResilience   FactorKey = "platform_resilience"
)

// AllFactors lists the factors in their canonical order.
var AllFactors = []FactorKey{
	AgenticCapability,
	Innovation,
	TechnicalPerformance,
	DeveloperAdoption,
	MarketTraction,
	BusinessSentiment,
	DevelopmentVelocity,
	PlatformResilience,
}

// All output modes supported.
const (
	CSVOut     OutputMode = "csv"
	TextOut    OutputMode = "text" // default
	JSONOut    OutputMode = "json"
	ParquetOut OutputMode = "parquet"
)

// All tool statuses supported.
const (
	ActiveStatus     ToolStatus = "active"
	InactiveStatus   ToolStatus = "inactive"
	DeprecatedStatus ToolStatus = "deprecated"
)

// All tiers, best first.
const (
	TierS Tier = "S"
	TierA Tier = "A"
	TierB Tier = "B"
	TierC Tier = "C"
	TierD Tier = "D"
)

// All movement directions.
const (
	DirectionUp   Direction = "up"
	DirectionDown Direction = "down"
	DirectionFlat Direction = "flat"
)

// All snapshot store backends supported.
const (
	SQLiteBackend     DatabaseBackend = "sqlite" // default
	MySQLBackend      DatabaseBackend = "mysql"
	PostgreSQLBackend DatabaseBackend = "postgresql"
	NoneBackend       DatabaseBackend = "none"
)

// ValidOutputModes lists all valid output modes.
var ValidOutputModes = map[OutputMode]struct{}{
	CSVOut:     {},
	TextOut:    {},
	JSONOut:    {},
	ParquetOut: {},
}

// ValidDatabaseBackends lists all valid store backends.
var ValidDatabaseBackends = map[DatabaseBackend]struct{}{
	SQLiteBackend:     {},
	MySQLBackend:      {},
	PostgreSQLBackend: {},
	NoneBackend:       {},
}

// tierOrder maps each tier to its position, lower is better.
var tierOrder = map[Tier]int{
	TierS: 0,
	TierA: 1,
	TierB: 2,
	TierC: 3,
	TierD: 4,
}

// TierIndex returns the position of a tier, lower is better.
// Unknown tiers sort after D.
func TierIndex(t Tier) int {
	if idx, ok := tierOrder[t]; ok {
		return idx
	}
	return len(tierOrder)
}
