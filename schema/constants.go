package schema

// Custom string types for type safety.
type (
	// Level is the granularity tag on each metrics row.
	Level string

	// Theme is the visual theme preference.
	Theme string

	// OutputMode represents the format of the output.
	OutputMode string

	// DatabaseBackend represents the database backend for caching and history.
	DatabaseBackend string

	// Phase is a step in the analysis poller lifecycle.
	Phase string

	// View is the top-level screen the dashboard shows.
	View string
)

// Level tags recognized by the grouping step. Matching is exact.
const (
	FileLevel    Level = "file"
	ProjectLevel Level = "project"
)

// All themes supported.
const (
	AquaticTheme Theme = "aquatic" // default
	NeonTheme    Theme = "neon"
)

// ThemeKey is the preference key the theme is persisted under.
const ThemeKey = "documetrics-theme"

// All output modes supported.
const (
	CSVOut     OutputMode = "csv"
	TextOut    OutputMode = "text" // default
	JSONOut    OutputMode = "json"
	ParquetOut OutputMode = "parquet"
)

// All database backends supported.
const (
	SQLiteBackend     DatabaseBackend = "sqlite" // default
	MySQLBackend      DatabaseBackend = "mysql"
	PostgreSQLBackend DatabaseBackend = "postgresql"
	NoneBackend       DatabaseBackend = "none"
)

// Poller phases.
const (
	IdlePhase      Phase = "idle"
	StartingPhase  Phase = "starting"
	PollingPhase   Phase = "polling"
	SucceededPhase Phase = "succeeded"
	FailedPhase    Phase = "failed"
	TimedOutPhase  Phase = "timed_out"
)

// Views and the locations they live at.
const (
	WelcomeView View = "welcome"
	ResultsView View = "results"

	WelcomeLocation   = "/"
	DashboardLocation = "/dashboard"
)

// Column names in the metrics CSV.
const (
	IdentifierKey     = "identifier"
	LevelKey          = "level"
	DocTypeKey        = "doc_type"
	LineCountKey      = "line_count"
	CommentDensityKey = "comment_density"
	CompletenessKey   = "completeness"
	ConcisenessKey    = "conciseness"
	AccuracyKey       = "accuracy"
	OverallScoreKey   = "overall_score"
)

// Poller messages surfaced to the user.
const (
	StartFailedMessage    = "Failed to start analysis"
	AnalysisFailedMessage = "Analysis failed"
	StatusFailedMessage   = "Failed to fetch analysis status"
	TimedOutMessage       = "Analysis timed out"
	NoDataMessage         = "No metrics data available yet. Please analyze a file first."
)

// QualityMetricKeys are the metrics compared when picking a record's best and worst metric.
var QualityMetricKeys = []string{CommentDensityKey, CompletenessKey, ConcisenessKey, AccuracyKey}

// AllMetricKeys are the quality metrics plus the overall score, in display order.
var AllMetricKeys = []string{CommentDensityKey, CompletenessKey, ConcisenessKey, AccuracyKey, OverallScoreKey}

// ValidOutputModes lists all valid output modes.
var ValidOutputModes = map[OutputMode]struct{}{
	CSVOut:     {},
	TextOut:    {},
	JSONOut:    {},
	ParquetOut: {},
}

// ValidDatabaseBackends lists all valid database backends.
var ValidDatabaseBackends = map[DatabaseBackend]struct{}{
	SQLiteBackend:     {},
	MySQLBackend:      {},
	PostgreSQLBackend: {},
	NoneBackend:       {},
}

// ValidThemes lists all valid themes.
var ValidThemes = map[Theme]struct{}{
	AquaticTheme: {},
	NeonTheme:    {},
}

// IsTerminal reports whether the phase ends a poller run.
func (p Phase) IsTerminal() bool {
	switch p {
	case SucceededPhase, FailedPhase, TimedOutPhase:
		return true
	default:
		return false
	}
}
