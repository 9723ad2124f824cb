package config

const (
	defaultPredictedDir    = "predicted"
	defaultGroundTruthDir  = "ground_truth"
	defaultResultsDir      = "results"
	defaultStateDir        = "~/.local/share/omrdiff"
	defaultHistoryFile     = "history.db"
	defaultEngineBinary    = "musicdiff-engine"
	defaultParserBackend   = "converter21"
	defaultSummaryName     = "summary"
	defaultLogFormat       = "console"
	defaultLogLevel        = "info"
	defaultEngineTimeout   = 0
	defaultRenderArtifacts = true
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			PredictedDir:   defaultPredictedDir,
			GroundTruthDir: defaultGroundTruthDir,
			ResultsDir:     defaultResultsDir,
			StateDir:       defaultStateDir,
		},
		Engine: Engine{
			Binary:         defaultEngineBinary,
			ParserBackend:  defaultParserBackend,
			TimeoutSeconds: defaultEngineTimeout,
			ValidatePDF:    true,
		},
		Batch: Batch{
			RenderArtifacts: defaultRenderArtifacts,
			SummaryName:     defaultSummaryName,
		},
		History: History{
			Enabled: true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
