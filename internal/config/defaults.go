package config

// Default values applied after decoding and before validation.
const (
	DefaultDocsOutputDir = "docs/build/html"
	DefaultPDFBuildDir   = "docs/build/latex"
	DefaultDistOutputDir = "dist"
	DefaultRepository    = "testpypi"
	DefaultHistoryPath   = ".relkit/history.db"
	DefaultMetricsListen = ":9464"
	DefaultNotifySubject = "relkit.runs"
	DefaultWatchDebounce = "2s"
	DefaultPDFPasses     = 2
)

// applyDefaults fills unset fields with their defaults. It never overrides an
// explicitly configured value.
func (c *Config) applyDefaults() {
	if c.Docs.OutputDir == "" {
		c.Docs.OutputDir = DefaultDocsOutputDir
	}
	if c.PDF.BuildDir == "" {
		c.PDF.BuildDir = DefaultPDFBuildDir
	}
	if c.PDF.Passes <= 0 {
		c.PDF.Passes = DefaultPDFPasses
	}
	if c.Dist.OutputDir == "" {
		c.Dist.OutputDir = DefaultDistOutputDir
	}
	if c.Publish.Repository == "" {
		// Destructive default is the safe one: uploads go to the test
		// repository unless production is asked for explicitly.
		c.Publish.Repository = DefaultRepository
	}
	if c.Publish.Glob == "" {
		c.Publish.Glob = c.Dist.OutputDir + "/*"
	}
	if c.History.Path == "" {
		c.History.Path = DefaultHistoryPath
	}
	if c.Metrics.Listen == "" {
		c.Metrics.Listen = DefaultMetricsListen
	}
	if c.Notify.Subject == "" {
		c.Notify.Subject = DefaultNotifySubject
	}
	if c.Watch.Debounce == "" {
		c.Watch.Debounce = DefaultWatchDebounce
	}
	if c.Logging.Level == "" {
		c.Logging.Level = string(LogLevelInfo)
	}
	if c.Logging.Format == "" {
		c.Logging.Format = string(LogFormatText)
	}
	if c.Project.Changelog == "" {
		c.Project.Changelog = "CHANGELOG.md"
	}
}
