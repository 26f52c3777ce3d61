package config

import (
	"time"

	rkerrors "github.com/mflab/relkit/internal/errors"
)

// Validate checks configuration invariants after defaults are applied.
// Task sections are validated lazily elsewhere only when a task actually
// runs; here we reject values that would misbehave for every command.
func (c *Config) Validate() error {
	if c.Project.Name == "" {
		return rkerrors.ValidationFailed("project.name", "must be set")
	}

	if _, err := time.ParseDuration(c.Watch.Debounce); err != nil {
		return rkerrors.ValidationFailed("watch.debounce", "not a valid duration: "+c.Watch.Debounce)
	}
	if c.Watch.Schedule != "" {
		d, err := time.ParseDuration(c.Watch.Schedule)
		if err != nil {
			return rkerrors.ValidationFailed("watch.schedule", "not a valid duration: "+c.Watch.Schedule)
		}
		if d < time.Minute {
			return rkerrors.ValidationFailed("watch.schedule", "must be at least 1m")
		}
	}

	if c.Notify.Enabled && c.Notify.URL == "" {
		return rkerrors.ValidationFailed("notify.url", "must be set when notify is enabled")
	}

	return nil
}

// DebounceDuration returns the parsed watch debounce interval.
// Validate guarantees the value parses.
func (c *Config) DebounceDuration() time.Duration {
	d, _ := time.ParseDuration(c.Watch.Debounce)
	return d
}

// ScheduleDuration returns the parsed watch schedule interval, or zero when
// no schedule is configured.
func (c *Config) ScheduleDuration() time.Duration {
	if c.Watch.Schedule == "" {
		return 0
	}
	d, _ := time.ParseDuration(c.Watch.Schedule)
	return d
}

// ValidateDocs checks the fields the docs task depends on.
func (c *Config) ValidateDocs() error {
	if c.Docs.Source == "" {
		return rkerrors.ValidationFailed("docs.source", "must be set")
	}
	if len(c.Docs.Builder) == 0 {
		return rkerrors.ValidationFailed("docs.builder", "must name a documentation builder command")
	}
	return nil
}

// ValidatePDF checks the fields the pdf task depends on.
func (c *Config) ValidatePDF() error {
	if len(c.PDF.Build) == 0 {
		return rkerrors.ValidationFailed("pdf.build", "must name a build command")
	}
	if c.PDF.Artifact == "" {
		return rkerrors.ValidationFailed("pdf.artifact", "must point at the produced PDF")
	}
	if c.PDF.Final == "" {
		return rkerrors.ValidationFailed("pdf.final", "must name the published PDF location")
	}
	return nil
}

// ValidateDist checks the fields the dist task depends on.
func (c *Config) ValidateDist() error {
	if len(c.Dist.Builder) == 0 {
		return rkerrors.ValidationFailed("dist.builder", "must name a package builder command")
	}
	return nil
}

// ValidatePublish checks the fields the publish task depends on.
func (c *Config) ValidatePublish() error {
	if len(c.Publish.Tool) == 0 {
		return rkerrors.ValidationFailed("publish.tool", "must name an upload command")
	}
	if c.Publish.Repository == "" {
		return rkerrors.ValidationFailed("publish.repository", "must name a destination repository")
	}
	return nil
}
