package config

// ConfigDiff describes what changed between two configs. The log level is
// the only change applied live; everything else needs a restart, and the
// flags here drive the warning the watcher logs.
type ConfigDiff struct {
	LogLevelChanged bool
	NewLogLevel     LogLevel

	GenerationChanged bool
	RetrievalChanged  bool
	TranscriptChanged bool
	KnowledgeChanged  bool
}

// Restartable reports whether any change requires a process restart to take
// effect.
func (d ConfigDiff) Restartable() bool {
	return d.GenerationChanged || d.RetrievalChanged || d.TranscriptChanged || d.KnowledgeChanged
}

// Diff compares old and new configs and returns what changed.
func Diff(old, new *Config) ConfigDiff {
	d := ConfigDiff{}

	if old.Server.LogLevel != new.Server.LogLevel {
		d.LogLevelChanged = true
		d.NewLogLevel = new.Server.LogLevel
	}

	d.GenerationChanged = old.Generation != new.Generation
	d.RetrievalChanged = !retrievalEqual(old.Retrieval, new.Retrieval)
	d.TranscriptChanged = old.Transcript != new.Transcript
	d.KnowledgeChanged = old.Knowledge != new.Knowledge

	return d
}

// retrievalEqual compares retrieval blocks by value. MinSimilarity is a
// pointer, so plain struct equality would compare addresses.
func retrievalEqual(a, b RetrievalConfig) bool {
	if (a.MinSimilarity == nil) != (b.MinSimilarity == nil) {
		return false
	}
	if a.MinSimilarity != nil && *a.MinSimilarity != *b.MinSimilarity {
		return false
	}
	a.MinSimilarity, b.MinSimilarity = nil, nil
	return a == b
}
