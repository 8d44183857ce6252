package config

import "finsight-api/pkg/confkit"

// Path helpers re-exported for callers that only import internal/config.
// The actual root discovery lives in confkit.

func ProjectRoot() (string, error) { return confkit.ProjectRoot() }

func MustProjectRoot() string { return confkit.MustProjectRoot() }

func ProjectPath(rel string) (string, error) { return confkit.ProjectPath(rel) }

func MustProjectPath(rel string) string { return confkit.MustProjectPath(rel) }
