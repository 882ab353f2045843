// Package config handles configuration loading, parsing, and validation
// from defaults, an optional config.yaml and STUDYHELPER_ environment
// variables. Study preferences (subject order, default question text) are
// passed explicitly to the components that need them.
package config
