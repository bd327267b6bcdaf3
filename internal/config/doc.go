// Package config loads promptscan configuration from local and global YAML
// files and PROMPTSCAN_* environment variables with precedence rules. It is
// internal; CLI code maps flags and layers into engine configuration.
package config
