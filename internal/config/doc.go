// Package config provides configuration structures and utilities for xmlmerge.
// It defines the feed sources, fetch options, publish destination and report
// preferences, and loads them from a YAML configuration file.
package config
