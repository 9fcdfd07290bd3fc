// Package config handles YAML configuration loading with environment variable substitution.
//
// Configuration files support ${VAR} syntax for environment variable interpolation.
// Every section is optional; an empty file yields a demo-only service with no
// journal.
package config
