// Package logging builds the hclog root logger shared by every component.
//
// The level comes from the logger.level config key unless VULNSCOUT_LOG_LEVEL
// is set. Output is human-readable text on stderr by default, or JSON when
// logger.jsonFormat is enabled. Components derive named sub-loggers with
// Named and attach request or scan context with With.
package logging
