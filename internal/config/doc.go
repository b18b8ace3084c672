// Package config provides configuration loading, merging, and validation
// facilities for the client and the development server.
//
// Configuration is assembled from multiple sources. For every non-zero field
// the earlier source wins:
//  1. Environment variables (a .env file in the working directory is loaded
//     first and never overrides variables that are already set)
//  2. Command-line flags
//  3. JSON or YAML config file
//
// The main entry points are [GetClientConfig] and [GetServerConfig], which
// map the merged [StructuredConfig] onto a per-binary view, fill defaults and
// validate the result.
package config
