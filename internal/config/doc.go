// Package config loads, normalizes, and validates contentkit configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, loads an optional .env file, and honours
// environment fallbacks such as AIRTABLE_API_KEY. The Config type centralizes
// every knob the import and translate engines need, so content, extract, and
// locale directories plus store credentials are discovered in one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
