// Package config provides configuration structures and utilities for sitechat.
// It defines crawl limits, chunking, the embedding and language model
// endpoints, retrieval tuning, chat session limits, and server settings.
//
// Values are layered: NewConfig defaults, then the YAML file found by
// FindConfigFile, then CLI flags. Secrets are read from the environment.
package config
