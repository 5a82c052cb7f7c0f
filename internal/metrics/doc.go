// Package metrics exposes sitechat's Prometheus metrics.
//
// Metrics owns a private registry, so several instances can coexist in
// tests. It implements the observer interfaces of the crawler, the session
// store and the assistant, and Handler serves the registry for scraping.
package metrics
