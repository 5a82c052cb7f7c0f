// Package main provides the entry point for the sitechat CLI.
//
// sitechat crawls a website, indexes its text as embedded chunks, and
// answers questions about it with a language model.
//
// Usage:
//
//	sitechat ingest https://docs.example.com
//	sitechat query "How do I reset my password?"
//	sitechat chat
//	sitechat serve
//
// See --help for all available options.
package main

func main() {
	Execute()
}
