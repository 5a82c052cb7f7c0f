// Package pipeline runs the ingestion of a site as a sequence of steps.
//
// An ingestion crawls a seed URL, cuts the pages into chunks, stores the
// pages, and embeds the chunks into the vector index. Each stage is a Step
// that receives the shared IngestReport and fills in its part.
//
// A Pipeline ingests one seed. BatchProcessor ingests several seeds
// concurrently, with a fresh pipeline per seed, using errgroup to bound
// the number of crawls in flight.
package pipeline
