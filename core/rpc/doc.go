// Package rpc implements the single-range log counter used by the fetcher and
// the discrepancy scanner.
//
// A Client issues one blocking eth_getLogs query per call and returns the
// length of the result array. It never retries on its own beyond the
// transport layer: bounded exponential backoff for timeouts, connection
// failures and retryable HTTP statuses lives in the embedded retryablehttp
// client, while range splitting on persistent failure is the fetcher's job.
//
// Failures are classified as transport (retryable circumstances that were
// exhausted) or protocol (the provider answered with an error payload or a
// structurally invalid body). Both carry the provider and range for
// diagnostics and storage.
package rpc
