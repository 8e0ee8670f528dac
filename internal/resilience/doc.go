// Package resilience groups the fault tolerance helpers used around outbound
// calls: circuit breakers for push services and news sources, and retry with
// exponential backoff for ingestion fetches.
package resilience
