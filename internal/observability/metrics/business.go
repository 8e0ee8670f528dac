package metrics

import "time"

// RecordSourceFetch records a successful fetch of one news source.
func RecordSourceFetch(source string, duration time.Duration, count int) {
	SourceFetchDuration.WithLabelValues(source).Observe(duration.Seconds())
	ArticlesFetchedTotal.WithLabelValues(source).Add(float64(count))
}

// RecordSourceFetchError records a failed fetch of one news source.
func RecordSourceFetchError(source string, duration time.Duration) {
	SourceFetchDuration.WithLabelValues(source).Observe(duration.Seconds())
	SourceFetchErrors.WithLabelValues(source).Inc()
}

// RecordArticleResult records what ingestion did with one fetched article.
// result is one of "stored", "duplicate", "invalid", "failed".
func RecordArticleResult(result string) {
	ArticlesProcessedTotal.WithLabelValues(result).Inc()
}

// RecordArticleClassified records the category assigned to a stored article.
func RecordArticleClassified(category string) {
	ArticlesClassifiedTotal.WithLabelValues(category).Inc()
}

// RecordIngestRun records the duration of one ingestion run.
func RecordIngestRun(duration time.Duration) {
	IngestRunDuration.Observe(duration.Seconds())
}

// RecordContentFetchSuccess records a successful full-text fetch.
func RecordContentFetchSuccess(duration time.Duration) {
	ContentFetchAttemptsTotal.WithLabelValues("success").Inc()
	ContentFetchDuration.Observe(duration.Seconds())
}

// RecordContentFetchFailed records a failed full-text fetch.
func RecordContentFetchFailed(duration time.Duration) {
	ContentFetchAttemptsTotal.WithLabelValues("failure").Inc()
	ContentFetchDuration.Observe(duration.Seconds())
}

// RecordContentFetchSkipped records that the feed content was long enough.
func RecordContentFetchSkipped() {
	ContentFetchAttemptsTotal.WithLabelValues("skipped").Inc()
}

// RecordSubscriptionOperation records one subscription API operation.
func RecordSubscriptionOperation(operation string, err error) {
	result := "success"
	if err != nil {
		result = "error"
	}
	SubscriptionOperationsTotal.WithLabelValues(operation, result).Inc()
}
