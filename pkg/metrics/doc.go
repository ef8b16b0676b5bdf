/*
Package metrics provides Prometheus instrumentation for Scribe.

Counters and histograms are package-level vars registered in init and
incremented inline on the write path (appends, batches, replays, API
requests). Gauges that must be read back from the store (session
counts) are maintained by the Collector, which polls every 15 seconds.

The /metrics endpoint is served by Handler() on the API server.

# Exposed Metrics

	scribe_sessions_total                 gauge     all recorded sessions
	scribe_sessions_active                gauge     sessions not yet ended
	scribe_events_appended_total          counter   by category
	scribe_batches_ingested_total         counter   accepted batches
	scribe_batch_size_events              histogram events per batch
	scribe_replays_built_total            counter   replay payloads built
	scribe_replay_build_duration_seconds  histogram replay build time
	scribe_api_requests_total             counter   by method and status
	scribe_api_request_duration_seconds   histogram by method

Timer is a small helper for histogram observations:

	timer := metrics.NewTimer()
	defer timer.ObserveDuration(metrics.ReplayBuildDuration)
*/
package metrics
