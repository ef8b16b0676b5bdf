/*
Package api exposes Scribe's recording and replay operations over
HTTP/JSON.

# Endpoints

	POST /v1/sessions                       start a session
	GET  /v1/sessions                       list sessions
	GET  /v1/sessions/{id}                  session metadata
	POST /v1/sessions/{id}/end              end a session
	POST /v1/sessions/{id}/events           single append (server-side recorders)
	POST /v1/sessions/{id}/events/batch     batch ingest (client buffer)
	GET  /v1/sessions/{id}/replay           events + timeline + metrics
	GET  /v1/sessions/{id}/events/watch     live SSE stream
	GET  /health, /ready, /metrics          operational

All bodies are JSON with ISO-8601 timestamps. Batch ingest is
all-or-nothing: a 2xx means every event in the batch was durably
appended; anything else means none were and the client buffer retries
the identical batch.

# Error Mapping

Storage sentinels map to status codes: unknown session is 404, ended
session is 409, empty event type is 400. Replay reads fail hard with
500; a partial timeline is never returned.

# Auth

Handlers sit behind an optional shared bearer token. Candidate-level
ownership checks belong to the authentication collaborator deployed in
front of this service; the token only fences off the ingest surface.
*/
package api
