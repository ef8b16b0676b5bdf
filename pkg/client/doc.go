/*
Package client provides the HTTP client for the Scribe API.

It covers the full surface (sessions, single appends, batch ingest,
replay) and implements buffer.Ingestor so a client-side Buffer can
deliver its batches through it:

	c := client.NewClient("http://localhost:7171", token)
	spool, _ := buffer.OpenSpool(spoolPath)
	buf, _ := buffer.New(sessionID, c, spool, buffer.Options{})

Requests carry a 10 second timeout via the underlying http.Client. For
batch submission, a transport error, a non-2xx status, and an
undecodable response body are all the same outcome: the batch was not
delivered and the buffer will retry it.
*/
package client
