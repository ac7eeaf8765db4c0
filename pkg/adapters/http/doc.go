/*
Package http exposes the orchestrator over HTTP and carries scoring service
traffic between processes.

Player side:

	POST /actions              X-Player header, body {"type": "...", "payload": {...}}
	GET  /notifications/{p}    drains unsolicited events for p
	GET  /events/{p}           server-sent stream of the same events
	GET  /state                read-only session snapshot

Service side:

	POST /replies              {"reply_to": "...", "reply": {...}}

Transport sends requests to a remote ServiceHandler, which answers by
posting to the orchestrator's /replies endpoint.
*/
package http
