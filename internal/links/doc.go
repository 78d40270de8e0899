// Package links produces and verifies signed share links.
//
// A wrapped link embeds a deterministic capture ID, an optional compact
// payload (canonical URL + title), and an HMAC-SHA256 signature:
//
//	https://<host>/w/<id>?d=<base64url-payload>&s=<hex-signature>
//
// Verification recomputes the HMAC over the same canonical form and
// compares in constant time; any mismatch fails closed. Resolution refuses
// payloads whose URL is itself a wrapped link or uses the app's custom
// scheme, which would otherwise re-enter the pipeline forever.
package links
