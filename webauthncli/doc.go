// Package webauthncli drives U2F (CTAP1) REGISTER and AUTHENTICATE
// exchanges over a caller-supplied CTAPHID transport, and reassembles
// the raw responses into WebAuthn-shaped credential and assertion
// data. It owns APDU construction, the touch poll loop, response
// parsing, and authenticator-data synthesis; it does not own CTAPHID
// report framing (see webauthncli/u2fdevice) or CBOR/COSE encoding
// details (see webauthntypes).
//
// A Device is not safe for concurrent use: callers must serialize
// Register and Authenticate calls against a given handle themselves.
package webauthncli
