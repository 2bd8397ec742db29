// Package instagram provides a client for the Instagram web profile API.
//
// The client resolves a username to its public profile attributes via the
// web_profile_info endpoint. Failures are typed (*errors.Error) so callers
// can distinguish a missing profile from a transient connection problem.
// An optional session cookie can be attached for profiles behind a login
// wall; a token bucket caps outbound requests per minute.
package instagram
