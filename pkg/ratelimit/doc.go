// Package ratelimit provides rate limiting for outbound profile requests.
//
// Two limiters are provided behind the Limiter interface:
//
//   - FixedInterval pays a fixed politeness delay before every call.
//     The refresh job uses it to space profile fetches apart.
//   - TokenBucket caps total calls per refill period. The Instagram
//     client uses it as a requests-per-minute guard.
package ratelimit
