// Package protocol
// Author: momentics <momentics@gmail.com>
//
// Implements the stateless WebSocket codecs (RFC 6455 subset) for wsengine.
//
// All functions work on caller-provided byte spans and never allocate on the
// hot path:
//   - Frame encoding into a destination span, frame decoding with in-place unmasking
//   - HTTP Upgrade request parsing and 101 accept response rendering
//   - Base64 and Sec-WebSocket-Accept key computation
//
// Decoders report "need more data" as zero consumed bytes; views returned by
// decoders alias the input span.
package protocol
