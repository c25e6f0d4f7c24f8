// Package probe times a single DNS query/response exchange against one
// resolver.
//
// A probe never returns an error. Every way an exchange can end (answer,
// timeout, network failure, garbage on the wire) is an Outcome carried in the
// Result, so aggregation treats failures as ordinary data.
package probe
