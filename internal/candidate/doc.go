// Package candidate holds the set of DNS resolvers considered for selection:
// the built-in provider list, user-configured entries, remote lists, and the
// resolver the machine is currently using.
package candidate
