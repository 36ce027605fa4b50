// Package tor routes marketplace traffic through a SOCKS5 proxy.
//
// A Client wraps a SOCKS5 dialer from golang.org/x/net/proxy and hands its
// DialContext to the fetcher transport. The proxy can be an external one
// (any SOCKS5 server, credentials optional) or an embedded Tor daemon
// started with tornago, which is useful when the marketplace blocks the
// local address.
package tor
