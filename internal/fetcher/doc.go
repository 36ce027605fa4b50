// Package fetcher retrieves marketplace pages under a retry and backoff policy.
//
// Every call to Fetcher.Fetch walks a small state machine
// (Idle, Attempting, Backoff, Exhausted, Succeeded). Policy.Next computes
// the transitions and never sleeps; waiting goes through a Clock so tests
// can run the full retry schedule instantly.
//
// A Fetch never returns an error. An empty string means the page is
// unavailable: it was not found, every attempt failed, or the context was
// cancelled.
//
// Three backends are available: plain HTTP (default), HTTP over a SOCKS5
// proxy such as Tor (see NewTransport), and a headless browser renderer.
package fetcher
