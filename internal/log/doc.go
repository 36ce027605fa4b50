// Package log builds the slog loggers used by gravelscan.
//
// Every logger created here wraps its handler in a SecureHandler, which masks
// credentials before they reach the output: proxy and database passwords
// embedded in connection strings, cookies and API keys. Scrape runs log
// proxy addresses, DSNs and request headers, so masking happens in one place
// instead of at every call site.
//
// # Usage
//
//	logger := log.NewSecureLogger(os.Stderr, true)
//	logger.Info("postgres sink enabled", "dsn", "postgres://bikes:s3cret@db:5432/bikes")
//	// dsn=postgres://bikes:***REDACTED***@db:5432/bikes
package log
