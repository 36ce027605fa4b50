// Package report renders statistics, parameter summaries and collection
// diffs.
//
// This package contains writers for different output formats:
//   - TextWriter: aligned plain text for the terminal and summary files
//   - JSONWriter: structured JSON for tool integration
//   - MarkdownWriter: Markdown with mermaid charts for sharing
//
// Writers implement the Writer interface, so they can be used
// interchangeably and composed with MultiWriter.
package report
