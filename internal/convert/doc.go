// Package convert renders HTML pages extracted from CHM archives as
// clean Markdown.
//
// Conversion runs in three stages: a goquery pre-pass removes script,
// style, and chrome elements (nav, header, footer); the remaining DOM is
// rendered to Markdown with links preserved and images dropped; a
// post-pass strips the navigation breadcrumbs and empty-link rows that
// CHM tooling injects, and collapses leftover blank runs.
//
//	conv := convert.NewConverter()
//	markdown, err := conv.Convert(htmlPage)
//
// A Converter is safe for concurrent use.
package convert
