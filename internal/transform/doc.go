// Package transform turns classified source files into output bytes.
//
// A Registry maps lowercase identifiers (the last segment of an extension
// chain, e.g. "md" in page.html.md) to Transform implementations. The
// Dispatcher copies untransformed files verbatim and, for the rest, strips
// front matter, builds a Context and runs the registered transform.
//
// Built-in transforms are registered by Defaults:
//
//	md, markdown  goldmark markdown to HTML
//	tmpl          html/template executed with the front matter as data
//	ts, tsx, jsx  esbuild transpilation to JavaScript
//	bundle        esbuild bundling of CSS or JS imports
package transform
