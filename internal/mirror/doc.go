// Package mirror walks a project tree and materializes it into an output
// directory, copying files verbatim or running them through a transform as
// their names dictate.
//
// Build is the top-level entry point: it loads config.json, builds the ignore
// set, recreates the output directory for the requested mode and mirrors the
// tree. The walk is sequential and depth-first; every entry produces an Event
// on the injected Observer instead of printing anything itself.
//
// In continuous mode each materialized file is handed to a Registrar, which
// keeps the output current as the source changes.
package mirror
