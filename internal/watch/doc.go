// Package watch keeps continuous-mode output current by rebuilding single
// files when their sources change.
//
// Each file gets a Rebuilder, a two-state machine (idle, rebuilding). A
// change notification moves an idle Rebuilder to rebuilding, re-runs the
// file's transform and write, and returns it to idle whether or not the
// rebuild succeeded. Notifications that arrive while a rebuild is in flight
// are dropped, not queued: a burst of writes can leave the output one edit
// behind until the next save. Rebuild failures are logged and never stop the
// process, unlike the initial build where they are fatal.
//
// Hub connects Rebuilders to fsnotify. It satisfies mirror.Registrar.
package watch
