// Package supervisor owns the transcoder processes behind derived variants.
//
// Each variant key maps to at most one process. The lifecycle is
// starting -> running -> stopping -> terminated:
//
//   - Start inserts a starting entry before spawning, so a concurrent Start
//     for the same key is a no-op instead of a second process.
//   - running is advisory: it is entered on ffmpeg's output mapping banner or
//     after RunningAfter elapses.
//   - Stop kills the process and leaves the entry in place until the exit
//     watcher removes it.
//   - An unsolicited exit removes the entry and records the exit code. There
//     is no automatic restart.
//   - StopAll drops every entry immediately and kills the processes; late
//     exit callbacks never remove an entry created afterwards.
//
// Files:
//
//   - supervisor.go: Supervisor, state machine, exit watcher.
//   - launcher.go: Launcher/Handle abstraction and the os/exec implementation.
//   - linewriter.go: process output line splitting and ffmpeg markers.
//   - events.go, eventpub_memory.go: lifecycle events.
//   - metrics.go: Prometheus instrumentation.
package supervisor
