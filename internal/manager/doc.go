// Package manager is the generation pipeline. It validates requests, admits
// them into the bounded queue, and runs worker loops that lease a resource
// from the loader, invoke the engine, merge music, classify failures, and
// run retention as a post-step. It is structured into small files by concern:
//
//   - manager.go: core Manager type, constructor, simple getters.
//   - config.go: ManagerConfig and package defaults; NewWithConfig applies defaults.
//   - types.go: lifecycle and job states, collaborator interfaces.
//   - errors.go: error types and helpers (IsValidation, IsQueueFull, IsJobNotFound).
//   - submit.go: validation and admission (Submit, Generate, Cancel).
//   - worker.go: Run and the per-job pipeline.
//   - jobs.go: job views and the bounded window of finished jobs.
//   - status_report.go: Status reporting.
//   - sanity.go: runtime checks for directories and external binaries.
//   - events.go, eventpub_*.go: lifecycle events.
//
// External packages should treat this package as the orchestration layer and use
// public methods only. Internal types are subject to change.
package manager
