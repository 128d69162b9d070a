// Package memory configures Go's GOMEMLIMIT for containerized
// deployments.
//
// Go does not read the container memory limit from cgroups the way it
// reads the CPU quota for GOMAXPROCS, so without an explicit limit a
// busy upload server can be OOM-killed before the GC reacts. Call
// [ConfigureFromEnv] first thing in main, before significant
// allocations.
//
// Environment variables:
//
//   - GOMEMLIMIT: standard Go variable; takes precedence when set.
//   - MEMORY_LIMIT: container memory limit in bytes, typically injected
//     via the Kubernetes Downward API (resourceFieldRef on
//     limits.memory).
//   - MEMORY_RATIO: fraction of MEMORY_LIMIT given to the Go heap,
//     default 0.85. The remainder is headroom for the ImageMagick and
//     ffprobe subprocesses the preprocessing pipeline spawns.
package memory
