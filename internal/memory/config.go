package memory

import (
	"math"
	"os"
	"runtime/debug"
	"strconv"

	"media-share/internal/logging"
)

// defaultHeapRatio is the fraction of the container limit given to
// the Go heap. The rest is left for subprocesses and OS buffers.
const defaultHeapRatio = 0.85

// Limit reports how GOMEMLIMIT was configured.
type Limit struct {
	// Source is "GOMEMLIMIT", "MEMORY_LIMIT" or "none".
	Source string
	// Bytes is the configured heap limit, 0 when nothing was set.
	Bytes int64
}

// ConfigureFromEnv sets GOMEMLIMIT from the environment. An explicit
// GOMEMLIMIT wins; otherwise the limit is derived from MEMORY_LIMIT
// scaled by MEMORY_RATIO. With neither set the runtime default stays
// in effect.
func ConfigureFromEnv() Limit {
	if env := os.Getenv("GOMEMLIMIT"); env != "" {
		logging.Info("GOMEMLIMIT set via environment: %s", env)
		limit := Limit{Source: "GOMEMLIMIT"}
		// The runtime applies GOMEMLIMIT itself; just report it.
		if cur := debug.SetMemoryLimit(-1); cur > 0 && cur < math.MaxInt64 {
			limit.Bytes = cur
		}
		return limit
	}

	raw := os.Getenv("MEMORY_LIMIT")
	if raw == "" {
		logging.Debug("MEMORY_LIMIT not set, leaving GOMEMLIMIT unconfigured")
		return Limit{Source: "none"}
	}
	containerLimit, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || containerLimit <= 0 {
		logging.Warn("Ignoring unparseable MEMORY_LIMIT %q", raw)
		return Limit{Source: "none"}
	}

	ratio := heapRatio()
	heapLimit := int64(float64(containerLimit) * ratio)
	debug.SetMemoryLimit(heapLimit)

	logging.Info("Configured GOMEMLIMIT: %s (%.0f%% of %s container limit)",
		formatBytes(heapLimit), ratio*100, formatBytes(containerLimit))
	return Limit{Source: "MEMORY_LIMIT", Bytes: heapLimit}
}

// heapRatio reads MEMORY_RATIO, falling back to the default for
// absent, unparseable or out-of-range values.
func heapRatio() float64 {
	raw := os.Getenv("MEMORY_RATIO")
	if raw == "" {
		return defaultHeapRatio
	}
	ratio, err := strconv.ParseFloat(raw, 64)
	if err != nil || ratio <= 0 || ratio > 1 {
		logging.Warn("Ignoring invalid MEMORY_RATIO %q, using %.2f", raw, defaultHeapRatio)
		return defaultHeapRatio
	}
	return ratio
}

func formatBytes(b int64) string {
	const unit = 1024
	if b < unit {
		return strconv.FormatInt(b, 10) + " B"
	}
	div, exp := int64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return strconv.FormatFloat(float64(b)/float64(div), 'f', 1, 64) + " " + string("KMGTPE"[exp]) + "iB"
}
