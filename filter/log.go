package filter

import "github.com/gogpu/drawtree/internal/logging"

// logBadParams reports an invalid primitive configuration. Callers wrap
// it in warnOnce so each broken primitive logs a single time; the
// primitive then renders as an identity copy of its input.
func logBadParams(primitive, reason string) {
	logging.Get().Warn("filter primitive has invalid parameters, rendering as identity",
		"primitive", primitive, "reason", reason)
}
