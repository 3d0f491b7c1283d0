// Package trace holds the verbosity-gated logging helpers used by the graph
// optimizer passes. At the default verbosity every helper is a no-op; raising
// the klog verbosity enables, in order: selection statistics (v=1), matched
// special-case patterns (v=2) and full per-node format listings (v=3).
package trace

import "k8s.io/klog/v2"

const prefix = "[cldnn][reorder_inputs] "

// StatsEnabled reports whether selection statistics will be logged.
func StatsEnabled() bool {
	return klog.V(1).Enabled()
}

// FormatsEnabled reports whether per-node format listings will be logged.
func FormatsEnabled() bool {
	return klog.V(3).Enabled()
}

// Statsf logs overall statistics of the performed selection, such as the
// number of reorders required.
func Statsf(format string, args ...any) {
	klog.V(1).Infof(prefix+format, args...)
}

// Patternf logs a special case or work-around matched for the given node.
func Patternf(desc, nodeID string) {
	klog.V(2).Infof(prefix+"%s matched for pattern: %s", nodeID, desc)
}

// Formatsf logs one line of a per-node format listing.
func Formatsf(format string, args ...any) {
	klog.V(3).Infof(prefix+format, args...)
}
