// Package metrics exports reactive engine activity to Prometheus.
package metrics
