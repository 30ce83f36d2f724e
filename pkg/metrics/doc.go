// Package metrics provides a small dependency-free metrics registry with
// Prometheus text-format exposition for the statikd server.
package metrics
