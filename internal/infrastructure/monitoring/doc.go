/*
Package monitoring provides metrics collection for the playground service.

# Overview

Metrics live on a private Prometheus registry so several collectors can
coexist in one process. Metrics implements playground.Observer and is handed
to every workspace, which lets the preview pipeline report edits, cancelled
compositions and composed documents without depending on Prometheus.

# Features

- HTTP request metrics (latency, throughput, size)
- Session lifecycle metrics (live, created, reaped)
- Preview pipeline metrics (edits per kind, compositions, document size)
- Headless probe metrics (outcome, duration)
- WebSocket connection and message metrics
- Go runtime, process and uptime metrics

# Usage

	metrics := monitoring.NewMetrics()
	router.Use(monitoring.Middleware(metrics))
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	timer := monitoring.NewTimer(metrics)
	// ... run the probe ...
	timer.Stop("ok")
*/
package monitoring
