// SAGE - Secure Agent Guarantee Engine
// Copyright (C) 2025 SAGE-X-project
//
// This file is part of SAGE.
//
// SAGE is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// SAGE is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with SAGE. If not, see <https://www.gnu.org/licenses/>.

// Package metrics defines the Prometheus instrumentation the mailbox's
// core components record against.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "keri_mailbox"

// Registry is the collector all mailbox metrics register against, kept
// separate from prometheus.DefaultRegisterer so tests can spin up
// multiple mailbox instances without colliding on metric names.
var Registry = prometheus.NewRegistry()

var (
	// VerifyTasks counts Verify and Reverify tasks processed by the
	// verifier's task loop, partitioned by outcome. Find tasks are
	// counted by WatcherQueries instead.
	VerifyTasks = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "verifier",
			Name:      "tasks_total",
			Help:      "Total number of verifier tasks processed by outcome",
		},
		[]string{"task", "outcome"}, // verify|reverify, ok|verification_failure|missing_oobi|response_not_ready|error
	)

	// VerifyTaskQueueDepth reports the current backlog of the verifier's
	// task queue, sampled each time the task loop dequeues a task.
	VerifyTaskQueueDepth = promauto.With(Registry).NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "verifier",
			Name:      "task_queue_depth",
			Help:      "Current number of queued verifier tasks",
		},
	)

	// WatcherQueries counts key-state queries issued to the watcher.
	WatcherQueries = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "watcher",
			Name:      "queries_total",
			Help:      "Total number of key-state queries sent to the watcher",
		},
		[]string{"outcome"}, // ok|not_ready|error
	)

	// StorageSaves counts forwarded payloads persisted per receiver.
	StorageSaves = promauto.With(Registry).NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "storage",
			Name:      "saves_total",
			Help:      "Total number of forwarded payloads saved",
		},
	)

	// NotifyAttempts counts push notification attempts by outcome.
	NotifyAttempts = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "notify",
			Name:      "attempts_total",
			Help:      "Total number of push notification attempts",
		},
		[]string{"outcome"}, // sent|no_token|error|backpressure
	)

	// RequestDuration tracks HTTP adapter latency by route and status.
	RequestDuration = promauto.With(Registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency by route",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"route", "status"},
	)
)
