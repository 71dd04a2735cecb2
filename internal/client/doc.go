// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package client assembles the triage queue sync layer into one runnable
// unit.
//
// [App] owns every long-lived component: the reactive queue store, the
// connectivity monitor and its platform sources, the real-time update
// channel, the cross-instance broadcaster, the durable store and the sync
// services. It wires monitor transitions and pulled queues into the store
// and starts the background workers in dependency order. The real-time
// channel is route scoped and only runs between EnterQueueView and
// LeaveQueueView.
package client
