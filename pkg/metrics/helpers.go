package metrics

// Package-level helpers record against the global manager so callers
// do not need to thread a Manager through every layer.

// RecordTick increments the tick counter.
func RecordTick() {
	globalManager.ticksTotal.Inc()
}

// RecordTickSkipped increments the skipped-tick counter.
func RecordTickSkipped() {
	globalManager.ticksSkipped.Inc()
}

// RecordTickDuration records a full tick duration in seconds.
func RecordTickDuration(seconds float64) {
	globalManager.tickDuration.Observe(seconds)
}

// RecordItemScanned increments the scanned-item counter.
func RecordItemScanned() {
	globalManager.itemsScanned.Inc()
}

// RecordItemProcessed increments the processed-item counter.
func RecordItemProcessed() {
	globalManager.itemsProcessed.Inc()
}

// RecordItemDuplicate increments the duplicate-item counter.
func RecordItemDuplicate() {
	globalManager.itemsSkippedDup.Inc()
}

// RecordItemError increments the aborted-item counter.
func RecordItemError() {
	globalManager.itemErrors.Inc()
}

// RecordAssignment increments the assignment counter for a bucket.
func RecordAssignment(bucket string) {
	globalManager.assignments.WithLabelValues(bucket).Inc()
}

// RecordCompletionMatched increments the matched-completion counter.
func RecordCompletionMatched() {
	globalManager.completionsMatched.Inc()
}

// RecordCompletionUnmatched increments the unmatched-completion counter.
func RecordCompletionUnmatched() {
	globalManager.completionsUnmatched.Inc()
}

// RecordHeldItem increments the held-item counter for a bucket.
func RecordHeldItem(bucket string) {
	globalManager.heldItems.WithLabelValues(bucket).Inc()
}

// RecordReconciliation increments the reconciliation counter.
func RecordReconciliation() {
	globalManager.reconciliations.Inc()
}

// RecordReconciliationUndo increments the undo counter.
func RecordReconciliationUndo() {
	globalManager.reconciliationUndos.Inc()
}

// UpdateOpenAssignments sets the OPEN assignment gauge.
func UpdateOpenAssignments(count int) {
	globalManager.openAssignments.Set(float64(count))
}

// UpdateRosterSize sets the roster size gauge.
func UpdateRosterSize(count int) {
	globalManager.rosterSize.Set(float64(count))
}

// UpdateLedgerSize sets the ledger size gauge.
func UpdateLedgerSize(count int) {
	globalManager.ledgerSize.Set(float64(count))
}

// RecordCompletionDuration records one matched duration in minutes.
func RecordCompletionDuration(minutes float64) {
	globalManager.completionDurationMin.Observe(minutes)
}

// UpdateBurstWindow sets the rolling-window arrival count and the
// one-hot level gauge.
func UpdateBurstWindow(count int, level string) {
	globalManager.burstWindowCount.Set(float64(count))
	for _, l := range []string{"normal", "elevated", "burst"} {
		v := 0.0
		if l == level {
			v = 1.0
		}
		globalManager.burstLevel.WithLabelValues(l).Set(v)
	}
}

// RecordBurstAlert increments the burst alert counter.
func RecordBurstAlert() {
	globalManager.burstAlerts.Inc()
}

// RecordPersistenceError increments the state-write failure counter.
func RecordPersistenceError() {
	globalManager.persistenceErrors.Inc()
}

// RecordPolicyFailure increments the policy load failure counter.
func RecordPolicyFailure() {
	globalManager.policyFailures.Inc()
}

// RecordForwardFailure increments the mailbox forward failure counter.
func RecordForwardFailure() {
	globalManager.forwardFailures.Inc()
}

// RecordHTTPRequest records an HTTP request with labels.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration with labels.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, durationMs float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
}
