package observability

import (
	"strconv"
	"sync"
)

// Metrics provides basic in-memory counters for HTTP traffic and
// evaluation pass outcomes.
type Metrics struct {
	mu           sync.Mutex
	requestCount map[string]int64
	errorCount   map[string]int64
	passCount    map[string]int64
}

// NewMetrics initializes metrics storage.
func NewMetrics() *Metrics {
	return &Metrics{
		requestCount: make(map[string]int64),
		errorCount:   make(map[string]int64),
		passCount:    make(map[string]int64),
	}
}

// RecordRequest increments counters for requests.
func (m *Metrics) RecordRequest(path, method string, status int) {
	if m == nil {
		return
	}
	key := path + "|" + method + "|" + strconv.Itoa(status)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requestCount[key]++
}

// RecordError increments error counters.
func (m *Metrics) RecordError(path, method, code string) {
	if m == nil {
		return
	}
	key := path + "|" + method + "|" + code
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errorCount[key]++
}

// RecordPass accumulates outcome counters for one evaluation pass.
func (m *Metrics) RecordPass(pass string, evaluated, created, failed int) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.passCount[pass+"|evaluated"] += int64(evaluated)
	m.passCount[pass+"|created"] += int64(created)
	m.passCount[pass+"|failed"] += int64(failed)
}

// PassCount returns the accumulated counter for a pass outcome key.
func (m *Metrics) PassCount(pass, outcome string) int64 {
	if m == nil {
		return 0
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.passCount[pass+"|"+outcome]
}
