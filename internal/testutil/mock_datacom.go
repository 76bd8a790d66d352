// Package testutil provides testing utilities for the data.com client.
package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"sync"
)

// MockDataCom is an in-process search API. It serves TotalHits records per
// endpoint, honours offset and pageSize, and records every request.
type MockDataCom struct {
	server *httptest.Server

	mu         sync.RWMutex
	totals     map[string]int
	failStatus int
	requests   []url.Values

	// Token is the value every request must carry; empty accepts any.
	Token string
}

// NewMockDataCom creates a new mock search server.
func NewMockDataCom() *MockDataCom {
	mock := &MockDataCom{
		totals: make(map[string]int),
	}
	mock.server = httptest.NewServer(http.HandlerFunc(mock.handle))
	return mock
}

// URL returns the mock server URL.
func (m *MockDataCom) URL() string {
	return m.server.URL
}

// Close shuts down the mock server.
func (m *MockDataCom) Close() {
	m.server.Close()
}

// SetTotal sets how many records path (e.g. "/searchContact.json") matches.
func (m *MockDataCom) SetTotal(path string, total int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.totals[path] = total
}

// FailWith makes every following request fail with status. 0 restores
// normal responses.
func (m *MockDataCom) FailWith(status int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failStatus = status
}

// Requests returns a copy of the query of every request received.
func (m *MockDataCom) Requests() []url.Values {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]url.Values(nil), m.requests...)
}

// RequestCount returns the number of requests made to the server.
func (m *MockDataCom) RequestCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.requests)
}

// Reset clears the request log.
func (m *MockDataCom) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests = nil
}

// Contact is the record shape served by the mock.
type Contact struct {
	ContactID int    `json:"contactId"`
	FirstName string `json:"firstname"`
}

func (m *MockDataCom) handle(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	m.mu.Lock()
	m.requests = append(m.requests, query)
	total, known := m.totals[r.URL.Path]
	failStatus := m.failStatus
	token := m.Token
	m.mu.Unlock()

	w.Header().Set("Content-Type", "application/json; charset=utf-8")

	if failStatus != 0 {
		w.WriteHeader(failStatus)
		fmt.Fprintf(w, `[{"errorCode":"ERROR_%d","errorMsg":"mock failure"}]`, failStatus)
		return
	}

	if token != "" && query.Get("token") != token {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`[{"errorCode":"TOKEN_FAIL","errorMsg":"Token is invalid"}]`))
		return
	}

	if !known {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`[{"errorCode":"NOT_FOUND","errorMsg":"unknown endpoint"}]`))
		return
	}

	offset, _ := strconv.Atoi(query.Get("offset"))
	pageSize, _ := strconv.Atoi(query.Get("pageSize"))

	records := []Contact{}
	for i := offset; i < offset+pageSize && i < total; i++ {
		records = append(records, Contact{ContactID: i, FirstName: query.Get("firstname")})
	}

	field := "contacts"
	if r.URL.Path == "/searchCompany.json" {
		field = "companies"
	}

	json.NewEncoder(w).Encode(map[string]any{
		"totalHits": total,
		field:       records,
	})
}
