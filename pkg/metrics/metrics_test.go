package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestRegistry(t *testing.T) {
	if Registry != prometheus.DefaultRegisterer {
		t.Error("Registry should be the default Prometheus registerer")
	}
	if Gatherer != prometheus.DefaultGatherer {
		t.Error("Gatherer should be the default Prometheus gatherer")
	}
}

func TestServer_Metrics(t *testing.T) {
	counter := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "datacom_metrics_test_total",
		Help: "Counter registered by the metrics test",
	})
	if err := Registry.Register(counter); err != nil {
		t.Fatalf("Register() failed: %v", err)
	}
	defer Registry.Unregister(counter)
	counter.Add(3)

	server := httptest.NewServer(NewServer(":0").Handler)
	defer server.Close()

	resp, err := http.Get(server.URL + "/metrics")
	if err != nil {
		t.Fatalf("GET /metrics failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "datacom_metrics_test_total 3") {
		t.Errorf("metrics output missing test counter:\n%s", body)
	}
}

func TestServer_Health(t *testing.T) {
	server := httptest.NewServer(NewServer(":0").Handler)
	defer server.Close()

	resp, err := http.Get(server.URL + "/health")
	if err != nil {
		t.Fatalf("GET /health failed: %v", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK || string(body) != "OK" {
		t.Errorf("health = %d %q, want 200 \"OK\"", resp.StatusCode, body)
	}
}
