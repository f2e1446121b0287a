package metrics

import (
	"context"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestStartServer(t *testing.T) {
	reg := prometheus.NewRegistry()
	Register(reg)
	Instrumentation{}.ConnectCompleted(nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	addr, err := StartServer(ctx, "127.0.0.1:0", reg)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	resp, err := http.Get("http://" + addr + "/metrics")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	b, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(b), "rtvi_client_connect_total") {
		t.Fatalf("missing metric in output:\n%s", b)
	}
}
