package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"k8s.io/klog/v2"
)

// wrapWithMetrics makes every leaf command, after it finishes, serve a
// single /metrics response on metricsAddr if the flag was set. There is
// no daemon mode: the listener closes as soon as one request is served
// or a short grace period elapses with none.
func wrapWithMetrics(root *cobra.Command, metricsAddr *string) {
	for _, cmd := range root.Commands() {
		wrapCommandTreeWithMetrics(cmd, metricsAddr)
	}
}

func wrapCommandTreeWithMetrics(cmd *cobra.Command, metricsAddr *string) {
	if len(cmd.Commands()) > 0 {
		for _, child := range cmd.Commands() {
			wrapCommandTreeWithMetrics(child, metricsAddr)
		}
		return
	}
	if cmd.RunE == nil {
		return
	}
	inner := cmd.RunE
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		runErr := inner(cmd, args)
		if *metricsAddr != "" {
			if err := serveMetricsOnce(*metricsAddr, 5*time.Second); err != nil {
				klog.Warningf("metrics: %v", err)
			}
		}
		return runErr
	}
}

// serveMetricsOnce listens on addr and serves exactly one request to
// /metrics, then shuts the listener down. It returns after the request
// completes or after timeout elapses with no connection.
func serveMetricsOnce(addr string, timeout time.Duration) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}

	served := make(chan struct{}, 1)
	metricsHandler := promhttp.Handler()
	mux := http.NewServeMux()
	serveAndMark := func(w http.ResponseWriter, r *http.Request) {
		metricsHandler.ServeHTTP(w, r)
		select {
		case served <- struct{}{}:
		default:
		}
	}
	mux.HandleFunc("/metrics", serveAndMark)
	mux.HandleFunc("/", serveAndMark)

	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		_ = srv.Serve(ln)
	}()

	klog.Infof("metrics: serving one response on http://%s/metrics", addr)

	select {
	case <-served:
	case <-time.After(timeout):
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
