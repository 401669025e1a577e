// Package probe performs an advisory ICMP reachability check against the
// appliance before the REST login. The probe result is reported but never
// gates the run; API login remains the authoritative connectivity test,
// since management plane filtering frequently blocks ICMP while the API
// stays reachable.
package probe

import (
	"context"
	"fmt"
	"runtime"
	"time"

	probing "github.com/prometheus-community/pro-bing"
)

// Config holds probe settings.
type Config struct {
	Enabled bool          `mapstructure:"enabled"`
	Timeout time.Duration `mapstructure:"timeout"`
	Count   int           `mapstructure:"count"`
}

// DefaultConfig returns the default probe configuration.
func DefaultConfig() Config {
	return Config{
		Timeout: 5 * time.Second,
		Count:   3,
	}
}

// Result holds one reachability measurement.
type Result struct {
	Reachable  bool      `json:"reachable"`
	LatencyMs  float64   `json:"latency_ms"`
	PacketLoss float64   `json:"packet_loss"`
	Error      string    `json:"error,omitempty"`
	CheckedAt  time.Time `json:"checked_at"`
}

// ICMPProbe pings targets via pro-bing.
type ICMPProbe struct {
	timeout time.Duration
	count   int
}

// New creates an ICMP probe from config, applying defaults for zero values.
func New(cfg Config) *ICMPProbe {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultConfig().Timeout
	}
	if cfg.Count <= 0 {
		cfg.Count = DefaultConfig().Count
	}
	return &ICMPProbe{timeout: cfg.Timeout, count: cfg.Count}
}

// Ping measures reachability of the target host. A lost-packets outcome is
// reported in the Result, not as an error; errors are reserved for probe
// setup failures.
func (p *ICMPProbe) Ping(ctx context.Context, target string) (*Result, error) {
	pinger, err := probing.NewPinger(target)
	if err != nil {
		return nil, fmt.Errorf("create pinger: %w", err)
	}

	pinger.Count = p.count
	pinger.Timeout = p.timeout
	pinger.SetPrivileged(runtime.GOOS == "windows")

	// Run in a goroutine so the context can cancel the probe.
	done := make(chan error, 1)
	go func() {
		done <- pinger.Run()
	}()

	select {
	case runErr := <-done:
		result := &Result{CheckedAt: time.Now().UTC()}

		if runErr != nil {
			result.Error = runErr.Error()
			result.PacketLoss = 1.0
			return result, nil
		}

		stats := pinger.Statistics()
		result.LatencyMs = float64(stats.AvgRtt) / float64(time.Millisecond)
		result.PacketLoss = stats.PacketLoss / 100.0 // pro-bing reports 0-100
		result.Reachable = stats.PacketsRecv > 0
		if !result.Reachable {
			result.Error = "all packets lost"
		}
		return result, nil

	case <-ctx.Done():
		pinger.Stop()
		return &Result{
			PacketLoss: 1.0,
			Error:      "probe cancelled",
			CheckedAt:  time.Now().UTC(),
		}, nil
	}
}
