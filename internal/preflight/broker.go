package preflight

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"strings"
)

// CheckBroker dials the configured brokers. The consumer reconnects on its
// own, so an unreachable broker is a warning.
func (c *Checker) CheckBroker(ctx context.Context, t Target) CheckResult {
	result := CheckResult{
		Name:     "broker",
		Required: false,
	}

	if !t.QueueEnabled {
		result.Status = StatusPass
		result.Message = "queue disabled"
		return result
	}

	var addrs []string
	switch t.QueueDriver {
	case "memory":
		result.Status = StatusPass
		result.Message = "in-process queue"
		return result
	case "amqp":
		addr, err := amqpAddr(t.AMQPURL)
		if err != nil {
			result.Status = StatusFail
			result.Message = err.Error()
			return result
		}
		addrs = []string{addr}
	default:
		addrs = t.Brokers
	}

	if len(addrs) == 0 {
		result.Status = StatusFail
		result.Message = "no broker addresses configured"
		return result
	}

	var down []string
	dialer := net.Dialer{Timeout: c.dialTimeout}
	for _, addr := range addrs {
		conn, err := dialer.DialContext(ctx, "tcp", addr)
		if err != nil {
			down = append(down, addr)
			continue
		}
		_ = conn.Close()
	}

	switch {
	case len(down) == 0:
		result.Status = StatusPass
		result.Message = fmt.Sprintf("%s reachable", strings.Join(addrs, ", "))
	case len(down) < len(addrs):
		result.Status = StatusWarn
		result.Message = fmt.Sprintf("%s unreachable", strings.Join(down, ", "))
	default:
		result.Status = StatusFail
		result.Message = fmt.Sprintf("%s unreachable", strings.Join(down, ", "))
		result.Details = "Events will not be applied until a broker is reachable"
	}
	return result
}

// amqpAddr returns host:port from an AMQP URL.
func amqpAddr(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("invalid AMQP URL: %w", err)
	}
	if u.Hostname() == "" {
		return "", fmt.Errorf("invalid AMQP URL: missing host")
	}
	port := u.Port()
	if port == "" {
		port = "5672"
		if u.Scheme == "amqps" {
			port = "5671"
		}
	}
	return net.JoinHostPort(u.Hostname(), port), nil
}
