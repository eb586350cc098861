package network

import (
	"fmt"
	"net/http"
	"time"

	"golang.org/x/net/proxy"
)

// NewClient builds the shared outbound http.Client. When proxyAddr is set,
// traffic goes through a SOCKS5 egress proxy (some deployments pin provider
// traffic to a fixed egress address).
func NewClient(proxyAddr string, timeout time.Duration) (*http.Client, error) {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	if proxyAddr == "" {
		return &http.Client{Timeout: timeout}, nil
	}

	dialer, err := proxy.SOCKS5("tcp", proxyAddr, nil, proxy.Direct)
	if err != nil {
		return nil, fmt.Errorf("connect SOCKS5 (%s): %w", proxyAddr, err)
	}

	transport := &http.Transport{
		Dial:              dialer.Dial,
		DisableKeepAlives: true,
	}

	return &http.Client{
		Transport: transport,
		Timeout:   timeout,
	}, nil
}
