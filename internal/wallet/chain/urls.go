package chain

import (
	"fmt"
	"net/url"
	"strings"
)

// ParseRPCURLs splits a comma separated URL list, dropping blanks.
func ParseRPCURLs(raw string) []string {
	parts := strings.Split(raw, ",")
	urls := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			urls = append(urls, p)
		}
	}

	return urls
}

// InfuraURL returns the hosted endpoint for network, e.g. "mainnet" or "sepolia".
func InfuraURL(network string, apiKey string) string {
	if network == "" {
		network = "mainnet"
	}

	return fmt.Sprintf("https://%s.infura.io/v3/%s", network, apiKey)
}

// ResolveRPCURLs prefers the explicit list and falls back to the hosted endpoint when an
// API key is configured.
func ResolveRPCURLs(raw string, network string, apiKey string) []string {
	if urls := ParseRPCURLs(raw); len(urls) > 0 {
		return urls
	}
	if apiKey == "" {
		return nil
	}

	return []string{InfuraURL(network, apiKey)}
}

// redactURL drops the path and credentials, which may carry an API key, before logging.
func redactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "<invalid url>"
	}

	return u.Scheme + "://" + u.Host
}

var networkChainIDs = map[string]int64{
	"mainnet":  1,
	"goerli":   5,
	"sepolia":  11155111,
	"arbitrum": 42161,
	"polygon":  137,
	"optimism": 10,
}

// NetworkChainID maps a network name to its chain id, defaulting to mainnet.
func NetworkChainID(network string) int64 {
	if id, ok := networkChainIDs[strings.ToLower(network)]; ok {
		return id
	}

	return 1
}
