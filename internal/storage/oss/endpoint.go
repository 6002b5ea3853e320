package oss

import (
	"fmt"
	"net/url"
	"strings"
)

// defaultHostSuffix admits every public Aliyun OSS region endpoint.
const defaultHostSuffix = ".aliyuncs.com"

func normalizeEndpoint(endpoint string) string {
	return strings.TrimRight(strings.TrimSpace(endpoint), "/")
}

// ValidateEndpoint rejects endpoints that could leak credentials: plain http,
// embedded userinfo, query strings and hosts outside the allow-list. An empty
// allow-list admits *.aliyuncs.com only.
func ValidateEndpoint(endpoint string, allowedHosts []string) error {
	endpoint = normalizeEndpoint(endpoint)
	if endpoint == "" {
		return fmt.Errorf("oss endpoint is required")
	}

	u, err := url.Parse(endpoint)
	if err != nil {
		return fmt.Errorf("invalid oss endpoint: %w", err)
	}
	if !u.IsAbs() || u.Host == "" {
		return fmt.Errorf("invalid oss endpoint %q: absolute URL with host is required", endpoint)
	}
	if u.User != nil {
		return fmt.Errorf("invalid oss endpoint %q: userinfo is not allowed", endpoint)
	}
	if u.RawQuery != "" || u.Fragment != "" {
		return fmt.Errorf("invalid oss endpoint %q: query and fragment are not allowed", endpoint)
	}
	if u.Path != "" && u.Path != "/" {
		return fmt.Errorf("invalid oss endpoint %q: path is not allowed", endpoint)
	}

	host := strings.ToLower(u.Hostname())
	if host == "" {
		return fmt.Errorf("invalid oss endpoint %q: host is required", endpoint)
	}
	if strings.ToLower(u.Scheme) != "https" {
		return fmt.Errorf("invalid oss endpoint %q: https is required", endpoint)
	}

	allowed := normalizeAllowedHosts(allowedHosts)
	if len(allowed) == 0 {
		if !strings.HasSuffix(host, defaultHostSuffix) {
			return fmt.Errorf("invalid oss endpoint %q: host %q is not an aliyuncs.com endpoint", endpoint, host)
		}
		return nil
	}
	if _, ok := allowed[host]; !ok {
		return fmt.Errorf("invalid oss endpoint %q: host %q is not in the allowed hosts", endpoint, host)
	}
	return nil
}

func normalizeAllowedHosts(allowedHosts []string) map[string]struct{} {
	out := make(map[string]struct{}, len(allowedHosts))
	for _, h := range allowedHosts {
		v := strings.ToLower(strings.TrimSpace(h))
		v = strings.TrimPrefix(v, "http://")
		v = strings.TrimPrefix(v, "https://")
		v = strings.Trim(v, "/")
		if v == "" {
			continue
		}
		if i := strings.Index(v, ":"); i >= 0 {
			v = v[:i]
		}
		out[v] = struct{}{}
	}
	return out
}
