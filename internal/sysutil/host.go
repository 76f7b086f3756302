package sysutil

import (
	"net"
	"strings"
)

// 本地开发主机，开发者工具和右键菜单在这些主机上不拦截
var localHosts = map[string]bool{
	"":          true,
	"localhost": true,
	"127.0.0.1": true,
	"::1":       true,
	"0.0.0.0":   true,
}

// IsLocalDevHost 判断页面主机是否为本地开发环境，extra 为配置的额外开发主机
func IsLocalDevHost(host string, extra []string) bool {
	h := strings.ToLower(strings.TrimSpace(host))
	if hostOnly, _, err := net.SplitHostPort(h); err == nil {
		h = hostOnly
	}
	h = strings.Trim(h, "[]")
	if localHosts[h] {
		return true
	}
	for _, e := range extra {
		if strings.EqualFold(h, e) {
			return true
		}
	}
	return false
}
