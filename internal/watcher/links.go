package watcher

import (
	"context"
	"net/url"
	"strings"

	"github.com/Hara602/pageSentry/internal/model"
)

// LinkGuard 校验外链主机，不在白名单内的导航被阻止
type LinkGuard struct {
	rec           Recorder
	allowed       []string
	logNavigation bool
}

func NewLinkGuard(rec Recorder, allowed []string, logNavigation bool) *LinkGuard {
	hosts := make([]string, 0, len(allowed))
	for _, h := range allowed {
		if h = strings.ToLower(strings.TrimSpace(h)); h != "" {
			hosts = append(hosts, strings.TrimPrefix(h, "."))
		}
	}
	return &LinkGuard{rec: rec, allowed: hosts, logNavigation: logNavigation}
}

// Intercepts 只拦截以 http 开头的链接，站内锚点和相对路径放行
func (g *LinkGuard) Intercepts(href string) bool {
	return strings.HasPrefix(href, "http")
}

// OnClick 处理链接点击
func (g *LinkGuard) OnClick(ctx context.Context, href string) model.Decision {
	if !g.Intercepts(href) {
		return model.Decision{}
	}
	host, ok := g.Validate(href)
	if !ok {
		g.rec.Record(ctx, model.EventInvalidLink, model.SeverityWarning, model.Details{"href": href})
		return model.Decision{PreventDefault: true}
	}
	if g.logNavigation {
		g.rec.Record(ctx, model.EventNavigation, model.SeverityInfo, model.Details{"href": href, "host": host})
	}
	return model.Decision{}
}

// Validate 主机与白名单完全相同或是其子域名时有效
func (g *LinkGuard) Validate(href string) (string, bool) {
	u, err := url.Parse(href)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return "", false
	}
	host := strings.ToLower(u.Hostname())
	if host == "" {
		return "", false
	}
	for _, a := range g.allowed {
		if host == a || strings.HasSuffix(host, "."+a) {
			return host, true
		}
	}
	return host, false
}
