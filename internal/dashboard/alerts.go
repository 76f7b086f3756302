package dashboard

import (
	"context"

	"github.com/Hara602/pageSentry/internal/model"
)

// CSPAlertThreshold 窗口内 csp_violation 超过该数量时告警
const CSPAlertThreshold = 3

const (
	AlertCSPViolations  = "High number of CSP violations detected in the last 5 minutes"
	AlertDevToolsAccess = "Developer tools access attempts detected"
)

// Alert 一条告警
type Alert struct {
	Kind    model.EventType `json:"kind"`
	Message string          `json:"message"`
	Count   int             `json:"count"`
}

// CheckForAlerts 只统计窗口内的事件，每次调用重新计算并整体替换告警区
func (r *Reader) CheckForAlerts(ctx context.Context) []Alert {
	now := r.clock()
	violations, devTools := 0, 0
	for _, l := range r.log.Events(ctx) {
		if now.Sub(l.Timestamp) >= r.window {
			continue
		}
		switch l.EventType {
		case model.EventCSPViolation:
			violations++
		case model.EventDevToolsAttempts:
			devTools++
		}
	}

	alerts := []Alert{}
	if violations > CSPAlertThreshold {
		alerts = append(alerts, Alert{Kind: model.EventCSPViolation, Message: AlertCSPViolations, Count: violations})
	}
	if devTools > 0 {
		alerts = append(alerts, Alert{Kind: model.EventDevToolsAttempts, Message: AlertDevToolsAccess, Count: devTools})
	}

	if r.view != nil {
		r.view.ShowAlerts(alerts)
	}
	return alerts
}
