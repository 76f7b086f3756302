package server

import "github.com/Hara602/pageSentry/internal/model"

// PageLoad 页面加载时上报，Supports 标记浏览器具备的平台 API
type PageLoad struct {
	URL       string               `json:"url"`
	UserAgent string               `json:"userAgent"`
	Host      string               `json:"host"`
	Supports  Supports             `json:"supports"`
	Counts    *model.ElementCounts `json:"counts,omitempty"`
}

type Supports struct {
	MutationObserver bool `json:"mutationObserver"`
	PolicyViolations bool `json:"policyViolations"`
}

type PageCreated struct {
	PageID    string `json:"pageId"`
	SessionID string `json:"sessionId"`
}

// Signal 一次浏览器信号，Kind 决定使用哪个字段
type Signal struct {
	Kind      string               `json:"kind"`
	Key       *model.KeyPress      `json:"key,omitempty"`
	Href      string               `json:"href,omitempty"`
	Nodes     []model.Node         `json:"nodes,omitempty"`
	Counts    *model.ElementCounts `json:"counts,omitempty"`
	Violation *model.Violation     `json:"violation,omitempty"`
	Hash      string               `json:"hash,omitempty"`
	Files     []model.DroppedFile  `json:"files,omitempty"`
	Text      string               `json:"text,omitempty"`
	URL       string               `json:"url,omitempty"`
}

const (
	SignalContextMenu = "contextmenu"
	SignalKeyDown     = "keydown"
	SignalClick       = "click"
	SignalMutation    = "mutation"
	SignalElements    = "elements"
	SignalCSP         = "csp"
	SignalHashChange  = "hashchange"
	SignalDragOver    = "dragover"
	SignalDrop        = "drop"
	SignalPaste       = "paste"
	SignalNavigate    = "navigate"
)
