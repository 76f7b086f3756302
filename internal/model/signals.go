package model

// 浏览器宿主上报给观察器的信号

// KeyPress keydown 事件
type KeyPress struct {
	Key   string `json:"key"`
	Ctrl  bool   `json:"ctrlKey"`
	Shift bool   `json:"shiftKey"`
	Alt   bool   `json:"altKey"`
	Meta  bool   `json:"metaKey"`
}

// Node 结构变化通知中新增的元素
type Node struct {
	TagName string `json:"tagName"`
	Src     string `json:"src,omitempty"`
	Content string `json:"content,omitempty"`
}

// ElementCounts 当前文档中 script / style 元素数量
type ElementCounts struct {
	Scripts int `json:"scripts"`
	Styles  int `json:"styles"`
}

// Violation securitypolicyviolation 事件
type Violation struct {
	BlockedURI        string `json:"blockedURI"`
	ViolatedDirective string `json:"violatedDirective"`
	SourceFile        string `json:"sourceFile,omitempty"`
	LineNumber        int    `json:"lineNumber,omitempty"`
}

// DroppedFile 拖放进页面的文件，Head 为文件开头的字节
type DroppedFile struct {
	Name string `json:"name"`
	Type string `json:"type,omitempty"`
	Head []byte `json:"head,omitempty"`
}

// Decision 观察器对宿主事件的处理结果
type Decision struct {
	PreventDefault bool `json:"preventDefault"`
	ClearHash      bool `json:"clearHash,omitempty"`
}
