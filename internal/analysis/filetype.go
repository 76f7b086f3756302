package analysis

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/h2non/filetype"
)

// HeadSize filetype 建议读取的文件头长度
const HeadSize = 262

// Result 检测结果
type Result struct {
	IsMasquerade bool   // 是否是伪装文件
	RealExt      string // 真实的类型后缀 (根据文件头)
	DeclaredExt  string // 声明的后缀 (文件名)
	RiskLevel    string // 风险等级: HIGH, MEDIUM, SAFE
	Message      string
}

// TypeInspector 根据文件头判断拖放文件的真实类型
type TypeInspector struct {
	aliasMap map[string]map[string]bool
	mu       sync.RWMutex
}

func NewTypeInspector() *TypeInspector {
	inspector := &TypeInspector{
		aliasMap: make(map[string]map[string]bool),
	}
	inspector.initRules()
	return inspector
}

// initRules 哪些“表里不一”是合法的
func (t *TypeInspector) initRules() {
	allow := func(realType string, allowedExts ...string) {
		if _, ok := t.aliasMap[realType]; !ok {
			t.aliasMap[realType] = make(map[string]bool)
		}
		t.aliasMap[realType][realType] = true
		for _, ext := range allowedExts {
			t.aliasMap[realType][ext] = true
		}
	}

	// docx, xlsx 等本质都是 zip
	allow("zip", "docx", "xlsx", "pptx", "odt", "ods", "odp", "jar", "apk", "epub")
	allow("xml", "svg", "html", "htm")
	allow("jpg", "jpeg", "jpe")
	allow("tif", "tiff")
	allow("mp4", "m4v", "mov")
	allow("gz", "gzip", "tgz")
	allow("exe", "dll", "scr")
}

// AddAlias 运行时追加兼容规则
func (t *TypeInspector) AddAlias(realType, ext string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.aliasMap[realType]; !ok {
		t.aliasMap[realType] = map[string]bool{realType: true}
	}
	t.aliasMap[realType][strings.ToLower(ext)] = true
}

// InspectHead 检测文件名与文件头是否一致，head 为文件开头最多 HeadSize 字节
func (t *TypeInspector) InspectHead(name string, head []byte) *Result {
	declaredExt := strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))

	if len(head) == 0 {
		return &Result{RealExt: "unknown", DeclaredExt: declaredExt, RiskLevel: "SAFE", Message: "Empty file"}
	}
	if len(head) > HeadSize {
		head = head[:HeadSize]
	}

	kind, _ := filetype.Match(head)
	// 纯文本文件通常识别为 Unknown，默认信任
	if kind == filetype.Unknown {
		return &Result{RealExt: "unknown", DeclaredExt: declaredExt, RiskLevel: "SAFE", Message: "Unknown binary signature (likely text)"}
	}

	realExt := kind.Extension
	if declaredExt == "" || realExt == declaredExt {
		return &Result{RealExt: realExt, DeclaredExt: declaredExt, RiskLevel: "SAFE"}
	}

	t.mu.RLock()
	allowed := t.aliasMap[realExt][declaredExt]
	t.mu.RUnlock()
	if allowed {
		return &Result{
			RealExt:     realExt,
			DeclaredExt: declaredExt,
			RiskLevel:   "SAFE",
			Message:     fmt.Sprintf("Allowed alias: %s is compatible with %s", declaredExt, realExt),
		}
	}

	risk := "MEDIUM"
	if realExt == "exe" || realExt == "elf" || realExt == "dll" {
		risk = "HIGH" // 可执行文件伪装成其他格式
	}
	return &Result{
		IsMasquerade: true,
		RealExt:      realExt,
		DeclaredExt:  declaredExt,
		RiskLevel:    risk,
		Message:      fmt.Sprintf("Type Mismatch! Header is '%s' but file is '%s'", realExt, declaredExt),
	}
}
