package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	NameUnknown = "unknown"

	// CutMarker is appended to payloads shortened by pipe.Cut.
	CutMarker = "..."
)

// for root
var (
	Debug = false
)

// for pkg pipe
var (
	// 单条 dump 的最大长度，超过则截断
	MaxDumpLength = 4096

	// MaskToken replaces the value of every sensitive field.
	MaskToken = "***"

	SensitiveFields = []string{
		"password", "passwd", "pwd",
		"secret", "token", "api_key", "apikey",
		"authorization", "auth", "cookie", "private_key",
	}

	// 这些前缀的栈帧属于框架本身，不是业务调用点
	InternalFramePrefixes = []string{
		"runtime.",
		"testing.",
		"net/http.",
		"github.com/stleox/tracuni/pkg/",
		"github.com/rabbitmq/amqp091-go",
		"github.com/zeromicro/go-zero/",
	}

	// span name = parts[0] + sep[0] + parts[1] + sep[1] + parts[2] + sep[2]
	SpanNameSeparators = [3]string{"::", " (", ")"}
)

// for pkg engine
var (
	// 按 Variant 缓存 Select 的结果
	MaxSelectCache = 64
	// 日志中错误信息的最大长度
	MaxErrorLength = 256
	// 记录失败次数的规则数量上限
	MaxJournalRules = 256
	// 失败批量写入 journal 文件的间隔
	JournalFlushInterval = time.Second
)

// for pkg bgtask
var (
	SummaryInterval = "@every 1m"
	SummaryTopN     = 10
)

// for cmd serve
var (
	DefaultListen = ":8080"
	// 测试账号
	DefaultDSN = "root:@tcp(127.0.0.1:3306)/tracuni"
)

// Apply copies the values found in vp over the package defaults.
// Keys missing from vp keep their current value.
func Apply(vp *viper.Viper) {
	if vp == nil {
		return
	}
	if vp.IsSet("debug") {
		Debug = vp.GetBool("debug")
	}
	if vp.IsSet("max-dump-length") {
		if n := vp.GetInt("max-dump-length"); n > 0 {
			MaxDumpLength = n
		}
	}
	if vp.IsSet("mask-token") {
		if s := vp.GetString("mask-token"); s != "" {
			MaskToken = s
		}
	}
	if vp.IsSet("sensitive-fields") {
		fields := vp.GetStringSlice("sensitive-fields")
		if len(fields) > 0 {
			SensitiveFields = normalizeFields(fields)
		}
	}
	if vp.IsSet("summary-interval") {
		if s := vp.GetString("summary-interval"); s != "" {
			SummaryInterval = s
		}
	}
	if vp.IsSet("journal-flush-interval") {
		if d := vp.GetDuration("journal-flush-interval"); d > 0 {
			JournalFlushInterval = d
		}
	}
	initLogrus(vp)
}

func normalizeFields(fields []string) []string {
	ret := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.ToLower(strings.TrimSpace(f))
		if f != "" {
			ret = append(ret, f)
		}
	}
	return ret
}
