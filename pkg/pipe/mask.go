package pipe

import (
	"bytes"
	"encoding/json"
	"regexp"
	"strings"
	"sync"
	"unicode"

	"github.com/stleox/tracuni/pkg/config"
	"github.com/stleox/tracuni/pkg/schema"
)

var (
	muDefault  sync.Mutex
	defaultKey string
	defaultFn  schema.Func
)

// MaskSecretCatchEssentials masks config.SensitiveFields with config.MaskToken.
func MaskSecretCatchEssentials(in any) any {
	return defaultMasker()(in)
}

// defaultMasker is rebuilt only when the config knobs change.
func defaultMasker() schema.Func {
	key := config.MaskToken + "\x00" + strings.Join(config.SensitiveFields, "\x00")
	muDefault.Lock()
	defer muDefault.Unlock()
	if defaultFn == nil || key != defaultKey {
		defaultFn = MaskWith(config.SensitiveFields, config.MaskToken)
		defaultKey = key
	}
	return defaultFn
}

// MaskWith returns a masking Func. Keys are split into lower case words on
// "-", "_", "." and camelCase humps; a key is sensitive when the words of a
// field appear in it, so "X-Auth-Token" is caught by "token" and "author" is
// not caught by "auth". JSON text is masked structurally and re-encoded;
// other text falls back to key=value and key: value patterns. Masking a
// masked payload changes nothing.
func MaskWith(fields []string, token string) schema.Func {
	normalized := make([]string, 0, len(fields))
	for _, f := range fields {
		if f = keyWords(strings.TrimSpace(f)); f != "" {
			normalized = append(normalized, f)
		}
	}
	m := &masker{fields: normalized, token: token}
	if len(normalized) > 0 {
		value := `[^"&,;\s]+`
		if token != "" {
			// 已脱敏的值整体匹配，token 可以含空格
			value = regexp.QuoteMeta(token) + "|" + value
		}
		m.text = regexp.MustCompile(`(?i)([\w.\-]+)("?\s*[=:]\s*)("?)((?:bearer|basic)\s+)?(` + value + `)`)
	}
	return m.mask
}

type masker struct {
	fields []string
	token  string
	text   *regexp.Regexp
}

func (m *masker) mask(in any) (ret any) {
	defer degrade("mask", &ret, "")
	switch v := in.(type) {
	case nil:
		return nil
	case string:
		return m.maskString(v)
	case []byte:
		return m.maskString(string(v))
	case map[string]any, []any:
		return m.maskValue(v)
	case map[string]string:
		ret := make(map[string]string, len(v))
		for k, s := range v {
			if m.sensitive(k) {
				s = m.token
			}
			ret[k] = s
		}
		return ret
	}
	// 先 dump 再处理
	s, _ := Dump(in).(string)
	return m.maskString(s)
}

func (m *masker) maskString(s string) string {
	trimmed := strings.TrimSpace(s)
	if strings.HasPrefix(trimmed, "{") || strings.HasPrefix(trimmed, "[") {
		dec := json.NewDecoder(strings.NewReader(trimmed))
		dec.UseNumber()
		var doc any
		if err := dec.Decode(&doc); err == nil && !dec.More() {
			var buf bytes.Buffer
			enc := json.NewEncoder(&buf)
			enc.SetEscapeHTML(false)
			if err := enc.Encode(m.maskValue(doc)); err == nil {
				return strings.TrimSuffix(buf.String(), "\n")
			}
		}
	}
	if m.text == nil {
		return s
	}
	var b strings.Builder
	last := 0
	for _, loc := range m.text.FindAllStringSubmatchIndex(s, -1) {
		if !m.sensitive(s[loc[2]:loc[3]]) {
			continue
		}
		// loc[10]:loc[11] 是值
		b.WriteString(s[last:loc[10]])
		b.WriteString(m.token)
		last = loc[11]
	}
	if last == 0 {
		return s
	}
	b.WriteString(s[last:])
	return b.String()
}

func (m *masker) maskValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		ret := make(map[string]any, len(val))
		for k, item := range val {
			if m.sensitive(k) {
				ret[k] = m.token
				continue
			}
			ret[k] = m.maskValue(item)
		}
		return ret
	case []any:
		ret := make([]any, len(val))
		for i, item := range val {
			ret[i] = m.maskValue(item)
		}
		return ret
	}
	return v
}

func (m *masker) sensitive(key string) bool {
	words := "_" + keyWords(key) + "_"
	for _, f := range m.fields {
		if strings.Contains(words, "_"+f+"_") {
			return true
		}
	}
	return false
}

// keyWords turns "X-Auth-Token" or "xAuthToken" into "x_auth_token".
func keyWords(key string) string {
	var b strings.Builder
	prev := rune(0)
	for _, c := range key {
		switch {
		case c == '-' || c == '.' || c == '_' || unicode.IsSpace(c):
			c = '_'
		case unicode.IsUpper(c) && unicode.IsLower(prev):
			b.WriteByte('_')
		}
		if c == '_' && (b.Len() == 0 || prev == '_') {
			prev = c
			continue
		}
		b.WriteRune(unicode.ToLower(c))
		prev = c
	}
	return strings.TrimSuffix(b.String(), "_")
}
