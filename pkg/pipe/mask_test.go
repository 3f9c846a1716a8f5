package pipe

import (
	"testing"

	"github.com/stleox/tracuni/pkg/config"

	r "github.com/stretchr/testify/require"
)

func TestMask_JSON(t *testing.T) {
	in := `{"user":"bob","Password":"hunter2","nested":{"X-Auth-Token":"abc","keep":1},"list":[{"api_key":"k"}]}`
	got := MaskSecretCatchEssentials(in).(string)
	r.JSONEq(t, `{"user":"bob","Password":"***","nested":{"X-Auth-Token":"***","keep":1},"list":[{"api_key":"***"}]}`, got)
}

func TestMask_Idempotent(t *testing.T) {
	inputs := []any{
		`{"password":"p","b":{"token":"t"},"n":12345678901234567890}`,
		`user=bob&password=hunter2&token=abc`,
		`Authorization: Bearer abc`,
		map[string]any{"secret": "s", "items": []any{map[string]any{"PWD": 1}}},
		map[string]string{"Cookie": "c", "Accept": "json"},
		[]byte(`{"api_key":"k"}`),
		struct{ Password string }{"p"},
	}
	for _, in := range inputs {
		once := MaskSecretCatchEssentials(in)
		twice := MaskSecretCatchEssentials(once)
		r.Equal(t, once, twice)
	}
}

func TestMask_Text(t *testing.T) {
	got := MaskSecretCatchEssentials("user=bob&password=hunter2&token=abc").(string)
	r.Equal(t, "user=bob&password="+config.MaskToken+"&token="+config.MaskToken, got)

	got = MaskSecretCatchEssentials(`"passwd": "x1"`).(string)
	r.Equal(t, `"passwd": "`+config.MaskToken+`"`, got)
}

func TestMask_Map(t *testing.T) {
	in := map[string]any{"Secret": "s", "name": "n"}
	got := MaskSecretCatchEssentials(in).(map[string]any)
	r.Equal(t, config.MaskToken, got["Secret"])
	r.Equal(t, "n", got["name"])
	// input left untouched
	r.Equal(t, "s", in["Secret"])

	headers := MaskSecretCatchEssentials(map[string]string{"Authorization": "Bearer x", "Accept": "*/*"}).(map[string]string)
	r.Equal(t, config.MaskToken, headers["Authorization"])
	r.Equal(t, "*/*", headers["Accept"])
}

func TestMaskWith(t *testing.T) {
	mask := MaskWith([]string{" CARD "}, "#")
	got := mask(map[string]any{"credit_card": "4111", "password": "p"}).(map[string]any)
	r.Equal(t, "#", got["credit_card"])
	r.Equal(t, "p", got["password"])
	r.Nil(t, mask(nil))

	noop := MaskWith(nil, "#")
	r.Equal(t, "password=p", noop("password=p"))
}

func TestMaskWith_SpacedToken(t *testing.T) {
	mask := MaskWith([]string{"password", "token"}, "<masked value>")
	for _, in := range []string{
		"password=hunter2",
		"user=bob&password=hunter2&token=a,b",
		`"token": "abc"`,
	} {
		once := mask(in)
		r.Equal(t, once, mask(once), in)
	}
	r.Equal(t, "password=<masked value>&x=1", mask("password=hunter2&x=1"))
}

func TestMask_KeyWords(t *testing.T) {
	mask := MaskWith([]string{"auth", "api_key", "password"}, "#")
	tests := []struct {
		key       string
		sensitive bool
	}{
		{"auth", true},
		{"X-Auth-Token", true},
		{"basicAuth", true},
		{"x_api_key_id", true},
		{"userPassword", true},
		{"author", false},
		{"oauth_provider", false},
		{"api", false},
		{"passwords_count", false},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			got := mask(map[string]any{tt.key: "v"}).(map[string]any)
			r.Equal(t, tt.sensitive, got[tt.key] == "#")

			text := mask(tt.key + "=v").(string)
			r.Equal(t, tt.sensitive, text == tt.key+"=#")
		})
	}
}
