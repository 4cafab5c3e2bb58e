package config

import (
	"bytes"
	"fmt"
	"os"
	"strings"
	"text/template"

	"github.com/danmuck/labctl/internal/data"
)

// Render fills the lab.cfg template with cfg.
func Render(cfg Lab) ([]byte, error) {
	var buf bytes.Buffer
	if err := labTemplate.Execute(&buf, cfg); err != nil {
		return nil, fmt.Errorf("render lab config: %w", err)
	}
	return buf.Bytes(), nil
}

// WriteTemplate renders cfg to path. Unless overwrite is set an existing
// file is left alone and reported.
func WriteTemplate(path string, cfg Lab, overwrite bool) error {
	rendered, err := Render(cfg)
	if err != nil {
		return err
	}
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config already exists: %s", path)
		}
	}
	return data.WriteFileAtomic(path, rendered, 0o600)
}

// quote renders s as a TOML basic string.
func quote(s string) string {
	var b strings.Builder
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		default:
			if r < 0x20 || r == 0x7f {
				fmt.Fprintf(&b, `\u%04X`, r)
				continue
			}
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
	return b.String()
}

var labTemplate = template.Must(template.New("lab.cfg").
	Funcs(template.FuncMap{"quote": quote}).
	Parse(labTemplateText))

const labTemplateText = `# lab installation configuration, generated by "labctl create".

# Installation secret. Mixed into every stored password hash; changing it
# invalidates all existing logins.
secret_key = {{ quote .SecretKey }}

# Administrator account. The admin is never modified by import-users.
admin_login = {{ quote .AdminLogin }}
admin_name = {{ quote .AdminName }}
admin_email = {{ quote .AdminEmail }}
admin_passhash = {{ quote .AdminPasshash }}

data_path = {{ quote .DataPath }}
status_path = {{ quote .StatusPath }}

debug_server = {{ .DebugServer }}
listen_addr = {{ quote .ListenAddr }}

# Prometheus push gateway for import-users run totals, e.g.
# "http://127.0.0.1:9091". Leave empty to skip the push.
pushgateway_url = {{ quote .PushgatewayURL }}
`
