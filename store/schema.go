package store

import (
	"embed"
	"strings"
)

const SchemaName = "schema/schema.sql"

//go:embed schema/*.sql
var schemaFS embed.FS

// LoadSchema reads a schema file embedded in the binary.
func LoadSchema(name string) (string, error) {
	data, err := schemaFS.ReadFile(name)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// statements splits a script on semicolons ending a line and drops comment
// lines. The schema has no semicolons inside literals.
func statements(script string) []string {
	var out []string
	var cur strings.Builder
	for _, line := range strings.Split(script, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "--") {
			continue
		}
		cur.WriteString(line)
		cur.WriteByte('\n')
		if strings.HasSuffix(trimmed, ";") {
			out = append(out, strings.TrimSpace(cur.String()))
			cur.Reset()
		}
	}
	if s := strings.TrimSpace(cur.String()); s != "" {
		out = append(out, s)
	}
	return out
}
