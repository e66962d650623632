package util

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"
)

// ScopeState returns the subset of state named by reads. Reads without a value
// are present as "" so templates never print "<no value>".
func ScopeState(state func(string) (any, bool), reads []string) map[string]any {
	scoped := make(map[string]any, len(reads))
	for _, k := range reads {
		v, ok := state(k)
		if !ok || v == nil {
			scoped[k] = ""
			continue
		}
		scoped[k] = v
	}
	return scoped
}

// RenderTemplate executes text as a text/template against data. Text without
// template markers is returned unchanged. References to keys outside data
// fail with an error instead of rendering empty.
func RenderTemplate(text string, data map[string]any) (string, error) {
	if !strings.Contains(text, "{{") {
		return text, nil
	}

	tmpl, err := template.New("prompt").Option("missingkey=error").Funcs(template.FuncMap{
		"default": func(defaultVal any, val any) any {
			if val == nil || val == "" {
				return defaultVal
			}
			return val
		},
		"upper": strings.ToUpper,
		"lower": strings.ToLower,
		"trim":  strings.TrimSpace,
		"join": func(sep string, items []any) string {
			strItems := make([]string, len(items))
			for i, item := range items {
				strItems[i] = fmt.Sprintf("%v", item)
			}
			return strings.Join(strItems, sep)
		},
	}).Parse(text)
	if err != nil {
		return "", fmt.Errorf("parse template: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render template: %w", err)
	}

	return buf.String(), nil
}
