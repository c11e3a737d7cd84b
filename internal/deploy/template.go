package deploy

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"text/template"
)

// TemplateData config_client 模板的渲染数据
type TemplateData struct {
	Servers []ServerSpec
	// DomainOutboundTag routes domain-matched traffic through the second
	// server when there is one, otherwise the first.
	DomainOutboundTag string
}

// NewTemplateData fills derived fields from a tagged server list.
func NewTemplateData(servers []ServerSpec) TemplateData {
	data := TemplateData{Servers: servers}
	if len(servers) > 1 {
		data.DomainOutboundTag = servers[1].Tag
	} else if len(servers) == 1 {
		data.DomainOutboundTag = servers[0].Tag
	}
	return data
}

// RenderClientConfig renders the xray client config from templatePath into
// outputPath. In dry-run mode the output file is not written and the
// rendered bytes are returned for display.
func RenderClientConfig(templatePath, outputPath string, servers []ServerSpec, dryRun bool) ([]byte, error) {
	tmpl, err := template.New(filepath.Base(templatePath)).ParseFiles(templatePath)
	if err != nil {
		return nil, fmt.Errorf("parse template %s: %w", templatePath, err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, NewTemplateData(servers)); err != nil {
		return nil, fmt.Errorf("render template: %w", err)
	}
	if !dryRun {
		if err := os.WriteFile(outputPath, buf.Bytes(), 0o644); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}
