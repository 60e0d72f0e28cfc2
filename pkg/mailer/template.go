package mailer

import (
	"bytes"
	"embed"
	"fmt"
	htmltmpl "html/template"
	"path"
	"strings"
	"sync"
	texttmpl "text/template"
)

//go:embed templates/*
var templateFS embed.FS

type templateSet struct {
	text *texttmpl.Template
	html *htmltmpl.Template
}

var (
	templates    map[string]*templateSet
	templatesErr error
	tmplInit     sync.Once
)

// Render 渲染同名的 .txt 与 .gohtml 模板，二者都套用 _base 布局
func Render(name string, data interface{}) (text, html string, err error) {
	tmplInit.Do(parseTemplates)
	if templatesErr != nil {
		return "", "", templatesErr
	}
	set, ok := templates[name]
	if !ok {
		return "", "", fmt.Errorf("邮件模板不存在: %s", name)
	}

	var buf bytes.Buffer
	if set.text != nil {
		if err := set.text.Execute(&buf, data); err != nil {
			return "", "", fmt.Errorf("渲染文本模板 %s: %w", name, err)
		}
		text = buf.String()
		buf.Reset()
	}
	if set.html != nil {
		if err := set.html.Execute(&buf, data); err != nil {
			return "", "", fmt.Errorf("渲染 HTML 模板 %s: %w", name, err)
		}
		html = buf.String()
	}
	return text, html, nil
}

func parseTemplates() {
	templates = make(map[string]*templateSet)

	entries, err := templateFS.ReadDir("templates")
	if err != nil {
		templatesErr = err
		return
	}
	for _, e := range entries {
		fname := e.Name()
		ext := path.Ext(fname)
		if strings.HasPrefix(fname, "_") || !(ext == ".txt" || ext == ".gohtml") {
			continue
		}
		name := strings.TrimSuffix(fname, ext)
		set, ok := templates[name]
		if !ok {
			set = &templateSet{}
			templates[name] = set
		}

		if ext == ".txt" {
			set.text, err = texttmpl.New("_base.txt").Option("missingkey=error").
				ParseFS(templateFS, "templates/_base.txt", "templates/"+fname)
		} else {
			set.html, err = htmltmpl.New("_base.gohtml").Option("missingkey=error").
				ParseFS(templateFS, "templates/_base.gohtml", "templates/"+fname)
		}
		if err != nil {
			templatesErr = fmt.Errorf("解析邮件模板 %s: %w", fname, err)
			return
		}
	}
}
