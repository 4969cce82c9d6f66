// Package templates はサーバー側で描画する HTML テンプレートを埋め込みます。
package templates

import (
	"embed"
	"html/template"
)

//go:embed *.html
var files embed.FS

// Parse は埋め込みテンプレートをすべて読み込みます。
// テンプレート名はファイル名（例: login.html）です。
func Parse() (*template.Template, error) {
	return template.ParseFS(files, "*.html")
}

// Must は Parse の失敗で panic します。起動時とテスト用です。
func Must() *template.Template {
	return template.Must(Parse())
}
