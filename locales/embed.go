// Package locales содержит переводы сообщений об ошибках.
package locales

import (
	"embed"
	"encoding/json"
	"io/fs"
	"path"
	"strings"

	"github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"
)

//go:embed *.json
var files embed.FS

// FS returns the embedded translation files
func FS() fs.FS {
	return files
}

// NewBundle создает bundle со всеми встроенными переводами. Язык по умолчанию английский.
func NewBundle() (*i18n.Bundle, error) {
	bundle := i18n.NewBundle(language.English)
	bundle.RegisterUnmarshalFunc("json", json.Unmarshal)

	err := fs.WalkDir(files, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(p, ".json") {
			return nil
		}
		data, err := fs.ReadFile(files, p)
		if err != nil {
			return err
		}
		_, err = bundle.ParseMessageFileBytes(data, path.Base(p))
		return err
	})
	if err != nil {
		return nil, err
	}
	return bundle, nil
}
