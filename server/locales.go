package server

import (
	"os"
	"path/filepath"
	"strings"

	"library/locales"
	"library/utils"

	"github.com/nicksnyder/go-i18n/v2/i18n"
	"go.uber.org/zap"
)

// InitI18n инициализирует систему интернационализации.
// Встроенные переводы можно дополнить файлами из LOCALES_DIR.
func InitI18n() (*i18n.Bundle, error) {
	bundle, err := locales.NewBundle()
	if err != nil {
		utils.Logger.Error("Failed to load embedded translations", zap.Error(err))
		return nil, err
	}

	if dir := utils.GetEnvWithDefault("LOCALES_DIR", ""); dir != "" {
		if err := LoadTranslations(bundle, dir); err != nil {
			utils.Logger.Error("Failed to load translations", zap.Error(err))
			return nil, err
		}
	}

	utils.Logger.Info("Translations loaded successfully",
		zap.Int("languages", len(bundle.LanguageTags())),
	)
	return bundle, nil
}

// LoadTranslations загружает все JSON файлы локализации из каталога
func LoadTranslations(bundle *i18n.Bundle, localesDir string) error {
	// Проверяем существование директории локализаций
	if _, err := os.Stat(localesDir); os.IsNotExist(err) {
		utils.Logger.Warn("Locales directory not found", zap.String("path", localesDir))
		return nil
	}

	utils.Logger.Info("Loading translations from directory", zap.String("path", localesDir))

	return filepath.Walk(localesDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && strings.HasSuffix(path, ".json") {
			utils.Logger.Debug("Loading translation file", zap.String("file", path))
			jsonFile, err := os.ReadFile(path)
			if err != nil {
				return err
			}
			_, err = bundle.ParseMessageFileBytes(jsonFile, path)
			return err
		}
		return nil
	})
}
