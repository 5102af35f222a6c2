package utils

import (
	"context"
	"sync"

	"library/ctxkeys"
	"library/locales"

	"github.com/nicksnyder/go-i18n/v2/i18n"
	"go.uber.org/zap"
	"golang.org/x/text/language"
)

var (
	i18nBundle *i18n.Bundle
	bundleMu   sync.RWMutex
	// Кеш локализаторов для разных языков
	localizerCache = make(map[string]*i18n.Localizer)
	localizerMutex sync.RWMutex
)

// SetI18nBundle устанавливает глобальный bundle для локализации
func SetI18nBundle(bundle *i18n.Bundle) {
	bundleMu.Lock()
	i18nBundle = bundle
	bundleMu.Unlock()

	// Очищаем кеш при установке нового bundle
	localizerMutex.Lock()
	localizerCache = make(map[string]*i18n.Localizer)
	localizerMutex.Unlock()
}

// GetI18nBundle возвращает глобальный bundle. Если он не был установлен,
// загружает встроенные переводы.
func GetI18nBundle() *i18n.Bundle {
	bundleMu.RLock()
	bundle := i18nBundle
	bundleMu.RUnlock()
	if bundle != nil {
		return bundle
	}

	bundleMu.Lock()
	defer bundleMu.Unlock()
	if i18nBundle == nil {
		b, err := locales.NewBundle()
		if err != nil {
			Logger.Error("Failed to load embedded translations", zap.Error(err))
			return nil
		}
		i18nBundle = b
	}
	return i18nBundle
}

// getLocalizer возвращает закешированный локализатор или создает новый
func getLocalizer(lang string) *i18n.Localizer {
	localizerMutex.RLock()
	if localizer, ok := localizerCache[lang]; ok {
		localizerMutex.RUnlock()
		return localizer
	}
	localizerMutex.RUnlock()

	bundle := GetI18nBundle()
	if bundle == nil {
		return nil
	}

	localizerMutex.Lock()
	defer localizerMutex.Unlock()

	// double-check после получения write lock
	if localizer, ok := localizerCache[lang]; ok {
		return localizer
	}

	langTag, err := language.Parse(lang)
	if err != nil {
		langTag = language.English
	}

	localizer := i18n.NewLocalizer(bundle, langTag.String())
	localizerCache[lang] = localizer

	return localizer
}

// TemplateData представляет данные для подстановки в шаблон локализации
type TemplateData map[string]interface{}

// T возвращает локализованную строку по ключу с подстановкой переменных
func T(ctx context.Context, messageID string, data ...TemplateData) string {
	lang := ctxkeys.GetLanguage(ctx)
	if lang == "" {
		lang = "en"
	}

	localizer := getLocalizer(lang)
	if localizer == nil {
		Logger.Error("Failed to get localizer",
			zap.String("messageID", messageID),
			zap.String("language", lang),
		)
		return messageID
	}

	config := &i18n.LocalizeConfig{
		MessageID: messageID,
	}

	if len(data) > 0 {
		config.TemplateData = data[0]
	}

	msg, err := localizer.Localize(config)
	if err != nil {
		Logger.Error("Failed to localize message",
			zap.String("messageID", messageID),
			zap.Error(err),
		)
		return messageID
	}

	return msg
}
