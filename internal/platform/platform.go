// Package platform изолирует side-channel хост-платформы (кнопки,
// хаптика, тема, ссылки) за интерфейсом с браузерным no-op фолбэком.
// Ядро никогда не ветвится по окружению: реализация выбирается один раз
// в composition root, а каждая возможность деградирует молча.
package platform

import (
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/uslugi-miniapp/internal/logger"
)

// HapticStyle — сила тактильного отклика.
type HapticStyle string

const (
	HapticLight  HapticStyle = "light"
	HapticMedium HapticStyle = "medium"
	HapticHeavy  HapticStyle = "heavy"
)

// HapticNotification — тип уведомляющего отклика.
type HapticNotification string

const (
	HapticSuccess HapticNotification = "success"
	HapticWarning HapticNotification = "warning"
	HapticError   HapticNotification = "error"
)

// MainButtonParams — параметры главной кнопки хоста.
type MainButtonParams struct {
	Text      string
	IsVisible bool
	IsEnabled bool
}

// ThemeParams — цвета темы хоста.
type ThemeParams struct {
	BgColor     string
	TextColor   string
	ButtonColor string
}

// Host — side-channel хост-платформы. Каждый вызов обязан молча
// деградировать, когда возможность недоступна: приложение должно
// работать в обычном браузере во время разработки.
type Host interface {
	ShowBackButton(onClick func())
	HideBackButton()
	SetMainButton(params MainButtonParams, onClick func())
	HideMainButton()
	HapticImpact(style HapticStyle)
	HapticNotify(kind HapticNotification)
	HapticSelection()
	EnableClosingConfirmation()
	DisableClosingConfirmation()
	Theme() ThemeParams
	OpenLink(url string)
	OpenPlatformLink(url string)
	InitData() string
}

// BrowserHost — фолбэк для запуска вне WebView: кнопки и хаптика
// превращаются в no-op, ссылки логируются как открытые браузером.
type BrowserHost struct {
	log      *logrus.Entry
	initData string
}

// NewBrowserHost создаёт браузерный фолбэк. initData — тестовый payload
// для dev-окружения (в реальном WebView его выдаёт хост).
func NewBrowserHost(initData string) *BrowserHost {
	return &BrowserHost{
		log:      logger.WithComponent("platform"),
		initData: initData,
	}
}

func (h *BrowserHost) ShowBackButton(func())                       {}
func (h *BrowserHost) HideBackButton()                             {}
func (h *BrowserHost) SetMainButton(MainButtonParams, func())      {}
func (h *BrowserHost) HideMainButton()                             {}
func (h *BrowserHost) HapticImpact(HapticStyle)                    {}
func (h *BrowserHost) HapticNotify(HapticNotification)             {}
func (h *BrowserHost) HapticSelection()                            {}
func (h *BrowserHost) EnableClosingConfirmation()                  {}
func (h *BrowserHost) DisableClosingConfirmation()                 {}

// Theme возвращает дефолтную светлую тему.
func (h *BrowserHost) Theme() ThemeParams {
	return ThemeParams{BgColor: "#ffffff", TextColor: "#000000", ButtonColor: "#2481cc"}
}

// OpenLink — браузерный фолбэк открытия внешней ссылки.
func (h *BrowserHost) OpenLink(url string) {
	h.log.WithField("url", url).Debug("открываем ссылку браузерным фолбэком")
}

// OpenPlatformLink — вне WebView платформенные ссылки открываются как обычные.
func (h *BrowserHost) OpenPlatformLink(url string) {
	h.OpenLink(url)
}

// InitData возвращает платформенный payload авторизации.
func (h *BrowserHost) InitData() string {
	return h.initData
}
