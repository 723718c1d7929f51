package i18n

import (
	"fmt"

	"golang.org/x/text/language"
)

// Supported locales; Korean first, it is the product's home locale.
var supported = []language.Tag{
	language.Korean,
	language.English,
}

var matcher = language.NewMatcher(supported)

// Normalize maps an arbitrary locale string (BCP 47 tag or Accept-Language
// value) to one of the supported locales.
func Normalize(locale string) string {
	tags, _, err := language.ParseAcceptLanguage(locale)
	if err != nil || len(tags) == 0 {
		return "en"
	}
	_, index, conf := matcher.Match(tags...)
	if conf == language.No {
		return "en"
	}
	base, _ := supported[index].Base()
	return base.String()
}

var messages = map[string]map[string]string{
	"ko": {
		"phase.uploading_base":     "베이스 이미지 업로드 중...",
		"phase.uploading_products": "제품 이미지 업로드 중...",
		"phase.uploading_history":  "생성 기록 업로드 중 (%d/%d)...",
		"phase.persisting":         "작업 공간 저장 중...",
		"phase.refreshing_catalog": "작업 공간 목록을 새로 불러오는 중...",
		"register.prompt":          "사용할 이름을 등록해 주세요.",
		"workspace.default_name":   "새 프로젝트",
	},
	"en": {
		"phase.uploading_base":     "Uploading base image...",
		"phase.uploading_products": "Uploading product images...",
		"phase.uploading_history":  "Uploading generation history (%d/%d)...",
		"phase.persisting":         "Saving workspace...",
		"phase.refreshing_catalog": "Refreshing workspace list...",
		"register.prompt":          "Please register a display name.",
		"workspace.default_name":   "New Project",
	},
}

// T returns the message for key in the given locale, falling back to English
// and finally to the key itself.
func T(locale, key string) string {
	if msg, ok := messages[Normalize(locale)][key]; ok {
		return msg
	}
	if msg, ok := messages["en"][key]; ok {
		return msg
	}
	return key
}

// PhaseMessage renders a save-pipeline phase as user-facing copy. phase uses
// the controller's wire value; index/total only apply to the history phase.
func PhaseMessage(locale, phase string, index, total int) string {
	key := "phase." + phase
	msg := T(locale, key)
	if msg == key {
		return phase
	}
	if phase == "uploading_history" {
		return fmt.Sprintf(msg, index, total)
	}
	return msg
}
