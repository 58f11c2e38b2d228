package i18n

import "strings"

// English is the source language: messages are written in English and
// returned unchanged when no catalog matches.
const English = "en"

var catalogs = map[string]map[string]string{
	"fa": {
		"invalid request":                    "درخواست نامعتبر است",
		"chat not found":                     "گفتگو یافت نشد",
		"message not found":                  "پیام یافت نشد",
		"unable to display conversation":     "امکان نمایش این گفتگو وجود ندارد",
		"failed to fetch chats":              "خطا در دریافت گفتگوها",
		"failed to create message":           "خطا در ایجاد پیام",
		"failed to update message":           "خطا در به روزرسانی پیام",
		"failed to delete message":           "خطا در حذف پیام",
		"invalid sender":                     "فرستنده نامعتبر است",
		"invalid status":                     "وضعیت پیام نامعتبر است",
		"reaction is required":               "واکنش الزامی است",
		"file is required":                   "فایل الزامی است",
		"file too large":                     "حجم فایل بیش از حد مجاز است",
		"failed to read file":                "خطا در خواندن فایل",
		"scheduled message not found":        "پیام زمان بندی شده یافت نشد",
		"invalid scheduled message":          "پیام زمان بندی شده نامعتبر است",
		"failed to delete scheduled message": "خطا در حذف پیام زمان بندی شده",
		"rule not found":                     "قانون پاسخ خودکار یافت نشد",
		"invalid auto-reply rule":            "قانون پاسخ خودکار نامعتبر است",
		"failed to delete rule":              "خطا در حذف قانون پاسخ خودکار",
		"invalid bot configuration":          "تنظیمات ربات نامعتبر است",
		"rate limiter error":                 "خطا در محدودسازی درخواست ها",
		"rate limit exceeded":                "تعداد درخواست ها بیش از حد مجاز است",
		"internal server error":              "خطای داخلی سرور",
		"not found":                          "یافت نشد",
		"upload already finished":            "بارگذاری قبلا به پایان رسیده است",
		"upload progress cannot go backward": "پیشرفت بارگذاری نمی تواند کاهش یابد",
	},
}

var prefixCatalogs = map[string]map[string]string{
	"fa": {
		"invalid timestamp:": "زمان پیام نامعتبر است",
		"invalid sender:":    "فرستنده نامعتبر است",
		"invalid status:":    "وضعیت پیام نامعتبر است",
	},
}

// Translate returns message in lang, falling back to the English source.
func Translate(lang, message string) string {
	if lang == "" || lang == English {
		return message
	}
	if translated, ok := catalogs[lang][message]; ok {
		return translated
	}
	for prefix, translated := range prefixCatalogs[lang] {
		if strings.HasPrefix(message, prefix) {
			return translated
		}
	}
	return message
}

// Supported reports whether lang has a catalog.
func Supported(lang string) bool {
	if lang == English {
		return true
	}
	_, ok := catalogs[lang]
	return ok
}
