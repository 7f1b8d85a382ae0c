// Package i18n renders user-facing messages for domain error codes.
//
// Validators and services return machine-readable codes; only the web layer
// turns them into localized text. en-US is the base locale; sw-KE is carried
// for the primary market.
package i18n

import (
	"strings"
	"sync"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	apperrors "github.com/kazipost/kazipost/internal/platform/errors"
)

// BaseLocale is the canonical source locale for messages.
const BaseLocale = "en-US"

var registerOnce sync.Once

// messages maps locale tags to error-code message keys.
var messages = map[string]map[string]string{
	"en-US": {
		"error.DRAFT_TITLE_EMPTY":           "Give your task a short title.",
		"error.DRAFT_DATE_MISSING":          "Pick a date for your task.",
		"error.DRAFT_DATE_IN_PAST":          "The date cannot be in the past.",
		"error.DRAFT_ADDRESS_EMPTY":         "Enter the address where the task happens.",
		"error.DRAFT_DESCRIPTION_EMPTY":     "Describe what needs to be done.",
		"error.DRAFT_DESCRIPTION_TOO_SHORT": "Your description needs at least 25 characters.",
		"error.BUDGET_REQUIRED":             "Enter your budget.",
		"error.BUDGET_NOT_A_NUMBER":         "The budget must be a number.",
		"error.BUDGET_NEGATIVE":             "The budget cannot be negative.",
		"error.BUDGET_TOO_LARGE":            "The budget is too large.",
		"error.WIZARD_STEP_BLOCKED":         "Please wait for your photos to finish uploading.",
		"error.WIZARD_NOT_AT_REVIEW":        "Review your task before posting it.",
		"error.WIZARD_SESSION_CLOSED":       "This task draft is no longer active.",
		"error.ATTACHMENT_NOT_FOUND":        "That photo is no longer attached.",
		"error.ATTACHMENT_UPLOAD_FAILED":    "This photo could not be uploaded.",
		"error.DRAFT_INCOMPLETE":            "Something went wrong. Your draft is safe, please try again.",
		"error.SUBMISSION_FAILED":           "We could not post your task. Please try again.",
		"error.UNKNOWN":                     "Something went wrong. Please try again.",
	},
	"sw-KE": {
		"error.DRAFT_TITLE_EMPTY":           "Andika kichwa kifupi cha kazi yako.",
		"error.DRAFT_DATE_MISSING":          "Chagua tarehe ya kazi yako.",
		"error.DRAFT_DATE_IN_PAST":          "Tarehe haiwezi kuwa iliyopita.",
		"error.DRAFT_ADDRESS_EMPTY":         "Andika anwani ambapo kazi itafanyika.",
		"error.DRAFT_DESCRIPTION_EMPTY":     "Eleza kazi inayohitajika.",
		"error.DRAFT_DESCRIPTION_TOO_SHORT": "Maelezo yako yanahitaji angalau herufi 25.",
		"error.BUDGET_REQUIRED":             "Andika bajeti yako.",
		"error.BUDGET_NOT_A_NUMBER":         "Bajeti lazima iwe nambari.",
		"error.BUDGET_NEGATIVE":             "Bajeti haiwezi kuwa hasi.",
		"error.BUDGET_TOO_LARGE":            "Bajeti ni kubwa mno.",
		"error.WIZARD_STEP_BLOCKED":         "Tafadhali subiri picha zako zimalize kupakiwa.",
		"error.WIZARD_NOT_AT_REVIEW":        "Kagua kazi yako kabla ya kuichapisha.",
		"error.WIZARD_SESSION_CLOSED":       "Rasimu hii ya kazi haitumiki tena.",
		"error.ATTACHMENT_NOT_FOUND":        "Picha hiyo haijaambatishwa tena.",
		"error.ATTACHMENT_UPLOAD_FAILED":    "Picha hii haikuweza kupakiwa.",
		"error.DRAFT_INCOMPLETE":            "Hitilafu imetokea. Rasimu yako iko salama, jaribu tena.",
		"error.SUBMISSION_FAILED":           "Hatukuweza kuchapisha kazi yako. Jaribu tena.",
		"error.UNKNOWN":                     "Hitilafu imetokea. Jaribu tena.",
	},
}

func register() {
	for locale, byKey := range messages {
		tag := language.MustParse(locale)
		for key, text := range byKey {
			if err := message.SetString(tag, key, text); err != nil {
				panic(err)
			}
		}
	}
}

// Printer returns a message printer for the requested locale, falling back
// to the base locale for unknown or empty locales.
func Printer(locale string) *message.Printer {
	registerOnce.Do(register)

	requested := strings.TrimSpace(locale)
	if requested == "" {
		requested = BaseLocale
	}
	tag, err := language.Parse(requested)
	if err != nil {
		tag = language.MustParse(BaseLocale)
	}
	if _, ok := messages[tag.String()]; !ok {
		tag = language.MustParse(BaseLocale)
	}
	return message.NewPrinter(tag)
}

// ErrorMessage renders the user-facing message for a domain error code.
// Unknown codes fall back to the generic message.
func ErrorMessage(p *message.Printer, code apperrors.Code) string {
	if p == nil {
		p = Printer(BaseLocale)
	}
	key := "error." + string(code)
	if _, known := messages[BaseLocale][key]; !known {
		key = "error.UNKNOWN"
	}
	return p.Sprintf(key)
}
