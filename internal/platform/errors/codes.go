// Package errors provides structured error handling with machine-readable codes.
package errors

import "net/http"

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// Draft validation errors
	CodeDraftTitleEmpty          Code = "DRAFT_TITLE_EMPTY"
	CodeDraftDateMissing         Code = "DRAFT_DATE_MISSING"
	CodeDraftDateInPast          Code = "DRAFT_DATE_IN_PAST"
	CodeDraftAddressEmpty        Code = "DRAFT_ADDRESS_EMPTY"
	CodeDraftDescriptionEmpty    Code = "DRAFT_DESCRIPTION_EMPTY"
	CodeDraftDescriptionTooShort Code = "DRAFT_DESCRIPTION_TOO_SHORT"
	CodeBudgetRequired           Code = "BUDGET_REQUIRED"
	CodeBudgetNotANumber         Code = "BUDGET_NOT_A_NUMBER"
	CodeBudgetNegative           Code = "BUDGET_NEGATIVE"
	CodeBudgetTooLarge           Code = "BUDGET_TOO_LARGE"

	// Wizard errors
	CodeWizardStepBlocked   Code = "WIZARD_STEP_BLOCKED"
	CodeWizardNotAtReview   Code = "WIZARD_NOT_AT_REVIEW"
	CodeWizardSessionClosed Code = "WIZARD_SESSION_CLOSED"

	// Attachment errors
	CodeAttachmentNotFound Code = "ATTACHMENT_NOT_FOUND"
	CodeAttachmentUpload   Code = "ATTACHMENT_UPLOAD_FAILED"

	// Submission errors
	CodeDraftIncomplete  Code = "DRAFT_INCOMPLETE"
	CodeSubmissionFailed Code = "SUBMISSION_FAILED"
)

// HTTPStatus maps an error code to the HTTP status the web layer should
// respond with. Validation codes map to 422 so that form handlers can
// distinguish field errors from malformed requests.
func (c Code) HTTPStatus() int {
	switch c {
	case CodeDraftTitleEmpty,
		CodeDraftDateMissing,
		CodeDraftDateInPast,
		CodeDraftAddressEmpty,
		CodeDraftDescriptionEmpty,
		CodeDraftDescriptionTooShort,
		CodeBudgetRequired,
		CodeBudgetNotANumber,
		CodeBudgetNegative,
		CodeBudgetTooLarge:
		return http.StatusUnprocessableEntity
	case CodeWizardStepBlocked, CodeWizardNotAtReview:
		return http.StatusConflict
	case CodeWizardSessionClosed:
		return http.StatusGone
	case CodeAttachmentNotFound:
		return http.StatusNotFound
	case CodeAttachmentUpload, CodeSubmissionFailed:
		return http.StatusBadGateway
	case CodeDraftIncomplete:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}
