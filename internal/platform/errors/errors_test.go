package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"
)

func TestErrorIsMatchesByCode(t *testing.T) {
	err := New(CodeDraftTitleEmpty, "title is empty")
	target := New(CodeDraftTitleEmpty, "different message")

	if !stderrors.Is(err, target) {
		t.Fatal("expected errors with the same code to match")
	}
}

func TestErrorIsRejectsDifferentCode(t *testing.T) {
	err := New(CodeDraftTitleEmpty, "title is empty")
	target := New(CodeBudgetNegative, "budget is negative")

	if stderrors.Is(err, target) {
		t.Fatal("expected errors with different codes not to match")
	}
}

func TestWrapPreservesCause(t *testing.T) {
	cause := fmt.Errorf("connection refused")
	err := Wrap(CodeSubmissionFailed, "publish task", cause)

	if !stderrors.Is(err, cause) {
		t.Fatal("expected wrapped cause to be found in chain")
	}
	if err.Error() != "publish task" {
		t.Fatalf("Error() = %q, want %q", err.Error(), "publish task")
	}
}

func TestGetCode(t *testing.T) {
	if got := GetCode(New(CodeBudgetRequired, "budget is required")); got != CodeBudgetRequired {
		t.Fatalf("GetCode = %v, want %v", got, CodeBudgetRequired)
	}
	wrapped := fmt.Errorf("outer: %w", New(CodeDraftIncomplete, "draft incomplete"))
	if got := GetCode(wrapped); got != CodeDraftIncomplete {
		t.Fatalf("GetCode = %v, want %v", got, CodeDraftIncomplete)
	}
	if got := GetCode(fmt.Errorf("plain")); got != CodeUnknown {
		t.Fatalf("GetCode = %v, want %v", got, CodeUnknown)
	}
}

func TestHTTPStatusMapping(t *testing.T) {
	testCases := []struct {
		code Code
		want int
	}{
		{CodeDraftTitleEmpty, http.StatusUnprocessableEntity},
		{CodeBudgetNotANumber, http.StatusUnprocessableEntity},
		{CodeWizardNotAtReview, http.StatusConflict},
		{CodeWizardSessionClosed, http.StatusGone},
		{CodeAttachmentNotFound, http.StatusNotFound},
		{CodeSubmissionFailed, http.StatusBadGateway},
		{CodeDraftIncomplete, http.StatusInternalServerError},
		{CodeUnknown, http.StatusInternalServerError},
	}
	for _, tc := range testCases {
		t.Run(string(tc.code), func(t *testing.T) {
			if got := tc.code.HTTPStatus(); got != tc.want {
				t.Fatalf("HTTPStatus = %d, want %d", got, tc.want)
			}
		})
	}
}
