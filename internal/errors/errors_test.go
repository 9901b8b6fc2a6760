package errors

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"testing"
)

func TestStatusByType(t *testing.T) {
	cases := []struct {
		err    *CheckError
		status int
	}{
		{NewValidationError(CodeEmptyUpload, "empty"), http.StatusBadRequest},
		{NewArchiveError(CodeNotAnArchive, "bad signature"), http.StatusBadRequest},
		{NewBundleError(CodePayloadNotFound, "no payload"), http.StatusBadRequest},
		{NewDecodeError(CodeDecodeFailed, "garbage"), http.StatusBadRequest},
		{NewInternalError(CodeIOFailure, "disk full"), http.StatusInternalServerError},
		{NewError(ErrorTypeUnknown, CodeUnknown, "?"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		if got := tc.err.Status(); got != tc.status {
			t.Errorf("%s/%s: status = %d, want %d", tc.err.Type, tc.err.Code, got, tc.status)
		}
	}
}

func TestIsMatchesSentinelThroughWrapping(t *testing.T) {
	err := WrapError(fmt.Errorf("zip: not a valid zip file"), ErrorTypeArchive, CodeExtractionFailed, "cannot read archive")
	wrapped := fmt.Errorf("inspect: %w", err)

	if !stderrors.Is(wrapped, ErrExtractionFailed) {
		t.Fatalf("expected wrapped error to match ErrExtractionFailed")
	}
	if stderrors.Is(wrapped, ErrNotAnArchive) {
		t.Fatalf("did not expect match with ErrNotAnArchive")
	}
	if !IsDegradable(wrapped) {
		t.Fatalf("archive errors should be degradable")
	}
}

func TestFromForeignErrors(t *testing.T) {
	if got := From(context.Canceled); got.Code != CodeCanceled || got.Type != ErrorTypeInternal {
		t.Fatalf("context.Canceled mapped to %s/%s", got.Type, got.Code)
	}
	if got := From(fmt.Errorf("boom")); got.Code != CodeUnknown || got.Status() != http.StatusInternalServerError {
		t.Fatalf("foreign error mapped to %s/%s", got.Type, got.Code)
	}
	if From(nil) != nil {
		t.Fatalf("From(nil) should be nil")
	}
}

func TestFormatDetailed(t *testing.T) {
	err := NewBundleError(CodeMetadataNotFound, "Info.plist not found").
		WithContext("bundle", "Payload/Demo.app")
	out := err.FormatDetailed()
	for _, want := range []string{"BUNDLE Error [METADATA_NOT_FOUND]", "bundle: Payload/Demo.app", "Suggestions"} {
		if !strings.Contains(out, want) {
			t.Errorf("FormatDetailed() missing %q in:\n%s", want, out)
		}
	}
}

func TestWrappedErrorsCarrySuggestions(t *testing.T) {
	for _, errorType := range []ErrorType{ErrorTypeValidation, ErrorTypeArchive, ErrorTypeBundle, ErrorTypeDecode, ErrorTypeInternal} {
		err := WrapError(fmt.Errorf("cause"), errorType, CodeUnknown, "failed")
		if len(err.Suggestions) == 0 {
			t.Errorf("%s: no suggestions", errorType)
		}
	}

	// Suggestions added to one error must not leak into the shared defaults
	first := NewValidationError(CodeInvalidForm, "bad form").WithSuggestion("extra")
	second := NewValidationError(CodeInvalidForm, "bad form")
	if len(first.Suggestions) != len(second.Suggestions)+1 {
		t.Fatalf("suggestions shared between errors: %v / %v", first.Suggestions, second.Suggestions)
	}
	if !strings.Contains(first.FormatDetailed(), "extra") {
		t.Fatalf("FormatDetailed() missing added suggestion:\n%s", first.FormatDetailed())
	}
}

func TestErrorHandlerConcurrentStats(t *testing.T) {
	handler := NewErrorHandler(nil)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%2 == 0 {
				handler.Handle(NewArchiveError(CodeNotAnArchive, "bad"))
			} else {
				handler.Handle(fmt.Errorf("plain"))
			}
		}(i)
	}
	wg.Wait()

	stats := handler.GetStats()
	if stats.TotalErrors != 20 {
		t.Fatalf("TotalErrors = %d, want 20", stats.TotalErrors)
	}
	if stats.ErrorsByCode[CodeNotAnArchive] != 10 || stats.ErrorsByCode[CodeUnknown] != 10 {
		t.Fatalf("unexpected code stats: %v", stats.ErrorsByCode)
	}
	if stats.ErrorsByType["ARCHIVE"] != 10 {
		t.Fatalf("unexpected type stats: %v", stats.ErrorsByType)
	}

	handler.Reset()
	if handler.GetStats().TotalErrors != 0 {
		t.Fatalf("Reset did not clear stats")
	}
}
