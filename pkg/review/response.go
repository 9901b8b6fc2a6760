package review

import (
	"net/http"

	apperrors "github.com/Coder-Joe458/ios-review-checker/internal/errors"
	"github.com/Coder-Joe458/ios-review-checker/pkg/models"
)

// Response is the success/failure envelope returned to callers
type Response struct {
	Success bool `json:"success"`

	*models.CheckResult
	Structure *models.ArchiveInventory `json:"structure,omitempty"`

	Error       string   `json:"error,omitempty"`
	Code        string   `json:"code,omitempty"`
	Type        string   `json:"type,omitempty"`
	Status      int      `json:"status,omitempty"`
	Suggestions []string `json:"suggestions,omitempty"`
}

// Succeeded wraps a check result
func Succeeded(result *models.CheckResult) *Response {
	return &Response{Success: true, CheckResult: result}
}

// StructureSucceeded wraps an archive inventory
func StructureSucceeded(inv *models.ArchiveInventory) *Response {
	return &Response{Success: true, Structure: inv}
}

// Failed wraps an error. Errors outside the taxonomy are reported as internal.
func Failed(err error) *Response {
	checkErr := apperrors.From(err)
	if checkErr == nil {
		checkErr = apperrors.NewInternalError(apperrors.CodeUnknown, "unknown failure")
	}
	return &Response{
		Success:     false,
		Error:       checkErr.Error(),
		Code:        checkErr.Code,
		Type:        checkErr.Type.String(),
		Status:      checkErr.Status(),
		Suggestions: checkErr.Suggestions,
	}
}

// IsClientError reports whether a failed response is the caller's fault
func (r *Response) IsClientError() bool {
	return !r.Success && r.Status >= http.StatusBadRequest && r.Status < http.StatusInternalServerError
}
