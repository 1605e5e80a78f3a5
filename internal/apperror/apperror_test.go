package apperror

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xavierca1/beauty-leads/internal/entity"
)

type sample struct {
	Name    string `json:"fullName" validate:"max=5"`
	Source  string `json:"source" validate:"required,lead_source"`
	Status  string `json:"status" validate:"lead_status"`
	Inquiry string `json:"inquiryType" validate:"lead_inquiry"`
}

func TestValidatorAcceptsKnownValues(t *testing.T) {
	v := NewValidator()
	err := v.Struct(sample{
		Name:    "Noa",
		Source:  string(entity.SourceInstagram),
		Status:  string(entity.StatusNew),
		Inquiry: string(entity.InquiryBridalFull),
	})
	assert.NoError(t, err)
}

func TestValidatorMapsFieldErrors(t *testing.T) {
	v := NewValidator()
	err := v.Struct(sample{
		Name:    "much too long",
		Status:  "archived",
		Inquiry: "haircut",
	})
	require.Error(t, err)

	got := map[string]string{}
	for _, m := range CustomValidationError(err) {
		for k, val := range m {
			got[k] = val
		}
	}
	assert.Equal(t, map[string]string{
		"fullName":    errTooLong.Error(),
		"source":      errRequired.Error(),
		"status":      errInvalidStatus.Error(),
		"inquiryType": errInvalidInquiry.Error(),
	}, got)
}

func TestCustomValidationErrorJSON(t *testing.T) {
	var dst sample
	err := json.NewDecoder(strings.NewReader(`{"fullName":`)).Decode(&dst)
	require.Error(t, err)
	assert.Len(t, CustomValidationError(err), 1)

	var typed struct {
		Closed bool `json:"closed"`
	}
	err = json.Unmarshal([]byte(`{"closed":"yes"}`), &typed)
	require.Error(t, err)
	assert.Equal(t, []map[string]string{{"closed": "must be bool"}}, CustomValidationError(err))

	assert.Empty(t, CustomValidationError(nil))
	assert.Len(t, CustomValidationError(errors.New("x")), 1)
}
