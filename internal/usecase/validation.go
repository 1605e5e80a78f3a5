package usecase

import (
	"fmt"
	"net/url"

	"github.com/xavierca1/beauty-leads/internal/entity"
)

type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ParseFilterState reads the facets from query parameters. Missing
// parameters mean All.
func ParseFilterState(q url.Values) (FilterState, []ValidationError) {
	var errors []ValidationError
	f := ClearAll()

	if v := q.Get("status"); !isAll(v) {
		s, err := entity.ParseStatus(v)
		if err != nil {
			errors = append(errors, ValidationError{"status", "is not a known status"})
		}
		f.Status = s
	}

	if v := q.Get("source"); !isAll(v) {
		s, err := entity.ParseSource(v)
		if err != nil {
			errors = append(errors, ValidationError{"source", "is not a known source"})
		}
		f.Source = s
	}

	if v := q.Get("inquiry"); !isAll(v) {
		it, err := entity.ParseInquiryType(v)
		if err != nil {
			errors = append(errors, ValidationError{"inquiry", "is not a known inquiry type"})
		}
		f.Inquiry = it
	}

	switch v := ClosedFacet(q.Get("closed")); v {
	case "", ClosedAny, ClosedOpen, ClosedOnly:
		if v != "" {
			f.Closed = v
		}
	default:
		errors = append(errors, ValidationError{"closed", "must be one of הכל, פתוח, סגור"})
	}

	switch v := PaidFacet(q.Get("paid")); v {
	case "", PaidAny, PaidOnly, UnpaidOnly:
		if v != "" {
			f.Paid = v
		}
	default:
		errors = append(errors, ValidationError{"paid", "must be one of הכל, שולם, לא שולם"})
	}

	f.Search = q.Get("q")

	return f, errors
}
