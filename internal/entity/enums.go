package entity

import "fmt"

// Source is the inbound channel a lead arrived from.
type Source string

const (
	SourceInstagram Source = "אינסטגרם"
	SourceTikTok    Source = "טיקטוק"
	SourceFacebook  Source = "פייסבוק"
	SourceEmail     Source = "אימייל"
	SourcePhone     Source = "טלפון"
)

// Sources lists every source in display order.
func Sources() []Source {
	return []Source{SourceInstagram, SourceTikTok, SourceFacebook, SourceEmail, SourcePhone}
}

func (s Source) String() string { return string(s) }

func (s Source) Valid() bool {
	return s.Slug() != ""
}

// Slug is the ASCII key used for icons. Empty for unknown values.
func (s Source) Slug() string {
	switch s {
	case SourceInstagram:
		return "instagram"
	case SourceTikTok:
		return "tiktok"
	case SourceFacebook:
		return "facebook"
	case SourceEmail:
		return "email"
	case SourcePhone:
		return "phone"
	}
	return ""
}

func ParseSource(v string) (Source, error) {
	s := Source(v)
	if !s.Valid() {
		return "", fmt.Errorf("%w: source %q", ErrUnknownValue, v)
	}
	return s, nil
}

// Status is the pipeline stage. Any stage may follow any other.
type Status string

const (
	StatusNew             Status = "חדש"
	StatusInitialResponse Status = "מענה ראשוני"
	StatusFollowUp        Status = "פולואפ"
	StatusClosed          Status = "נסגר"
)

// Statuses lists every status in pipeline order.
func Statuses() []Status {
	return []Status{StatusNew, StatusInitialResponse, StatusFollowUp, StatusClosed}
}

func (s Status) String() string { return string(s) }

func (s Status) Valid() bool {
	return s.Slug() != ""
}

// Slug is the ASCII key used for badge colors. Empty for unknown values.
func (s Status) Slug() string {
	switch s {
	case StatusNew:
		return "new"
	case StatusInitialResponse:
		return "initial"
	case StatusFollowUp:
		return "followup"
	case StatusClosed:
		return "closed"
	}
	return ""
}

func ParseStatus(v string) (Status, error) {
	s := Status(v)
	if !s.Valid() {
		return "", fmt.Errorf("%w: status %q", ErrUnknownValue, v)
	}
	return s, nil
}

// InquiryType is the service category the client asked about.
type InquiryType string

const (
	InquiryEveningMakeup     InquiryType = "איפור ערב"
	InquiryEveningHair       InquiryType = "שיער ערב"
	InquiryEveningMakeupHair InquiryType = "איפור + שיער ערב"
	InquiryBridalPartial     InquiryType = "כלה חלקי"
	InquiryBridalFull        InquiryType = "כלה מלא"
)

// InquiryTypes lists every inquiry type in display order.
func InquiryTypes() []InquiryType {
	return []InquiryType{
		InquiryEveningMakeup,
		InquiryEveningHair,
		InquiryEveningMakeupHair,
		InquiryBridalPartial,
		InquiryBridalFull,
	}
}

func (t InquiryType) String() string { return string(t) }

func (t InquiryType) Valid() bool {
	return t.Slug() != ""
}

func (t InquiryType) Slug() string {
	switch t {
	case InquiryEveningMakeup:
		return "evening-makeup"
	case InquiryEveningHair:
		return "evening-hair"
	case InquiryEveningMakeupHair:
		return "evening-makeup-hair"
	case InquiryBridalPartial:
		return "bridal-partial"
	case InquiryBridalFull:
		return "bridal-full"
	}
	return ""
}

func ParseInquiryType(v string) (InquiryType, error) {
	t := InquiryType(v)
	if !t.Valid() {
		return "", fmt.Errorf("%w: inquiry type %q", ErrUnknownValue, v)
	}
	return t, nil
}
