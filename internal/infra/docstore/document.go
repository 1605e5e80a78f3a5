package docstore

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/xavierca1/beauty-leads/internal/entity"
)

type entryDoc struct {
	Date    string `bson:"date"`
	Text    string `bson:"text"`
	Skipped bool   `bson:"skipped"`
}

type leadDoc struct {
	ID                bson.ObjectID `bson:"_id,omitempty"`
	FullName          string        `bson:"fullName"`
	Source            string        `bson:"source"`
	Status            string        `bson:"status"`
	InquiryType       string        `bson:"inquiryType"`
	Closed            bool          `bson:"closed"`
	AdvancePayment    bool          `bson:"advancePayment"`
	AdditionalDetails string        `bson:"additionalDetails"`
	ImportantNotes    string        `bson:"importantNotes"`
	Descriptions      []entryDoc    `bson:"descriptions"`
	CreatedAt         time.Time     `bson:"createdAt"`
	UpdatedAt         time.Time     `bson:"updatedAt"`
}

func toDoc(l *entity.Lead) leadDoc {
	entries := make([]entryDoc, 0, len(l.Descriptions))
	for _, e := range l.Descriptions {
		entries = append(entries, entryDoc{Date: e.Date, Text: e.Text, Skipped: e.Skipped})
	}
	return leadDoc{
		FullName:          l.FullName,
		Source:            string(l.Source),
		Status:            string(l.Status),
		InquiryType:       string(l.InquiryType),
		Closed:            l.Closed,
		AdvancePayment:    l.AdvancePayment,
		AdditionalDetails: l.AdditionalDetails,
		ImportantNotes:    l.ImportantNotes,
		Descriptions:      entries,
		CreatedAt:         l.CreatedAt.UTC(),
		UpdatedAt:         l.UpdatedAt.UTC(),
	}
}

func (d leadDoc) toEntity() entity.Lead {
	timeline := make(entity.Timeline, 0, len(d.Descriptions))
	for _, e := range d.Descriptions {
		timeline = append(timeline, entity.DescriptionEntry{Date: e.Date, Text: e.Text, Skipped: e.Skipped})
	}
	return entity.Lead{
		ID: d.ID.Hex(),
		LeadFormData: entity.LeadFormData{
			FullName:          d.FullName,
			Source:            entity.Source(d.Source),
			Status:            entity.Status(d.Status),
			InquiryType:       entity.InquiryType(d.InquiryType),
			Closed:            d.Closed,
			AdvancePayment:    d.AdvancePayment,
			AdditionalDetails: d.AdditionalDetails,
			ImportantNotes:    d.ImportantNotes,
			Descriptions:      timeline,
		},
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}
