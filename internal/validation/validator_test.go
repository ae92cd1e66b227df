package validation

import "testing"

type sample struct {
	Date     string `validate:"required,date"`
	Duration int    `validate:"required,slotminutes"`
}

func TestCustomTags(t *testing.T) {
	v := New()
	if err := v.Struct(sample{Date: "2026-02-04", Duration: 15}); err != nil {
		t.Fatalf("expected valid sample, got %v", err)
	}

	err := v.Struct(sample{Date: "04/02/2026", Duration: 10})
	errs := v.ValidationErrors(err)
	if len(errs) != 2 {
		t.Fatalf("expected 2 validation errors, got %v", err)
	}
	tags := map[string]string{}
	for _, e := range errs {
		tags[e.Field()] = e.Tag()
	}
	if tags["Date"] != "date" || tags["Duration"] != "slotminutes" {
		t.Fatalf("unexpected tags: %v", tags)
	}
}

type tagged struct {
	ConsultantID string `json:"consultant_id,omitempty" validate:"required"`
}

func TestFieldsUseJSONNames(t *testing.T) {
	errs := New().ValidationErrors(New().Struct(tagged{}))
	if len(errs) != 1 || errs[0].Field() != "consultant_id" {
		t.Fatalf("expected consultant_id field, got %v", errs)
	}
}
