package handler

import (
	"strings"
	"testing"

	"lostfound/internal/core/errs"
)

func values(m map[string]string) formValues {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

func TestParsePetInputNestedJSON(t *testing.T) {
	in, err := parsePetInput(values(map[string]string{
		"name":             "Rex",
		"age":              "3",
		"lastSeenDate":     "2024-03-01",
		"lastSeenLocation": `{"address":"1 Main St","coordinates":[-73.9,40.7]}`,
		"collar":           `{"hasCollar":true,"color":"red"}`,
		"tags":             `["shy"]`,
		"existingPhotos":   `["https://cdn.test/a.jpg"]`,
		"isActive":         "false",
	}))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if *in.Name != "Rex" || *in.Age != 3 || in.LastSeenDate.Day() != 1 {
		t.Fatalf("scalars = %+v", in)
	}
	if p := in.Location.Point(); p == nil || p.Lng != -73.9 {
		t.Fatalf("point = %+v", p)
	}
	if !in.Collar.HasCollar || in.Collar.Color != "red" {
		t.Fatalf("collar = %+v", in.Collar)
	}
	if len(*in.Tags) != 1 || len(*in.RetainedPhotos) != 1 || *in.IsActive {
		t.Fatalf("lists = %+v", in)
	}
	if in.Type != nil || in.Breed != nil {
		t.Fatal("absent fields must stay nil")
	}
}

func TestParsePetInputLenientFields(t *testing.T) {
	in, err := parsePetInput(values(map[string]string{
		"tags":   "a,b",
		"photos": "[]",
	}))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(*in.Tags) != 2 {
		t.Fatalf("tags = %v", *in.Tags)
	}
	if in.RetainedPhotos == nil || len(*in.RetainedPhotos) != 0 {
		t.Fatal("an empty retained list must drop every photo")
	}
}

func TestParsePetInputErrors(t *testing.T) {
	_, err := parsePetInput(values(map[string]string{"lastSeenLocation": "nope"}))
	if e := errs.As(err); e.Code != 400 || e.Msg != "Invalid location data format" {
		t.Fatalf("location err = %+v", e)
	}

	_, err = parsePetInput(values(map[string]string{
		"age":              "old",
		"lastSeenDate":     "yesterday",
		"lastSeenLocation": `{"address":"x","coordinates":[1]}`,
	}))
	e := errs.As(err)
	if e.Code != 400 || len(e.Fields) != 3 {
		t.Fatalf("fields = %+v", e.Fields)
	}
	if !strings.Contains(e.Fields["age"], "number") {
		t.Fatalf("age msg = %q", e.Fields["age"])
	}

	in, err := parsePetInput(values(map[string]string{"collar": "{broken"}))
	if e := errs.As(err); e.Code != 400 || e.Fields["collar"] == "" {
		t.Fatalf("collar err = %+v", e)
	}
	if in.Collar != nil {
		t.Fatalf("malformed collar was kept: %+v", in.Collar)
	}
}
