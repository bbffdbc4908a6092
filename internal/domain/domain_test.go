package domain

import (
	"encoding/json"
	"math"
	"strings"
	"testing"
)

func TestNewPagination(t *testing.T) {
	cases := []struct {
		total int64
		limit int
		pages int64
	}{
		{0, 20, 0},
		{1, 20, 1},
		{20, 20, 1},
		{21, 20, 2},
		{101, 10, 11},
	}
	for _, c := range cases {
		got := NewPagination(NewPage(1, c.limit), c.total)
		if got.Pages != c.pages {
			t.Errorf("total=%d limit=%d pages=%d want %d", c.total, c.limit, got.Pages, c.pages)
		}
	}
}

func TestNewPageClamps(t *testing.T) {
	p := NewPage(0, 500)
	if p.Page != 1 || p.Limit != MaxLimit {
		t.Fatalf("got %+v", p)
	}
	if NewPage(3, 0).Limit != DefaultLimit {
		t.Fatal("default limit not applied")
	}
	if NewPage(3, 10).Offset() != 20 {
		t.Fatal("offset")
	}
}

func TestDistanceKm(t *testing.T) {
	paris := GeoPoint{Lng: 2.3522, Lat: 48.8566}
	london := GeoPoint{Lng: -0.1276, Lat: 51.5072}
	d := DistanceKm(paris, london)
	if math.Abs(d-343.5) > 2 {
		t.Fatalf("paris-london = %.1f km", d)
	}
	if DistanceKm(paris, paris) != 0 {
		t.Fatal("self distance")
	}
}

func TestLocationJSON(t *testing.T) {
	var l Location
	if err := json.Unmarshal([]byte(`{"address":"1 Main St","coordinates":{"type":"Point","coordinates":[-73.9,40.7]}}`), &l); err != nil {
		t.Fatal(err)
	}
	p := l.Point()
	if p == nil || p.Lng != -73.9 || p.Lat != 40.7 {
		t.Fatalf("point = %+v", p)
	}

	if err := json.Unmarshal([]byte(`{"address":"a","coordinates":[10,20]}`), &l); err != nil {
		t.Fatal(err)
	}
	if l.Point().Lat != 20 {
		t.Fatalf("bare array not accepted: %+v", l.Point())
	}

	for _, in := range []string{`{"address":"a"}`, `{"address":"a","coordinates":null}`, `{"address":"a","coordinates":{"type":"Point"}}`} {
		if err := json.Unmarshal([]byte(in), &l); err != nil {
			t.Fatalf("%s: %v", in, err)
		}
		if l.Point() != nil {
			t.Fatalf("%s: expected no point", in)
		}
	}

	for _, in := range []string{`{"address":"a","coordinates":[1]}`, `{"address":"a","coordinates":["x","y"]}`, `{"address":"a","coordinates":{"coordinates":[1,2,3]}}`} {
		if err := json.Unmarshal([]byte(in), &l); err == nil {
			t.Fatalf("%s: expected error", in)
		}
	}

	l.SetPoint(&GeoPoint{Lng: 1.5, Lat: 2.5})
	b, _ := json.Marshal(l)
	if !strings.Contains(string(b), `"coordinates":{"type":"Point","coordinates":[1.5,2.5]}`) {
		t.Fatalf("marshal = %s", b)
	}
}

func TestPetJSONHidesOwnerSecrets(t *testing.T) {
	p := Pet{ID: "p1", Owner: &User{ID: "u1", Name: "Ann", Email: "ann@example.com", PasswordHash: "hash", Role: RoleAdmin}}
	b, err := json.Marshal(p)
	if err != nil {
		t.Fatal(err)
	}
	s := string(b)
	if strings.Contains(s, "hash") || strings.Contains(s, `"role"`) {
		t.Fatalf("owner leaked: %s", s)
	}
	if !strings.Contains(s, `"owner":{"id":"u1","name":"Ann","email":"ann@example.com"}`) {
		t.Fatalf("owner contact missing: %s", s)
	}
}

func TestPriorityRank(t *testing.T) {
	if !(PriorityUrgent.Rank() > PriorityHigh.Rank() && PriorityHigh.Rank() > PriorityMedium.Rank() && PriorityMedium.Rank() > PriorityLow.Rank()) {
		t.Fatal("rank order")
	}
	if ReportPriority("nope").Valid() {
		t.Fatal("unknown priority valid")
	}
}
