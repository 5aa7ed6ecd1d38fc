package model

import (
	"errors"
	"reflect"
	"testing"
)

func TestParseLocationQuery(t *testing.T) {
	tests := []struct {
		in      string
		want    LocationQuery
		wantErr bool
	}{
		{in: "50km@52.5200,13.4050", want: LocationQuery{RadiusKm: 50, Lat: 52.52, Lon: 13.405}},
		{in: " 12.5KM@-33.86, 151.2 ", want: LocationQuery{RadiusKm: 12.5, Lat: -33.86, Lon: 151.2}},
		{in: "", wantErr: true},
		{in: "52.52,13.405", wantErr: true},
		{in: "km@52.52,13.405", wantErr: true},
		{in: "-5km@52.52,13.405", wantErr: true},
		{in: "50km@52.52", wantErr: true},
		{in: "50km@95,13.4", wantErr: true},
		{in: "50km@52.5,200", wantErr: true},
		{in: "50km@abc,13.4", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLocationQuery(tt.in)
			if tt.wantErr {
				if !errors.Is(err, ErrValidation) {
					t.Fatalf("expected ErrValidation, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestLocationQueryString(t *testing.T) {
	q := LocationQuery{RadiusKm: 50, Lat: 52.52, Lon: 13.405}
	if s := q.String(); s != "50km@52.52,13.405" {
		t.Errorf("String() = %q", s)
	}
	back, err := ParseLocationQuery(q.String())
	if err != nil || back != q {
		t.Errorf("round trip = %+v, %v", back, err)
	}
}

func TestSplitCategories(t *testing.T) {
	got := SplitCategories(" Concerts,festivals,,concerts , sports")
	want := []string{"concerts", "festivals", "sports"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
	if got := SplitCategories(""); len(got) != 0 {
		t.Errorf("expected empty list, got %v", got)
	}
}

func TestCategoryLabel(t *testing.T) {
	if l := CategoryLabel("performing-arts"); l != "Performing Arts" {
		t.Errorf("label = %q", l)
	}
	if l := CategoryLabel("unknown"); l != "unknown" {
		t.Errorf("label = %q", l)
	}
}
