package domain

import (
	"errors"
	"testing"
)

func TestValidateCoordinate(t *testing.T) {
	cases := []struct {
		name string
		c    Coordinate
		want error
	}{
		{"valid", Coordinate{Lat: 40.75, Lng: -73.99}, nil},
		{"lat edge", Coordinate{Lat: 90, Lng: 180}, nil},
		{"lat high", Coordinate{Lat: 90.1, Lng: 0}, ErrInvalidLatitude},
		{"lat low", Coordinate{Lat: -91, Lng: 0}, ErrInvalidLatitude},
		{"lng high", Coordinate{Lat: 0, Lng: 180.5}, ErrInvalidLongitude},
		{"lng low", Coordinate{Lat: 0, Lng: -181}, ErrInvalidLongitude},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateCoordinate(tc.c)
			if tc.want == nil {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tc.want) {
				t.Fatalf("got %v, want %v", err, tc.want)
			}
		})
	}
}

func TestValidateSubmission(t *testing.T) {
	ok := Submission{Lat: 40.75, Lng: -73.99, Description: "dark corner, avoid at night"}
	if err := ValidateSubmission(ok); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	empty := Submission{Lat: 40.75, Lng: -73.99, Description: "   "}
	if err := ValidateSubmission(empty); !errors.Is(err, ErrEmptyText) {
		t.Fatalf("got %v, want ErrEmptyText", err)
	}

	badCat := Submission{Lat: 40.75, Lng: -73.99, Description: "x marks the spot", Category: "gossip"}
	if err := ValidateSubmission(badCat); !errors.Is(err, ErrInvalidCategory) {
		t.Fatalf("got %v, want ErrInvalidCategory", err)
	}

	badCoord := Submission{Lat: 95, Lng: 0, Description: "nope"}
	if err := ValidateSubmission(badCoord); !errors.Is(err, ErrInvalidLatitude) {
		t.Fatalf("got %v, want ErrInvalidLatitude", err)
	}
}

func TestValidateReport(t *testing.T) {
	emb := make([]float32, VectorDims)
	good := Report{
		ID:        "r1",
		Text:      "Crime Report: petit larceny",
		Category:  CategoryCrime,
		Location:  Coordinate{Lat: 40.75, Lng: -73.99},
		Embedding: emb,
	}
	if err := ValidateReport(good); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	noID := good
	noID.ID = ""
	if err := ValidateReport(noID); !errors.Is(err, ErrMissingID) {
		t.Fatalf("got %v, want ErrMissingID", err)
	}

	shortVec := good
	shortVec.Embedding = make([]float32, 8)
	if err := ValidateReport(shortVec); !errors.Is(err, ErrBadEmbedding) {
		t.Fatalf("got %v, want ErrBadEmbedding", err)
	}
}

func TestClampCoordinate(t *testing.T) {
	c := ClampCoordinate(Coordinate{Lat: 123, Lng: -500})
	if c.Lat != 90 || c.Lng != -180 {
		t.Fatalf("got %+v", c)
	}
	in := Coordinate{Lat: 40.75, Lng: -73.99}
	if out := ClampCoordinate(in); out != in {
		t.Fatalf("valid coordinate changed: %+v", out)
	}
}

func TestValidationErrorUnwrap(t *testing.T) {
	err := NewValidationError("lat", "999", ErrInvalidLatitude)
	if !errors.Is(err, ErrInvalidLatitude) {
		t.Fatal("expected unwrap to ErrInvalidLatitude")
	}
	if err.Error() == "" {
		t.Fatal("expected message")
	}
}
