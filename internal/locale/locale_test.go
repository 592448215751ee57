package locale

import (
	"math"
	"testing"
	"time"

	"golang.org/x/text/language"
)

func TestZeroSelectorIsBR(t *testing.T) {
	var s Selector
	if s != BR {
		t.Errorf("zero Selector = %v, want BR", s)
	}
	if Resolve(s).Tag != Resolve(BR).Tag {
		t.Error("zero Selector resolves to a different bundle than BR")
	}
}

func TestResolveStable(t *testing.T) {
	for _, s := range []Selector{US, BR} {
		first := Resolve(s)
		for i := 0; i < 3; i++ {
			got := Resolve(s)
			if got.Selector != first.Selector || got.Tag != first.Tag ||
				got.Location != first.Location || got.Labels != first.Labels {
				t.Fatalf("Resolve(%v) changed between calls", s)
			}
		}
		if first.Selector != s {
			t.Errorf("Resolve(%v).Selector = %v", s, first.Selector)
		}
	}
	if Resolve(US).Labels.Title == Resolve(BR).Labels.Title {
		t.Error("US and BR share a title")
	}
}

func TestToggle(t *testing.T) {
	if US.Toggle() != BR || BR.Toggle() != US {
		t.Error("Toggle does not swap US and BR")
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		in      string
		want    Selector
		wantErr bool
	}{
		{"us", US, false},
		{"US", US, false},
		{" br ", BR, false},
		{"Br", BR, false},
		{"fr", BR, true},
		{"", BR, true},
	}
	for _, tt := range tests {
		got, err := Parse(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("Parse(%q) err = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if !tt.wantErr && got != tt.want {
			t.Errorf("Parse(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestReassignedSelectorsDoNotLeak(t *testing.T) {
	savedUS, savedBR := US, BR
	defer func() { US, BR = savedUS, savedBR }()
	US, BR = BR, US

	got, err := Parse("us")
	if err != nil || got != (Selector{us: true}) {
		t.Errorf("Parse(us) = %v, %v after reassignment", got, err)
	}
	if Resolve(Selector{us: true}).Selector != (Selector{us: true}) {
		t.Error("Resolve reads the package variables")
	}
	if Resolve(Selector{}).Tag != language.BrazilianPortuguese {
		t.Error("zero Selector no longer resolves to pt-BR")
	}
}

func TestFormatTimestamp(t *testing.T) {
	ts := time.Date(2026, 2, 21, 17, 5, 9, 0, time.UTC)

	if got, want := FormatTimestamp(ts, Resolve(BR)), "14:05:09"; got != want {
		t.Errorf("BR: got %q, want %q", got, want)
	}
	if got, want := FormatTimestamp(ts, Resolve(US)), "12:05:09 PM"; got != want {
		t.Errorf("US: got %q, want %q", got, want)
	}
}

func TestFormatTemp(t *testing.T) {
	tests := []struct {
		v    float64
		ok   bool
		sel  Selector
		want string
	}{
		{21.04, true, US, "21.0°C"},
		{21.04, true, BR, "21,0°C"},
		{-3.26, true, US, "-3.3°C"},
		{0, false, US, "N/A"},
		{0, false, BR, "N/A"},
	}
	for _, tt := range tests {
		if got := FormatTemp(tt.v, tt.ok, Resolve(tt.sel)); got != tt.want {
			t.Errorf("FormatTemp(%v, %v, %v) = %q, want %q", tt.v, tt.ok, tt.sel, got, tt.want)
		}
	}

	if got := FormatTemp(math.NaN(), true, Resolve(US)); got != "NaN°C" {
		t.Errorf("NaN: got %q", got)
	}
}
