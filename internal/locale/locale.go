// Package locale resolves the dashboard's display language, timezone and
// label strings from a two-valued selector.
package locale

import (
	"fmt"
	"math"
	"strings"
	"time"
	_ "time/tzdata" // bundles need their zones even on hosts without zoneinfo

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Selector picks one of the two supported locales. The zero value is BR,
// the default; no other values can be constructed outside this package.
type Selector struct {
	us bool
}

// BR and US are the two selectors. Treat them as read-only; functions in
// this package build their own values and never consult these variables.
var (
	BR = Selector{}
	US = Selector{us: true}
)

// String returns the short selector name ("US" or "BR").
func (s Selector) String() string {
	if s.us {
		return "US"
	}
	return "BR"
}

// Toggle returns the other selector.
func (s Selector) Toggle() Selector {
	return Selector{us: !s.us}
}

// Parse maps "us"/"br" (any case) to a Selector.
func Parse(name string) (Selector, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "us":
		return Selector{us: true}, nil
	case "br":
		return Selector{}, nil
	}
	return Selector{}, fmt.Errorf("unknown locale %q (want us or br)", name)
}

// Labels holds every user-visible string of the dashboard.
type Labels struct {
	Title            string
	ConnectionStatus string
	Connecting       string
	Connected        string
	Disconnecting    string
	Disconnected     string
	Uninstantiated   string
	CurrentTemp      string
	MaxTemp          string
	MinTemp          string
	AvgTemp          string
	Temperature      string
	Loading          string
	NoData           string
	Language         string
	FetchFailed      string
	Paused           string
}

// Bundle is everything the presentation layer needs to render for one
// locale.
type Bundle struct {
	Selector   Selector
	Tag        language.Tag
	Location   *time.Location
	TimeLayout string // hour:minute:second precision
	Labels     Labels
}

const notAvailable = "N/A"

var (
	usBundle = Bundle{
		Selector:   Selector{us: true},
		Tag:        language.AmericanEnglish,
		Location:   loadZone("America/New_York", -5),
		TimeLayout: "03:04:05 PM",
		Labels: Labels{
			Title:            "Real-Time Temperature Monitor",
			ConnectionStatus: "Connection status",
			Connecting:       "Connecting",
			Connected:        "Connected",
			Disconnecting:    "Disconnecting",
			Disconnected:     "Disconnected",
			Uninstantiated:   "Not initialized",
			CurrentTemp:      "Current temperature",
			MaxTemp:          "Max temperature",
			MinTemp:          "Min temperature",
			AvgTemp:          "Average temperature",
			Temperature:      "Temperature (°C)",
			Loading:          "Loading data...",
			NoData:           "No data available",
			Language:         "Language",
			FetchFailed:      "Could not load history",
			Paused:           "PAUSED",
		},
	}

	brBundle = Bundle{
		Selector:   Selector{},
		Tag:        language.BrazilianPortuguese,
		Location:   loadZone("America/Sao_Paulo", -3),
		TimeLayout: "15:04:05",
		Labels: Labels{
			Title:            "Monitor de Temperatura em Tempo Real",
			ConnectionStatus: "Status da conexão",
			Connecting:       "Conectando",
			Connected:        "Conectado",
			Disconnecting:    "Desconectando",
			Disconnected:     "Desconectado",
			Uninstantiated:   "Não inicializado",
			CurrentTemp:      "Temperatura atual",
			MaxTemp:          "Temperatura máxima",
			MinTemp:          "Temperatura mínima",
			AvgTemp:          "Temperatura média",
			Temperature:      "Temperatura (°C)",
			Loading:          "Carregando dados...",
			NoData:           "Nenhum dado disponível",
			Language:         "Idioma",
			FetchFailed:      "Não foi possível carregar o histórico",
			Paused:           "PAUSADO",
		},
	}
)

func loadZone(name string, offsetHours int) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.FixedZone(name, offsetHours*3600)
	}
	return loc
}

// Resolve returns the bundle for s. The same selector always yields the
// same bundle.
func Resolve(s Selector) Bundle {
	if s.us {
		return usBundle
	}
	return brBundle
}

// FormatTimestamp renders t in the bundle's timezone to the second.
func FormatTimestamp(t time.Time, b Bundle) string {
	return t.In(b.Location).Format(b.TimeLayout)
}

// FormatTemp renders a temperature with one decimal place, the bundle's
// decimal separator and a °C suffix, or N/A when the value is absent.
func FormatTemp(v float64, ok bool, b Bundle) string {
	if !ok {
		return notAvailable
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Sprintf("%v°C", v)
	}
	return message.NewPrinter(b.Tag).Sprintf("%.1f°C", v)
}
