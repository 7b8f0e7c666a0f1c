package ingest

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/infa-ajaykumar/RealityBuilder/internal/normalize"
)

var ErrMalformedMessage = errors.New("malformed listing message")

// textValue accepts string or number JSON and keeps the textual form.
// Scrapers are inconsistent about quoting prices and room counts.
type textValue string

func (s *textValue) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*s = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var str string
		if err := json.Unmarshal(b, &str); err != nil {
			return err
		}
		*s = textValue(str)
		return nil
	}
	var num json.Number
	if err := json.Unmarshal(b, &num); err != nil {
		return err
	}
	*s = textValue(num.String())
	return nil
}

// stringList accepts a scalar string or an array of strings.
type stringList []string

func (l *stringList) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*l = nil
		return nil
	}
	if len(b) > 0 && b[0] == '[' {
		var arr []textValue
		if err := json.Unmarshal(b, &arr); err != nil {
			return err
		}
		out := make([]string, 0, len(arr))
		for _, v := range arr {
			out = append(out, string(v))
		}
		*l = out
		return nil
	}
	var single textValue
	if err := single.UnmarshalJSON(b); err != nil {
		return err
	}
	if single == "" {
		*l = nil
		return nil
	}
	*l = []string{string(single)}
	return nil
}

// Message is the queue contract with the scraping workers. Every field is
// optional; normalization supplies the defaults.
type Message struct {
	Title         textValue  `json:"title"`
	Price         textValue  `json:"price"`
	PriceText     textValue  `json:"price_text"`
	Location      textValue  `json:"location"`
	LocationText  textValue  `json:"location_text"`
	Address       textValue  `json:"address"`
	BedroomsText  textValue  `json:"bedrooms_text"`
	BathroomsText textValue  `json:"bathrooms_text"`
	Area          textValue  `json:"area"`
	AreaText      textValue  `json:"area_text"`
	Images        stringList `json:"images"`
	Description   textValue  `json:"description"`
	PropertyType  textValue  `json:"property_type"`
	Amenities     stringList `json:"amenities"`
	SourceURL     textValue  `json:"source_url"`
	SourceName    textValue  `json:"source_name"`
	DatePosted    textValue  `json:"date_posted"`
}

func ParseMessage(body []byte) (Message, error) {
	var m Message
	if err := json.Unmarshal(body, &m); err != nil {
		return Message{}, fmt.Errorf("%w: %v", ErrMalformedMessage, err)
	}
	return m, nil
}

// NormalizeInput resolves field aliases: `address` falls back to
// `location` for the raw address, `location_text` likewise, and the
// display price text falls back to the bare price field.
func (m Message) NormalizeInput() normalize.Input {
	priceText := string(m.PriceText)
	if priceText == "" {
		priceText = string(m.Price)
	}
	areaText := string(m.AreaText)
	if areaText == "" {
		areaText = string(m.Area)
	}
	addressRaw := string(m.Address)
	if addressRaw == "" {
		addressRaw = string(m.Location)
	}
	locationText := string(m.LocationText)
	if locationText == "" {
		locationText = string(m.Location)
	}
	return normalize.Input{
		Title:         string(m.Title),
		Description:   string(m.Description),
		PriceText:     priceText,
		LocationText:  locationText,
		AddressRaw:    addressRaw,
		BedroomsText:  string(m.BedroomsText),
		BathroomsText: string(m.BathroomsText),
		AreaText:      areaText,
		Images:        m.Images,
		PropertyType:  string(m.PropertyType),
		Amenities:     m.Amenities,
		SourceURL:     string(m.SourceURL),
		SourceName:    string(m.SourceName),
		DatePosted:    string(m.DatePosted),
	}
}
