package model

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// PostRecord is a post as the content provider returns it.
type PostRecord struct {
	ID        FlexString       `json:"id"`
	Title     *string          `json:"title"`
	Body      *string          `json:"body"`
	Author    *AuthorRef       `json:"author"`
	Media     *Media           `json:"media"`
	Created   string           `json:"created"`
	Reactions []ReactionRecord `json:"reactions"`
}

// AuthorRef is the embedded author of a post.
type AuthorRef struct {
	Name string `json:"name"`
}

// Media is an image reference.
type Media struct {
	URL string `json:"url"`
	Alt string `json:"alt,omitempty"`
}

// ReactionRecord is one reaction symbol and how often it was used.
type ReactionRecord struct {
	Symbol string     `json:"symbol"`
	Count  FlexNumber `json:"count"`
}

// AuthorRecord is a profile as the author provider returns it.
type AuthorRecord struct {
	Name   string  `json:"name"`
	Bio    *string `json:"bio"`
	Avatar *Media  `json:"avatar"`
}

// FlexString accepts a JSON string or number.
type FlexString string

func (s *FlexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*s = ""
		return nil
	}
	if data[0] == '"' {
		var v string
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		*s = FlexString(v)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*s = FlexString(n.String())
	return nil
}

// FlexNumber accepts a JSON number or numeric string; anything else is 0.
type FlexNumber float64

func (n *FlexNumber) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	switch x := v.(type) {
	case float64:
		*n = FlexNumber(x)
	case string:
		f, err := strconv.ParseFloat(x, 64)
		if err != nil {
			f = 0
		}
		*n = FlexNumber(f)
	default:
		*n = 0
	}
	return nil
}

// DecodePostRecords decodes each raw record on its own and skips the ones
// that do not parse, so one bad record cannot sink the batch.
func DecodePostRecords(raw []json.RawMessage) (records []PostRecord, skipped int) {
	records = make([]PostRecord, 0, len(raw))
	for _, msg := range raw {
		var r PostRecord
		if err := json.Unmarshal(msg, &r); err != nil {
			skipped++
			continue
		}
		records = append(records, r)
	}
	return records, skipped
}

// DecodeAuthorRecords is DecodePostRecords for profiles.
func DecodeAuthorRecords(raw []json.RawMessage) (records []AuthorRecord, skipped int) {
	records = make([]AuthorRecord, 0, len(raw))
	for _, msg := range raw {
		var r AuthorRecord
		if err := json.Unmarshal(msg, &r); err != nil {
			skipped++
			continue
		}
		records = append(records, r)
	}
	return records, skipped
}
