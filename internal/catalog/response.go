package catalog

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// flexString accepts a JSON string or number and keeps its literal text.
// User ids and max_time cursors arrive as either depending on the endpoint version.
type flexString string

func (s *flexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)

	switch {
	case bytes.Equal(data, []byte("null")):
		*s = ""
	case len(data) > 0 && data[0] == '"':
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}

		*s = flexString(str)
	default:
		var num json.Number
		if err := json.Unmarshal(data, &num); err != nil {
			return fmt.Errorf("id is neither string nor number: %w", err)
		}

		*s = flexString(num.String())
	}

	return nil
}

// presentString remembers whether its key was in the document. null and "" both leave Value empty.
type presentString struct {
	Value   flexString
	Present bool
}

func (p *presentString) UnmarshalJSON(data []byte) error {
	p.Present = true

	return p.Value.UnmarshalJSON(data)
}

type searchResponse struct {
	StatusCode *int `json:"status_code"`
	Data       []struct {
		User *struct {
			ID flexString `json:"id"`
		} `json:"user"`
	} `json:"data"`
}

type listResponse struct {
	Data *struct {
		Items []struct {
			Video *struct {
				URI presentString `json:"uri"`
			} `json:"video"`
		} `json:"items"`
	} `json:"data"`
	Extra *struct {
		HasMore bool       `json:"has_more"`
		MaxTime flexString `json:"max_time"`
	} `json:"extra"`
}
