package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// RiskLevel is the binary classification derived from the model's prediction.
type RiskLevel string

const (
	RiskHigh RiskLevel = "high"
	RiskLow  RiskLevel = "low"
)

// PredictionResult is the body endpoint response.
type PredictionResult struct {
	Prediction  int     `json:"prediction"`
	Probability float64 `json:"probability"`
	Message     string  `json:"message"`
}

// RiskLevel maps prediction 1 to high and anything else to low.
func (p PredictionResult) RiskLevel() RiskLevel {
	if p.Prediction == 1 {
		return RiskHigh
	}
	return RiskLow
}

// Article is a suggested reading link.
type Article struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

// MoodResult is the mind endpoint response.
type MoodResult struct {
	Probabilities OrderedScores   `json:"probabilities"`
	TopCategory   string          `json:"top_category"`
	Articles      OrderedArticles `json:"articles"`
	Playlist      string          `json:"playlist,omitempty"`
}

// Score is one category percentage.
type Score struct {
	Category string
	Value    float64
}

// OrderedScores is a JSON object of category -> percentage that keeps the
// key order of the document. A repeated key keeps its first position and
// takes the last value.
type OrderedScores []Score

// UnmarshalJSON decodes an object while preserving key order.
func (s *OrderedScores) UnmarshalJSON(data []byte) error {
	out := OrderedScores{}
	index := map[string]int{}
	err := decodeOrderedObject(data, func(key string, dec *json.Decoder) error {
		var v float64
		if err := dec.Decode(&v); err != nil {
			return fmt.Errorf("probability for %q: %w", key, err)
		}
		if i, ok := index[key]; ok {
			out[i].Value = v
			return nil
		}
		index[key] = len(out)
		out = append(out, Score{Category: key, Value: v})
		return nil
	})
	if err != nil {
		return err
	}
	*s = out
	return nil
}

// MarshalJSON encodes the scores as an object in slice order.
func (s OrderedScores) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, score := range s {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(score.Category)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(score.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// CategoryArticles is the article list for one category.
type CategoryArticles struct {
	Category string
	Articles []Article
}

// OrderedArticles is a JSON object of category -> []Article in document order.
// Repeated keys behave as in OrderedScores.
type OrderedArticles []CategoryArticles

// UnmarshalJSON decodes an object while preserving key order.
func (a *OrderedArticles) UnmarshalJSON(data []byte) error {
	out := OrderedArticles{}
	index := map[string]int{}
	err := decodeOrderedObject(data, func(key string, dec *json.Decoder) error {
		var list []Article
		if err := dec.Decode(&list); err != nil {
			return fmt.Errorf("articles for %q: %w", key, err)
		}
		if i, ok := index[key]; ok {
			out[i].Articles = list
			return nil
		}
		index[key] = len(out)
		out = append(out, CategoryArticles{Category: key, Articles: list})
		return nil
	})
	if err != nil {
		return err
	}
	*a = out
	return nil
}

// MarshalJSON encodes the categories as an object in slice order.
func (a OrderedArticles) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, group := range a {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(group.Category)
		if err != nil {
			return nil, err
		}
		list := group.Articles
		if list == nil {
			list = []Article{}
		}
		val, err := json.Marshal(list)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func decodeOrderedObject(data []byte, each func(key string, dec *json.Decoder) error) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		return nil
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("expected JSON object, got %v", tok)
	}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("expected object key, got %v", keyTok)
		}
		if err := each(key, dec); err != nil {
			return err
		}
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	return nil
}
