package domain

import (
	"encoding/json"
	"testing"
)

func TestMoodResultPreservesKeyOrder(t *testing.T) {
	raw := `{
		"probabilities": {"Stress": 40.5, "Normal": 30, "Anxiety": 29.5},
		"top_category": "Stress",
		"articles": {
			"Stress": [{"title": "S1", "url": "https://s1"}, {"title": "S2", "url": "https://s2"}],
			"Normal": [],
			"Anxiety": [{"title": "A1", "url": "https://a1"}]
		},
		"playlist": "https://open.spotify.com/embed/playlist/x"
	}`

	var result MoodResult
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	wantOrder := []string{"Stress", "Normal", "Anxiety"}
	if len(result.Probabilities) != len(wantOrder) {
		t.Fatalf("Expected %d probabilities, got %d", len(wantOrder), len(result.Probabilities))
	}
	for i, cat := range wantOrder {
		if result.Probabilities[i].Category != cat {
			t.Errorf("Position %d: expected %s, got %s", i, cat, result.Probabilities[i].Category)
		}
		if result.Articles[i].Category != cat {
			t.Errorf("Articles position %d: expected %s, got %s", i, cat, result.Articles[i].Category)
		}
	}

	if result.Probabilities[0].Value != 40.5 {
		t.Errorf("Expected 40.5, got %v", result.Probabilities[0].Value)
	}
	if len(result.Articles[0].Articles) != 2 || result.Articles[0].Articles[1].Title != "S2" {
		t.Errorf("Unexpected Stress articles: %+v", result.Articles[0].Articles)
	}
	if result.TopCategory != "Stress" {
		t.Errorf("Expected top category Stress, got %s", result.TopCategory)
	}
}

func TestOrderedObjectsRepeatedKeyKeepsFirstPosition(t *testing.T) {
	var scores OrderedScores
	if err := json.Unmarshal([]byte(`{"Stress":10,"Normal":20,"Stress":70}`), &scores); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	want := OrderedScores{{Category: "Stress", Value: 70}, {Category: "Normal", Value: 20}}
	if len(scores) != len(want) {
		t.Fatalf("Expected %d scores, got %+v", len(want), scores)
	}
	for i := range want {
		if scores[i] != want[i] {
			t.Errorf("Position %d: expected %+v, got %+v", i, want[i], scores[i])
		}
	}

	var articles OrderedArticles
	raw := `{"Stress":[{"title":"old","url":"https://old"}],"Normal":[],"Stress":[{"title":"new","url":"https://new"}]}`
	if err := json.Unmarshal([]byte(raw), &articles); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(articles) != 2 || articles[0].Category != "Stress" || articles[1].Category != "Normal" {
		t.Fatalf("Unexpected categories: %+v", articles)
	}
	if len(articles[0].Articles) != 1 || articles[0].Articles[0].Title != "new" {
		t.Errorf("Expected last Stress list, got %+v", articles[0].Articles)
	}
}

func TestOrderedScoresMarshalRoundTripKeepsOrder(t *testing.T) {
	scores := OrderedScores{{Category: "Suicidal", Value: 1}, {Category: "Bipolar", Value: 2.25}}

	data, err := json.Marshal(scores)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if string(data) != `{"Suicidal":1,"Bipolar":2.25}` {
		t.Errorf("Unexpected encoding: %s", data)
	}
}

func TestOrderedScoresRejectsNonObject(t *testing.T) {
	var scores OrderedScores
	if err := json.Unmarshal([]byte(`[1,2]`), &scores); err == nil {
		t.Error("Expected error for array input")
	}
}

func TestPredictionResultRiskLevel(t *testing.T) {
	if (PredictionResult{Prediction: 1}).RiskLevel() != RiskHigh {
		t.Error("Expected prediction 1 to be high risk")
	}
	if (PredictionResult{Prediction: 0}).RiskLevel() != RiskLow {
		t.Error("Expected prediction 0 to be low risk")
	}
}

func TestBodyPayloadMarshalKeepsFieldOrder(t *testing.T) {
	payload := BodyPayload{
		{Key: FieldAge, Value: 54},
		{Key: FieldGender, Value: ""},
		{Key: FieldOldpeak, Value: 1.5},
	}

	data, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if string(data) != `{"age":54,"gender":"","oldpeak":1.5}` {
		t.Errorf("Unexpected encoding: %s", data)
	}

	if v, ok := payload.Lookup(FieldOldpeak); !ok || v != 1.5 {
		t.Errorf("Lookup returned %v, %v", v, ok)
	}
}
