package model

// Prediction is the result of classifying a single flow.
type Prediction struct {
	Label      Label             `json:"label"`
	Confidence float64           `json:"confidence"`
	Scores     map[Label]float64 `json:"scores,omitempty"`
}

// IsAttack reports whether the predicted label is an attack class.
func (p Prediction) IsAttack() bool {
	return p.Label.IsAttack()
}

// Classifier maps flow features to a predicted label with a confidence score.
type Classifier interface {
	Classify(flow *FlowRecord) Prediction
}
