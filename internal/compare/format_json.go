package compare

import (
	"encoding/json"

	"github.com/rgehrsitz/bufferplan/internal/domain"
)

// JSONFormatter renders a comparison set as JSON.
type JSONFormatter struct {
	Pretty bool
	// IncludeResponses adds each scenario's full engine response under "responses".
	IncludeResponses bool
}

type jsonComparison struct {
	*ComparisonSet
	BestAlternative string                          `json:"bestAlternative,omitempty"`
	Responses       map[string]*domain.PlanResponse `json:"responses,omitempty"`
}

// Format generates JSON output for comparison results
func (jf *JSONFormatter) Format(compSet *ComparisonSet) (string, error) {
	doc := jsonComparison{ComparisonSet: compSet}
	if best := BestAlternative(compSet); best != nil {
		doc.BestAlternative = best.ScenarioName
	}
	if jf.IncludeResponses {
		doc.Responses = map[string]*domain.PlanResponse{}
		if compSet.BaseResult != nil && compSet.BaseResult.Response != nil {
			doc.Responses[compSet.BaseResult.ScenarioName] = compSet.BaseResult.Response
		}
		for _, alt := range compSet.AlternativeResults {
			if alt.Response != nil {
				doc.Responses[alt.ScenarioName] = alt.Response
			}
		}
	}

	var data []byte
	var err error
	if jf.Pretty {
		data, err = json.MarshalIndent(doc, "", "  ")
	} else {
		data, err = json.Marshal(doc)
	}
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// BestAlternative returns the alternative with the highest success, nil when there is none
// or none beats the base.
func BestAlternative(compSet *ComparisonSet) *ComparisonResult {
	var best *ComparisonResult
	for i := range compSet.AlternativeResults {
		alt := &compSet.AlternativeResults[i]
		if !alt.SuccessDiffFromBase.IsPositive() {
			continue
		}
		if best == nil || alt.SuccessPct > best.SuccessPct {
			best = alt
		}
	}
	return best
}
