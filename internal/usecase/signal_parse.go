package usecase

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"SignalForge/internal/domain/models"
	"SignalForge/pkg/util"
)

// ParsePartialSignal maps a decoded JSON object onto a PartialSignal. Known keys
// are type-checked; any other key is carried into Metadata unchanged.
func ParsePartialSignal(raw map[string]interface{}) (models.PartialSignal, error) {
	var p models.PartialSignal
	extras := map[string]interface{}{}

	for k, v := range raw {
		if v == nil {
			continue
		}
		switch k {
		case "symbol", "action", "source":
			s, ok := v.(string)
			if !ok {
				return p, &models.ValidationError{Field: k, Reason: "must be a string"}
			}
			switch k {
			case "symbol":
				p.Symbol = &s
			case "action":
				p.Action = &s
			default:
				p.Source = &s
			}
		case "timestamp":
			t, ok := util.ParseTimeValue(v)
			if !ok {
				return p, &models.ValidationError{Field: k, Reason: "must be RFC3339 or a unix timestamp"}
			}
			p.Timestamp = &t
		case "price", "quantity", "confidence":
			f, err := toFloat(v)
			if err != nil {
				return p, &models.ValidationError{Field: k, Reason: err.Error()}
			}
			switch k {
			case "price":
				p.Price = &f
			case "quantity":
				p.Quantity = &f
			default:
				p.Confidence = &f
			}
		case "metadata":
			m, ok := v.(map[string]interface{})
			if !ok {
				return p, &models.ValidationError{Field: k, Reason: "must be an object"}
			}
			p.Metadata = m
		default:
			extras[k] = v
		}
	}

	if len(extras) > 0 {
		if p.Metadata == nil {
			p.Metadata = make(map[string]interface{}, len(extras))
		}
		for k, v := range extras {
			if _, taken := p.Metadata[k]; !taken {
				p.Metadata[k] = v
			}
		}
	}
	return p, nil
}

func toFloat(v interface{}) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case json.Number:
		return n.Float64()
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, fmt.Errorf("must be a number")
		}
		return f, nil
	default:
		return 0, fmt.Errorf("must be a number")
	}
}
