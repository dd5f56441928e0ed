package types

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

type AllowanceType string

const (
	AllowanceHousing   AllowanceType = "HOUSING"
	AllowanceCar       AllowanceType = "CAR"
	AllowanceMeal      AllowanceType = "MEAL"
	AllowanceTransport AllowanceType = "TRANSPORT"
	AllowanceOther     AllowanceType = "OTHER"
)

// AllowancePayload is implemented only by the variants below.
type AllowancePayload interface {
	allowanceType() AllowanceType
}

type HousingAllowance struct {
	HousingType string `json:"housing_type"`
	Location    string `json:"location"`
	Furnished   bool   `json:"furnished"`
}

type CarAllowance struct {
	Model       string `json:"model"`
	PlateNumber string `json:"plate_number"`
	FuelCovered bool   `json:"fuel_covered"`
}

type MealAllowance struct {
	MealPlan      string `json:"meal_plan"`
	MealsPerMonth int    `json:"meals_per_month"`
}

type TransportAllowance struct {
	Mode  string `json:"mode"`
	Route string `json:"route"`
}

// OtherAllowance keeps the payload of a type code this build does not know.
type OtherAllowance struct {
	Code string          `json:"-"`
	Raw  json.RawMessage `json:"-"`
}

func (HousingAllowance) allowanceType() AllowanceType   { return AllowanceHousing }
func (CarAllowance) allowanceType() AllowanceType       { return AllowanceCar }
func (MealAllowance) allowanceType() AllowanceType      { return AllowanceMeal }
func (TransportAllowance) allowanceType() AllowanceType { return AllowanceTransport }
func (OtherAllowance) allowanceType() AllowanceType     { return AllowanceOther }

type AllowanceMetadata struct {
	Name    string
	Amount  string
	Payload AllowancePayload
}

func (m AllowanceMetadata) TypeCode() AllowanceType {
	if m.Payload == nil {
		return AllowanceOther
	}
	return m.Payload.allowanceType()
}

// SearchFields returns the variant-specific text a global search matches on.
func (m AllowanceMetadata) SearchFields() []string {
	out := []string{m.Name}
	switch p := m.Payload.(type) {
	case HousingAllowance:
		out = append(out, p.HousingType, p.Location)
	case CarAllowance:
		out = append(out, p.Model, p.PlateNumber)
	case MealAllowance:
		out = append(out, p.MealPlan)
	case TransportAllowance:
		out = append(out, p.Mode, p.Route)
	case OtherAllowance:
		out = append(out, p.Code)
	case nil:
	}
	return out
}

type allowanceWire struct {
	TypeCode string          `json:"type_code"`
	Name     string          `json:"name"`
	Amount   string          `json:"amount"`
	Payload  json.RawMessage `json:"payload,omitempty"`
}

func (m AllowanceMetadata) MarshalJSON() ([]byte, error) {
	w := allowanceWire{Name: m.Name, Amount: m.Amount}
	var payload any
	switch p := m.Payload.(type) {
	case HousingAllowance:
		w.TypeCode, payload = string(AllowanceHousing), p
	case CarAllowance:
		w.TypeCode, payload = string(AllowanceCar), p
	case MealAllowance:
		w.TypeCode, payload = string(AllowanceMeal), p
	case TransportAllowance:
		w.TypeCode, payload = string(AllowanceTransport), p
	case OtherAllowance:
		w.TypeCode = p.Code
		if w.TypeCode == "" {
			w.TypeCode = string(AllowanceOther)
		}
		w.Payload = p.Raw
	case nil:
		w.TypeCode = string(AllowanceOther)
	}
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		w.Payload = b
	}
	return json.Marshal(w)
}

func (m *AllowanceMetadata) UnmarshalJSON(b []byte) error {
	var w allowanceWire
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	decoded, err := DecodeAllowance(w.TypeCode, w.Name, w.Amount, w.Payload)
	if err != nil {
		return err
	}
	*m = decoded
	return nil
}

// DecodeAllowance builds the variant selected by typeCode. Unknown codes
// decode into OtherAllowance with the raw payload kept.
func DecodeAllowance(typeCode string, name string, amount string, payload json.RawMessage) (AllowanceMetadata, error) {
	code := strings.ToUpper(strings.TrimSpace(typeCode))
	if code == "" {
		return AllowanceMetadata{}, errors.New("allowance: missing type_code")
	}
	m := AllowanceMetadata{Name: name, Amount: amount}

	raw := payload
	if len(raw) == 0 || string(raw) == "null" {
		raw = json.RawMessage(`{}`)
	}
	var err error
	switch AllowanceType(code) {
	case AllowanceHousing:
		var p HousingAllowance
		err = json.Unmarshal(raw, &p)
		m.Payload = p
	case AllowanceCar:
		var p CarAllowance
		err = json.Unmarshal(raw, &p)
		m.Payload = p
	case AllowanceMeal:
		var p MealAllowance
		err = json.Unmarshal(raw, &p)
		m.Payload = p
	case AllowanceTransport:
		var p TransportAllowance
		err = json.Unmarshal(raw, &p)
		m.Payload = p
	default:
		m.Payload = OtherAllowance{Code: code, Raw: payload}
	}
	if err != nil {
		return AllowanceMetadata{}, fmt.Errorf("allowance %s: %w", code, err)
	}
	return m, nil
}
