package visit

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/James-CPE/API-NCD/pkg/nullable"
)

// MaxLegacyMedications is how many medicineN/instructionN/quantityN triples
// older clients send.
const MaxLegacyMedications = 5

// Medication is one prescribed item on a visit.
type Medication struct {
	Medicine    string `json:"medicine"`
	Instruction string `json:"instruction"`
	Quantity    string `json:"quantity"`
}

func (m Medication) blank() bool {
	return m.Medicine == "" && m.Instruction == "" && m.Quantity == ""
}

func (m *Medication) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	var err error
	if m.Medicine, err = text(raw["medicine"]); err != nil {
		return fmt.Errorf("medicine: %w", err)
	}
	if m.Instruction, err = text(raw["instruction"]); err != nil {
		return fmt.Errorf("instruction: %w", err)
	}
	if m.Quantity, err = text(raw["quantity"]); err != nil {
		return fmt.Errorf("quantity: %w", err)
	}
	return nil
}

// Medications is the ordered prescription list, stored as JSONB.
type Medications []Medication

// Normalize trims every field and drops blank entries, keeping order. The
// result is never nil.
func (ms Medications) Normalize() Medications {
	out := Medications{}
	for _, m := range ms {
		m.Medicine = strings.TrimSpace(m.Medicine)
		m.Instruction = strings.TrimSpace(m.Instruction)
		m.Quantity = strings.TrimSpace(m.Quantity)
		if !m.blank() {
			out = append(out, m)
		}
	}
	return out
}

// Visit is one follow-up encounter for a person.
type Visit struct {
	ID              int64          `json:"id"`
	PersonCID       string         `json:"person_cid"`
	VisitDate       nullable.Date  `json:"visit_date"`
	Weight          nullable.Float `json:"weight"`
	Height          nullable.Float `json:"height"`
	BMI             nullable.Float `json:"bmi"`
	Waist           nullable.Float `json:"waist"`
	BPSys           nullable.Int   `json:"bp_sys"`
	BPDia           nullable.Int   `json:"bp_dia"`
	Pulse           nullable.Int   `json:"pulse"`
	FBS             nullable.Float `json:"fbs"`
	HbA1c           nullable.Float `json:"hba1c"`
	LDL             nullable.Float `json:"ldl"`
	EGFR            nullable.Float `json:"egfr"`
	Status          *string        `json:"status"`
	VisitNote       *string        `json:"visit_note"`
	NextAppointment nullable.Date  `json:"next_appointment"`
	Medications     Medications    `json:"medications"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
}

// visitFields mirrors Visit for decoding without recursing into UnmarshalJSON.
type visitFields Visit

// UnmarshalJSON accepts visit_status as an alias of status and the flat
// medicine1..5 / instruction1..5 / quantity1..5 fields of older clients,
// which are appended after any medications list.
func (v *Visit) UnmarshalJSON(data []byte) error {
	var f visitFields
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	if f.Status == nil {
		if alias, ok := raw["visit_status"]; ok && !bytes.Equal(bytes.TrimSpace(alias), []byte("null")) {
			s, err := text(alias)
			if err != nil {
				return fmt.Errorf("visit_status: %w", err)
			}
			f.Status = &s
		}
	}

	for i := 1; i <= MaxLegacyMedications; i++ {
		n := strconv.Itoa(i)
		var m Medication
		var err error
		if m.Medicine, err = text(raw["medicine"+n]); err != nil {
			return fmt.Errorf("medicine%s: %w", n, err)
		}
		if m.Instruction, err = text(raw["instruction"+n]); err != nil {
			return fmt.Errorf("instruction%s: %w", n, err)
		}
		if m.Quantity, err = text(raw["quantity"+n]); err != nil {
			return fmt.Errorf("quantity%s: %w", n, err)
		}
		if !m.blank() {
			f.Medications = append(f.Medications, m)
		}
	}

	*v = Visit(f)
	return nil
}

// text reads a JSON string or number as text; null and absent yield "".
func text(data json.RawMessage) (string, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return "", nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return "", err
		}
		return s, nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return "", fmt.Errorf("expected string or number")
	}
	return n.String(), nil
}

// Row is a visit as listed for a person: the visit plus the person fields
// the follow-up screen shows beside it.
type Row struct {
	Visit
	VisitStatus *string        `json:"visit_status"`
	BloodSugar  nullable.Float `json:"blood_sugar"`
	Gender      *string        `json:"gender"`
	Fullname    string         `json:"fullname"`
	Age         nullable.Int   `json:"age"`
}

// BMI returns weight (kg) over height (cm) converted to metres squared,
// rounded to two decimals. It is invalid unless both inputs are positive.
func BMI(weight, height nullable.Float) nullable.Float {
	if !weight.Positive() || !height.Positive() {
		return nullable.Float{}
	}
	m := height.Float64 / 100
	return nullable.FloatOf(round2(weight.Float64 / (m * m)))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
