package person

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/James-CPE/API-NCD/pkg/nullable"
)

// CheckboxOn is the value legacy forms submit for a ticked comorbidity box.
const CheckboxOn = "มี"

// Flag is a comorbidity marker. It decodes from a JSON boolean or from the
// checkbox string CheckboxOn; any other string is false.
type Flag bool

func (f *Flag) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*f = false
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = Flag(s == CheckboxOn || s == "true" || s == "1")
	default:
		var b bool
		if err := json.Unmarshal(data, &b); err != nil {
			var n int
			if nerr := json.Unmarshal(data, &n); nerr != nil {
				return err
			}
			b = n != 0
		}
		*f = Flag(b)
	}
	return nil
}

// Person is a patient under NCD follow-up, keyed by national citizen id.
type Person struct {
	ID              int64         `json:"id"`
	CID             string        `json:"cid"`
	Fullname        string        `json:"fullname"`
	Gender          *string       `json:"gender"`
	BirthDay        nullable.Int  `json:"birth_day"`
	BirthMonth      nullable.Int  `json:"birth_month"`
	BirthYear       nullable.Int  `json:"birth_year"`
	Occupation      *string       `json:"occupation"`
	Tel             *string       `json:"tel"`
	HouseNo         *string       `json:"house_no"`
	Moo             *string       `json:"moo"`
	Village         *string       `json:"village"`
	Subdistrict     *string       `json:"subdistrict"`
	District        *string       `json:"district"`
	Province        *string       `json:"province"`
	HT              Flag          `json:"ht"`
	DLP             Flag          `json:"dlp"`
	CKD             Flag          `json:"ckd"`
	MI              Flag          `json:"mi"`
	Stroke          Flag          `json:"stroke"`
	COPD            Flag          `json:"copd"`
	Asthma          Flag          `json:"asthma"`
	DiseaseOther    *string       `json:"disease_other"`
	MedicalHis      *string       `json:"medical_his"`
	Cigarette       *string       `json:"cigarette"`
	CigaretteVolume *string       `json:"cigarette_volume"`
	Alcohol         *string       `json:"alcohol"`
	AlcoholVolume   *string       `json:"alcohol_volume"`
	PersonNote      *string       `json:"person_note"`
	StartDate       nullable.Date `json:"startdate"`
	Hospital        *string       `json:"hospital"`
	Age             nullable.Int  `json:"age"`
	Status          *string       `json:"status"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`
}

// BuddhistEraOffset converts a Gregorian year to the Thai Buddhist Era.
const BuddhistEraOffset = 543

// AgeAt returns the age for a Buddhist Era birth year in the Gregorian year
// of now: year + 543 - birthYear. It is invalid when birthYear is.
func AgeAt(birthYear nullable.Int, now time.Time) nullable.Int {
	if !birthYear.Valid {
		return nullable.Int{}
	}
	return nullable.IntOf(int64(now.Year()) + BuddhistEraOffset - birthYear.Int64)
}
