package visit

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/James-CPE/API-NCD/pkg/nullable"
)

func TestBMI(t *testing.T) {
	tests := []struct {
		name   string
		weight nullable.Float
		height nullable.Float
		want   nullable.Float
	}{
		{"normal", nullable.FloatOf(70), nullable.FloatOf(175), nullable.FloatOf(22.86)},
		{"rounds", nullable.FloatOf(65.5), nullable.FloatOf(160), nullable.FloatOf(25.59)},
		{"missing weight", nullable.Float{}, nullable.FloatOf(170), nullable.Float{}},
		{"missing height", nullable.FloatOf(60), nullable.Float{}, nullable.Float{}},
		{"zero height", nullable.FloatOf(60), nullable.FloatOf(0), nullable.Float{}},
		{"negative weight", nullable.FloatOf(-1), nullable.FloatOf(170), nullable.Float{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, BMI(tt.weight, tt.height))
		})
	}
}

func TestVisit_UnmarshalLegacyMedications(t *testing.T) {
	body := `{
		"person_cid": "1103700012345",
		"medications": [{"medicine": "Metformin", "instruction": "1x2 pc", "quantity": 60}],
		"medicine1": "Amlodipine", "instruction1": "1x1", "quantity1": "30",
		"medicine3": "Aspirin", "quantity3": 30,
		"medicine2": "", "instruction2": null
	}`
	var v Visit
	require.NoError(t, json.Unmarshal([]byte(body), &v))

	require.Len(t, v.Medications, 3)
	assert.Equal(t, Medication{Medicine: "Metformin", Instruction: "1x2 pc", Quantity: "60"}, v.Medications[0])
	assert.Equal(t, Medication{Medicine: "Amlodipine", Instruction: "1x1", Quantity: "30"}, v.Medications[1])
	assert.Equal(t, Medication{Medicine: "Aspirin", Quantity: "30"}, v.Medications[2])
}

func TestVisit_UnmarshalStatusAlias(t *testing.T) {
	var v Visit
	require.NoError(t, json.Unmarshal([]byte(`{"person_cid":"1","visit_status":"หยุดยา"}`), &v))
	require.NotNil(t, v.Status)
	assert.Equal(t, "หยุดยา", *v.Status)

	var both Visit
	require.NoError(t, json.Unmarshal([]byte(`{"status":"ลดยา","visit_status":"หยุดยา"}`), &both))
	require.NotNil(t, both.Status)
	assert.Equal(t, "ลดยา", *both.Status, "status wins over the alias")

	var none Visit
	require.NoError(t, json.Unmarshal([]byte(`{"visit_status":null}`), &none))
	assert.Nil(t, none.Status)
}

func TestVisit_UnmarshalLenientNumbers(t *testing.T) {
	var v Visit
	require.NoError(t, json.Unmarshal([]byte(`{"weight":"70.5","height":"","bp_sys":"130","visit_date":"2025-02-14"}`), &v))
	assert.Equal(t, nullable.FloatOf(70.5), v.Weight)
	assert.False(t, v.Height.Valid)
	assert.Equal(t, nullable.IntOf(130), v.BPSys)
	assert.Equal(t, "2025-02-14", v.VisitDate.String())
}

func TestVisit_UnmarshalRejectsBadMedication(t *testing.T) {
	var v Visit
	err := json.Unmarshal([]byte(`{"medicine1":{"name":"x"}}`), &v)
	assert.Error(t, err)
}

func TestMedications_Normalize(t *testing.T) {
	in := Medications{
		{Medicine: "  Metformin ", Instruction: " 1x2 "},
		{},
		{Quantity: "  "},
		{Medicine: "Aspirin"},
	}
	out := in.Normalize()
	assert.Equal(t, Medications{
		{Medicine: "Metformin", Instruction: "1x2"},
		{Medicine: "Aspirin"},
	}, out)

	var empty Medications
	got := empty.Normalize()
	require.NotNil(t, got)
	b, err := json.Marshal(got)
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, string(b))
}
