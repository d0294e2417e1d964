package person

// Status labels record where a patient stands in treatment. They are stored
// verbatim in t_persons.status and t_visits.status.
const (
	StatusOldMedication    = "ยาเดิม"
	StatusAddMedication    = "เพิ่มยา"
	StatusReduceMedication = "ลดยา"
	StatusStopMedication   = "หยุดยา"
	StatusRemission        = "Remission"
	StatusNoMedication     = "ผู้ป่วย DM ที่ไม่ได้รับยา"
	StatusFollowUp         = "ติดตามอาการ"
)

// DefaultStatus is assigned to new persons that arrive without a status.
const DefaultStatus = StatusFollowUp

// StatusBucket pairs a stored label with its aggregate counter name.
type StatusBucket struct {
	Label  string
	Bucket string
}

// StatusBuckets lists every accepted label in dashboard order. A NULL status
// counts as StatusFollowUp.
var StatusBuckets = []StatusBucket{
	{StatusOldMedication, "old_med"},
	{StatusAddMedication, "add_med"},
	{StatusReduceMedication, "reduce_med"},
	{StatusStopMedication, "stop_med"},
	{StatusRemission, "remission"},
	{StatusNoMedication, "dm_no_med"},
	{StatusFollowUp, "under_follow_up"},
}

// ValidStatus reports whether s is one of the accepted labels.
func ValidStatus(s string) bool {
	for _, b := range StatusBuckets {
		if b.Label == s {
			return true
		}
	}
	return false
}

// BucketOf returns the counter a stored status falls into; unknown labels go
// to "other".
func BucketOf(status *string) string {
	if status == nil {
		return "under_follow_up"
	}
	for _, b := range StatusBuckets {
		if b.Label == *status {
			return b.Bucket
		}
	}
	return "other"
}
