package extract

// Schema names an extract, the file-name prefix it is discovered by, and
// the normalized header columns it must carry.
type Schema struct {
	Name     string
	Prefix   string
	Required []string
}

// The four extracts the repository is loaded from.
var (
	SessionsSchema = Schema{
		Name:   "sessions",
		Prefix: "QNS_CV_SESSION_TABLE",
		Required: []string{
			"institution", "career", "term", "session",
			"first_date_to_enroll", "open_enrollment_date", "last_date_to_enroll",
			"session_beginning_date", "census_date", "session_end_date",
		},
	}
	AdmissionsSchema = Schema{
		Name:   "admissions",
		Prefix: "CV_QNS_ADMISSIONS",
		Required: []string{
			"id", "institution", "admit_term", "requirement_term", "admit_type",
			"program_action", "action_reason", "action_date", "eff_date",
		},
	}
	EvaluationsSchema = Schema{
		Name:     "transfers_applied",
		Prefix:   "TRANSFERS_APPLIED",
		Required: []string{"student_id", "dst_institution", "articulation_term", "posted_date"},
	}
	RegistrationsSchema = Schema{
		Name:     "registrations",
		Prefix:   "CV_QNS_STUDENT_SUMMARY",
		Required: []string{"id", "career", "institution", "term", "enrollment_add_date", "enrollment_drop_date"},
	}
)

// Schemas lists every extract in load order.
var Schemas = []Schema{SessionsSchema, AdmissionsSchema, EvaluationsSchema, RegistrationsSchema}
