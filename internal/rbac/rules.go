package rbac

const (
	PermExamTake      = "exam:take"
	PermAttemptSave   = "attempt:save"
	PermAttemptSubmit = "attempt:submit"
	PermResultsOwn    = "results:view-own"
	PermProctorRecord = "proctoring:record"
	PermExamCreate    = "exam:create"
	PermExamPublish   = "exam:publish_own"
	PermExamDelete    = "exam:delete_own"
	PermExamList      = "exam:list_own"
	PermResultsAll    = "results:view-all"
	PermAttemptGrade  = "attempt:grade"
	PermResultsExport = "results:export"
	PermProctorReview = "proctoring:review"
	PermTranscribe    = "speech:transcribe"
)

// RolePermissions is the default policy. Ownership of an exam is checked by
// the engine, not here.
var RolePermissions = map[string][]string{
	"student": {
		PermExamTake,
		PermAttemptSave,
		PermAttemptSubmit,
		PermResultsOwn,
		PermProctorRecord,
		PermTranscribe,
	},
	"teacher": {
		PermExamCreate,
		PermExamPublish,
		PermExamDelete,
		PermExamList,
		PermResultsAll,
		PermAttemptGrade,
		PermResultsExport,
		PermProctorReview,
		PermTranscribe,
	},
}
