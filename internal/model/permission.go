package model

// Permission represents a string code for a specific system action.
type Permission string

const (
	// PermissionExamsRead allows viewing exams and their question banks.
	PermissionExamsRead Permission = "exams:read"

	// PermissionExamsWriteOwn allows creating exams and questions on owned courses.
	PermissionExamsWriteOwn Permission = "exams:write_own"

	// PermissionExamsApprove allows approving or rejecting instructor-created exams.
	PermissionExamsApprove Permission = "exams:approve"

	// PermissionSchedulesWrite allows assigning and unassigning exam schedules.
	PermissionSchedulesWrite Permission = "schedules:write"

	// PermissionGradingWrite allows grading Part B and assigning internal marks.
	PermissionGradingWrite Permission = "grading:write"

	// PermissionMissedExamsResolve allows approving or rejecting missed-exam requests.
	PermissionMissedExamsResolve Permission = "missed_exams:resolve"

	// PermissionEnrollmentsWrite allows reporting course completions.
	PermissionEnrollmentsWrite Permission = "enrollments:write"
)

// InstructorPermissions is granted to instructor tokens.
var InstructorPermissions = []Permission{
	PermissionExamsRead,
	PermissionExamsWriteOwn,
	PermissionSchedulesWrite,
	PermissionGradingWrite,
	PermissionMissedExamsResolve,
}

// AllPermissions is a slice of all available permissions.
var AllPermissions = []Permission{
	PermissionExamsRead,
	PermissionExamsWriteOwn,
	PermissionExamsApprove,
	PermissionSchedulesWrite,
	PermissionGradingWrite,
	PermissionMissedExamsResolve,
	PermissionEnrollmentsWrite,
}
