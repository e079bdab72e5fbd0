package response

// ErrCode is a typed error code enum for consistent API error identification.
type ErrCode string

const (
	// ─── Authentication ────────────────────────────────────────────────
	ErrTokenRequired ErrCode = "TOKEN_REQUIRED"
	ErrTokenInvalid  ErrCode = "TOKEN_INVALID"
	ErrTokenExpired  ErrCode = "TOKEN_EXPIRED"
	ErrTokenRevoked  ErrCode = "TOKEN_REVOKED"

	// ─── Authorization ─────────────────────────────────────────────────
	ErrForbidden            ErrCode = "FORBIDDEN"
	ErrPermissionDenied     ErrCode = "PERMISSION_DENIED"
	ErrStudentAccessOnly    ErrCode = "STUDENT_ACCESS_ONLY"
	ErrInstructorAccessOnly ErrCode = "INSTRUCTOR_ACCESS_ONLY"
	ErrAdminAccessOnly      ErrCode = "ADMIN_ACCESS_ONLY"
	ErrNotOwner             ErrCode = "NOT_OWNER"

	// ─── Validation ────────────────────────────────────────────────────
	ErrValidation     ErrCode = "VALIDATION_ERROR"
	ErrInvalidID      ErrCode = "INVALID_ID"
	ErrInvalidPayload ErrCode = "INVALID_PAYLOAD"

	// ─── Resources ─────────────────────────────────────────────────────
	ErrNotFound     ErrCode = "NOT_FOUND"
	ErrConflict     ErrCode = "CONFLICT"
	ErrInvalidState ErrCode = "INVALID_STATE"

	// ─── Exam-specific ─────────────────────────────────────────────────
	ErrExamNotAvailable   ErrCode = "EXAM_NOT_AVAILABLE"
	ErrNoSchedule         ErrCode = "NO_SCHEDULE"
	ErrOutsideWindow      ErrCode = "OUTSIDE_WINDOW"
	ErrNotEnrolled        ErrCode = "NOT_ENROLLED"
	ErrPastDate           ErrCode = "PAST_DATE"
	ErrAttemptInProgress  ErrCode = "ATTEMPT_IN_PROGRESS"
	ErrPartAIncomplete    ErrCode = "PART_A_INCOMPLETE"
	ErrResultNotPublished ErrCode = "RESULT_NOT_PUBLISHED"
	ErrMarksUnbalanced    ErrCode = "MARKS_UNBALANCED"

	// ─── Re-exam ───────────────────────────────────────────────────────
	ErrPaymentRequired ErrCode = "PAYMENT_REQUIRED"
	ErrPaymentFailed   ErrCode = "PAYMENT_FAILED"

	// ─── Rate Limiting ─────────────────────────────────────────────────
	ErrRateLimitExceeded ErrCode = "RATE_LIMIT_EXCEEDED"

	// ─── Server ────────────────────────────────────────────────────────
	ErrInternal ErrCode = "INTERNAL_ERROR"
)

// GetMessage returns a human-readable message for a given error code.
func GetMessage(code ErrCode) string {
	switch code {
	// ─── Authentication ────────────────────────────────────────────────
	case ErrTokenRequired:
		return "Token autentikasi diperlukan."
	case ErrTokenInvalid:
		return "Token autentikasi tidak valid."
	case ErrTokenExpired:
		return "Token autentikasi telah kedaluwarsa."
	case ErrTokenRevoked:
		return "Token autentikasi telah dicabut. Silakan login kembali."

	// ─── Authorization ─────────────────────────────────────────────────
	case ErrForbidden:
		return "Anda tidak memiliki izin untuk mengakses sumber daya ini."
	case ErrPermissionDenied:
		return "Izin ditolak."
	case ErrStudentAccessOnly:
		return "Sumber daya ini terbatas untuk siswa."
	case ErrInstructorAccessOnly:
		return "Sumber daya ini terbatas untuk instruktur."
	case ErrAdminAccessOnly:
		return "Sumber daya ini terbatas untuk administrator."
	case ErrNotOwner:
		return "Anda bukan pemilik sumber daya ini."

	// ─── Validation ────────────────────────────────────────────────────
	case ErrValidation:
		return "Validasi gagal. Silakan periksa masukan Anda."
	case ErrInvalidID:
		return "Format ID tidak valid."
	case ErrInvalidPayload:
		return "Payload permintaan tidak valid."

	// ─── Resources ─────────────────────────────────────────────────────
	case ErrNotFound:
		return "Sumber daya tidak ditemukan."
	case ErrConflict:
		return "Sumber daya sudah ada."
	case ErrInvalidState:
		return "Tindakan ini tidak diperbolehkan pada status saat ini."

	// ─── Exam-specific ─────────────────────────────────────────────────
	case ErrExamNotAvailable:
		return "Ujian ini saat ini tidak tersedia."
	case ErrNoSchedule:
		return "Anda belum memiliki jadwal untuk ujian ini."
	case ErrOutsideWindow:
		return "Ujian hanya dapat dimulai dalam jendela waktu yang dijadwalkan."
	case ErrNotEnrolled:
		return "Siswa tidak terdaftar pada kursus ujian ini."
	case ErrPastDate:
		return "Tanggal jadwal tidak boleh di masa lalu."
	case ErrAttemptInProgress:
		return "Siswa sudah memiliki percobaan ujian untuk jadwal ini."
	case ErrPartAIncomplete:
		return "Bagian A harus diselesaikan terlebih dahulu."
	case ErrResultNotPublished:
		return "Hasil ujian belum dipublikasikan."
	case ErrMarksUnbalanced:
		return "Jumlah nilai bagian A, bagian B, dan nilai internal harus sama dengan nilai total."

	// ─── Re-exam ───────────────────────────────────────────────────────
	case ErrPaymentRequired:
		return "Pembayaran ujian ulang diperlukan."
	case ErrPaymentFailed:
		return "Pembayaran ditolak."

	// ─── Rate Limiting ─────────────────────────────────────────────────
	case ErrRateLimitExceeded:
		return "Terlalu banyak permintaan. Silakan coba lagi nanti."

	// ─── Server ────────────────────────────────────────────────────────
	case ErrInternal:
		return "Terjadi kesalahan server internal."
	default:
		return "Terjadi kesalahan yang tidak terduga."
	}
}
