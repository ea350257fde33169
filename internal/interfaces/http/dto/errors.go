package dto

import "net/http"

// Error code constants organized by category
// Format: ERR_<CATEGORY>_<DESCRIPTION>

// General error codes
const (
	// ErrCodeUnknown is used when the error type is unknown
	ErrCodeUnknown = "ERR_UNKNOWN"
	// ErrCodeInternal is used for internal server errors
	ErrCodeInternal = "ERR_INTERNAL"
	// ErrCodeServiceUnavailable is used when a backing service is not configured or reachable
	ErrCodeServiceUnavailable = "ERR_SERVICE_UNAVAILABLE"
)

// Validation error codes
const (
	// ErrCodeValidation is the base code for validation errors
	ErrCodeValidation = "ERR_VALIDATION"
	// ErrCodeValidationRequired is used when a required field is missing
	ErrCodeValidationRequired = "ERR_VALIDATION_REQUIRED"
	// ErrCodeValidationFormat is used when a field has invalid format
	ErrCodeValidationFormat = "ERR_VALIDATION_FORMAT"
	// ErrCodeValidationRange is used when a value is out of range
	ErrCodeValidationRange = "ERR_VALIDATION_RANGE"
	// ErrCodeValidationLength is used when a field length is invalid
	ErrCodeValidationLength = "ERR_VALIDATION_LENGTH"
)

// Authentication error codes
const (
	// ErrCodeUnauthorized is used when authentication is required but missing/invalid
	ErrCodeUnauthorized = "ERR_UNAUTHORIZED"
	// ErrCodeForbidden is used when the user lacks permission
	ErrCodeForbidden = "ERR_FORBIDDEN"
	// ErrCodeTokenExpired is used when the auth token has expired
	ErrCodeTokenExpired = "ERR_TOKEN_EXPIRED"
	// ErrCodeTokenInvalid is used when the auth token is invalid
	ErrCodeTokenInvalid = "ERR_TOKEN_INVALID"
)

// Resource error codes
const (
	// ErrCodeNotFound is used when a resource is not found
	ErrCodeNotFound = "ERR_NOT_FOUND"
	// ErrCodeAlreadyExists is used when trying to create a duplicate resource
	ErrCodeAlreadyExists = "ERR_ALREADY_EXISTS"
	// ErrCodeConflict is used for general resource conflicts
	ErrCodeConflict = "ERR_CONFLICT"
)

// Coupon error codes
const (
	// ErrCodeCouponInactive is used when a deactivated coupon is redeemed
	ErrCodeCouponInactive = "ERR_COUPON_INACTIVE"
	// ErrCodeCouponExpired is used when the coupon expiry date has passed
	ErrCodeCouponExpired = "ERR_COUPON_EXPIRED"
	// ErrCodeCouponPlanNotEligible is used when the plan is not in the coupon's applicable plans
	ErrCodeCouponPlanNotEligible = "ERR_COUPON_PLAN_NOT_ELIGIBLE"
	// ErrCodeCouponLimitReached is used when the global usage limit is exhausted
	ErrCodeCouponLimitReached = "ERR_COUPON_LIMIT_REACHED"
	// ErrCodeCouponAlreadyUsed is used when a per-user coupon was already redeemed by the caller
	ErrCodeCouponAlreadyUsed = "ERR_COUPON_ALREADY_USED"
	// ErrCodeCouponHasUsage is used when deleting a coupon that has been redeemed
	ErrCodeCouponHasUsage = "ERR_COUPON_HAS_USAGE"
)

// Input error codes
const (
	// ErrCodeBadRequest is used for malformed requests
	ErrCodeBadRequest = "ERR_BAD_REQUEST"
	// ErrCodeInvalidInput is used for invalid input data
	ErrCodeInvalidInput = "ERR_INVALID_INPUT"
	// ErrCodeInvalidJSON is used when JSON parsing fails
	ErrCodeInvalidJSON = "ERR_INVALID_JSON"
	// ErrCodePayloadTooLarge is used when the request body exceeds the limit
	ErrCodePayloadTooLarge = "ERR_PAYLOAD_TOO_LARGE"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	// General errors
	ErrCodeUnknown:            http.StatusInternalServerError,
	ErrCodeInternal:           http.StatusInternalServerError,
	ErrCodeServiceUnavailable: http.StatusServiceUnavailable,

	// Validation errors -> 400 Bad Request
	ErrCodeValidation:         http.StatusBadRequest,
	ErrCodeValidationRequired: http.StatusBadRequest,
	ErrCodeValidationFormat:   http.StatusBadRequest,
	ErrCodeValidationRange:    http.StatusBadRequest,
	ErrCodeValidationLength:   http.StatusBadRequest,

	// Auth errors
	ErrCodeUnauthorized: http.StatusUnauthorized,
	ErrCodeForbidden:    http.StatusForbidden,
	ErrCodeTokenExpired: http.StatusUnauthorized,
	ErrCodeTokenInvalid: http.StatusUnauthorized,

	// Resource errors
	ErrCodeNotFound:       http.StatusNotFound,
	ErrCodeAlreadyExists:  http.StatusConflict,
	ErrCodeConflict:       http.StatusConflict,
	ErrCodeCouponHasUsage: http.StatusConflict,

	// Redemption rejections -> 422 Unprocessable Entity
	ErrCodeCouponInactive:        http.StatusUnprocessableEntity,
	ErrCodeCouponExpired:         http.StatusUnprocessableEntity,
	ErrCodeCouponPlanNotEligible: http.StatusUnprocessableEntity,
	ErrCodeCouponLimitReached:    http.StatusUnprocessableEntity,
	ErrCodeCouponAlreadyUsed:     http.StatusUnprocessableEntity,

	// Input errors -> 400 Bad Request
	ErrCodeBadRequest:      http.StatusBadRequest,
	ErrCodeInvalidInput:    http.StatusBadRequest,
	ErrCodeInvalidJSON:     http.StatusBadRequest,
	ErrCodePayloadTooLarge: http.StatusRequestEntityTooLarge,
}

// GetHTTPStatus returns the HTTP status code for an error code
// Returns 500 Internal Server Error if the error code is not found
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// LegacyErrorCodeMapping maps domain error codes to the standardized API codes
var LegacyErrorCodeMapping = map[string]string{
	"NOT_FOUND":                ErrCodeNotFound,
	"ALREADY_EXISTS":           ErrCodeAlreadyExists,
	"INVALID_INPUT":            ErrCodeInvalidInput,
	"UNAUTHORIZED":             ErrCodeUnauthorized,
	"FORBIDDEN":                ErrCodeForbidden,
	"VALIDATION_ERROR":         ErrCodeValidation,
	"BAD_REQUEST":              ErrCodeBadRequest,
	"INTERNAL_ERROR":           ErrCodeInternal,
	"EXPORT_UNAVAILABLE":       ErrCodeServiceUnavailable,
	"COUPON_INACTIVE":          ErrCodeCouponInactive,
	"COUPON_EXPIRED":           ErrCodeCouponExpired,
	"COUPON_PLAN_NOT_ELIGIBLE": ErrCodeCouponPlanNotEligible,
	"COUPON_LIMIT_REACHED":     ErrCodeCouponLimitReached,
	"COUPON_ALREADY_USED":      ErrCodeCouponAlreadyUsed,
	"COUPON_HAS_USAGE":         ErrCodeCouponHasUsage,
	"INVALID_PLAN":             ErrCodeValidation,
	"INVALID_TENANT":           ErrCodeValidation,
	"INVALID_USER":             ErrCodeValidation,
	"INVALID_AMOUNT":           ErrCodeValidation,
	"INVALID_STATE":            ErrCodeConflict,
}

// NormalizeErrorCode converts a domain error code to the standardized format
// If the code is already in the new format or unknown, returns it as-is
func NormalizeErrorCode(code string) string {
	if newCode, ok := LegacyErrorCodeMapping[code]; ok {
		return newCode
	}
	return code
}
