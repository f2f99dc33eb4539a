package armboot

import (
	"fmt"
	"os"
	"strconv"
)

// Model status codes for ARM64 early-boot simulation.
const (
	BOOT_SUCCESS       uint32 = 0x00000000
	BOOT_ERROR         uint32 = 0xB0070001
	BOOT_BAD_ARGUMENT  uint32 = 0xB0070002
	BOOT_ILLEGAL_STATE uint32 = 0xB0070003
	BOOT_NO_RESOURCES  uint32 = 0xB0070004
	BOOT_CLOSED        uint32 = 0xB0070005
	BOOT_OUT_OF_RANGE  uint32 = 0xB0070006
	BOOT_UNALIGNED     uint32 = 0xB0070007
)

// BootError wraps a model status code.
//
// BootError is reserved for misuse of the simulation itself (closed
// machine, out-of-range access, bad argument). Failures of the modeled
// boot flow never surface as errors; the hardware has no error channel
// that early, so they collapse into a parked Outcome instead.
type BootError struct {
	Code    uint32
	message string // Optional custom message for specific errors
}

func (e BootError) Error() string {
	// Use custom message if available
	if e.message != "" {
		return e.message
	}

	if isProductionEnv() {
		return e.sanitizedError()
	}
	return e.detailedError()
}

// detailedError provides full error context for development
func (e BootError) detailedError() string {
	switch e.Code {
	case BOOT_SUCCESS:
		return "armboot: success"
	case BOOT_ERROR:
		return "armboot: general error (BOOT_ERROR) - check machine construction and API usage"
	case BOOT_BAD_ARGUMENT:
		return "armboot: invalid argument (BOOT_BAD_ARGUMENT) - check parameter values and alignment"
	case BOOT_ILLEGAL_STATE:
		return "armboot: illegal machine state (BOOT_ILLEGAL_STATE) - operation not valid at this boot stage"
	case BOOT_NO_RESOURCES:
		return "armboot: insufficient resources (BOOT_NO_RESOURCES) - guest RAM allocation failed or limits exceeded"
	case BOOT_CLOSED:
		return "armboot: machine closed (BOOT_CLOSED) - the machine was closed before this operation"
	case BOOT_OUT_OF_RANGE:
		return "armboot: address out of range (BOOT_OUT_OF_RANGE) - access falls outside guest RAM"
	case BOOT_UNALIGNED:
		return "armboot: unaligned address (BOOT_UNALIGNED) - check linker layout alignment rules"
	default:
		return fmt.Sprintf("armboot: unknown error code 0x%08x", e.Code)
	}
}

// sanitizedError provides minimal error information for production
func (e BootError) sanitizedError() string {
	switch e.Code {
	case BOOT_SUCCESS:
		return "armboot: success"
	case BOOT_ERROR:
		return "armboot: general error"
	case BOOT_BAD_ARGUMENT:
		return "armboot: invalid argument"
	case BOOT_ILLEGAL_STATE:
		return "armboot: illegal machine state"
	case BOOT_NO_RESOURCES:
		return "armboot: insufficient resources"
	case BOOT_CLOSED:
		return "armboot: machine closed"
	case BOOT_OUT_OF_RANGE:
		return "armboot: address out of range"
	case BOOT_UNALIGNED:
		return "armboot: unaligned address"
	default:
		return "armboot: model error"
	}
}

// isProductionEnv checks if we're running in production environment
func isProductionEnv() bool {
	env := os.Getenv("ARMBOOT_ENV")
	if env == "production" || env == "prod" {
		return true
	}

	// Check if debug mode is explicitly disabled
	if debug := os.Getenv("ARMBOOT_DEBUG"); debug != "" {
		if val, err := strconv.ParseBool(debug); err == nil && !val {
			return true
		}
	}

	return false
}

// Common specific errors for API consumers
var (
	ErrMachineClosed    = &BootError{Code: BOOT_CLOSED, message: "armboot: machine is closed"}
	ErrInvalidRegister  = &BootError{Code: BOOT_BAD_ARGUMENT, message: "armboot: invalid register"}
	ErrInvalidCore      = &BootError{Code: BOOT_BAD_ARGUMENT, message: "armboot: invalid core index"}
	ErrOutOfRange       = &BootError{Code: BOOT_OUT_OF_RANGE, message: "armboot: address outside guest RAM"}
	ErrUnalignedAddress = &BootError{Code: BOOT_UNALIGNED, message: "armboot: address not aligned"}
	ErrZeroFrequency    = &BootError{Code: BOOT_ILLEGAL_STATE, message: "armboot: counter frequency is zero"}
)
