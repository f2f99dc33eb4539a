package armboot

import (
	"strings"
	"testing"
)

func TestBootError(t *testing.T) {
	tests := []struct {
		name     string
		code     uint32
		expected string
	}{
		{
			name:     "BOOT_SUCCESS",
			code:     BOOT_SUCCESS,
			expected: "armboot: success",
		},
		{
			name:     "BOOT_ERROR",
			code:     BOOT_ERROR,
			expected: "armboot: general error (BOOT_ERROR) - check machine construction and API usage",
		},
		{
			name:     "BOOT_BAD_ARGUMENT",
			code:     BOOT_BAD_ARGUMENT,
			expected: "armboot: invalid argument (BOOT_BAD_ARGUMENT) - check parameter values and alignment",
		},
		{
			name:     "BOOT_ILLEGAL_STATE",
			code:     BOOT_ILLEGAL_STATE,
			expected: "armboot: illegal machine state (BOOT_ILLEGAL_STATE) - operation not valid at this boot stage",
		},
		{
			name:     "BOOT_NO_RESOURCES",
			code:     BOOT_NO_RESOURCES,
			expected: "armboot: insufficient resources (BOOT_NO_RESOURCES) - guest RAM allocation failed or limits exceeded",
		},
		{
			name:     "BOOT_CLOSED",
			code:     BOOT_CLOSED,
			expected: "armboot: machine closed (BOOT_CLOSED) - the machine was closed before this operation",
		},
		{
			name:     "BOOT_OUT_OF_RANGE",
			code:     BOOT_OUT_OF_RANGE,
			expected: "armboot: address out of range (BOOT_OUT_OF_RANGE) - access falls outside guest RAM",
		},
		{
			name:     "BOOT_UNALIGNED",
			code:     BOOT_UNALIGNED,
			expected: "armboot: unaligned address (BOOT_UNALIGNED) - check linker layout alignment rules",
		},
		{
			name:     "unknown code",
			code:     0xDEADBEEF,
			expected: "armboot: unknown error code 0xdeadbeef",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := BootError{Code: tt.code}
			if got := err.Error(); got != tt.expected {
				t.Errorf("BootError{Code: 0x%08x}.Error() = %q, want %q", tt.code, got, tt.expected)
			}
		})
	}
}

func TestBootErrorSanitized(t *testing.T) {
	t.Setenv("ARMBOOT_ENV", "production")

	tests := []struct {
		code     uint32
		expected string
	}{
		{BOOT_ERROR, "armboot: general error"},
		{BOOT_BAD_ARGUMENT, "armboot: invalid argument"},
		{BOOT_CLOSED, "armboot: machine closed"},
		{BOOT_OUT_OF_RANGE, "armboot: address out of range"},
		{BOOT_UNALIGNED, "armboot: unaligned address"},
		{0xDEADBEEF, "armboot: model error"},
	}

	for _, tt := range tests {
		err := BootError{Code: tt.code}
		if got := err.Error(); got != tt.expected {
			t.Errorf("sanitized BootError{Code: 0x%08x}.Error() = %q, want %q", tt.code, got, tt.expected)
		}
	}
}

func TestBootErrorDebugDisabled(t *testing.T) {
	t.Setenv("ARMBOOT_DEBUG", "false")

	err := BootError{Code: BOOT_ERROR}
	if got := err.Error(); got != "armboot: general error" {
		t.Errorf("BootError with ARMBOOT_DEBUG=false = %q, want sanitized message", got)
	}
}

func TestBootErrorCustomMessage(t *testing.T) {
	err := BootError{Code: BOOT_CLOSED, message: "armboot: custom"}
	if got := err.Error(); got != "armboot: custom" {
		t.Errorf("custom message not used: %q", got)
	}
}

func TestSentinelErrors(t *testing.T) {
	sentinels := []struct {
		err  *BootError
		want string
	}{
		{ErrMachineClosed, "machine is closed"},
		{ErrInvalidRegister, "invalid register"},
		{ErrInvalidCore, "invalid core index"},
		{ErrOutOfRange, "outside guest RAM"},
		{ErrUnalignedAddress, "not aligned"},
		{ErrZeroFrequency, "frequency is zero"},
	}

	for _, s := range sentinels {
		if !strings.Contains(s.err.Error(), s.want) {
			t.Errorf("sentinel %v does not mention %q", s.err, s.want)
		}
	}
}
