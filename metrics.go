package armboot

import (
	"sync/atomic"
	"time"
)

// Counters for monitoring machine and boot activity
var (
	// Operation counters
	machineCreateCount uint64
	machineCloseCount  uint64
	coreCreateCount    uint64
	bootCount          uint64
	handoffCount       uint64
	parkedNonBootCount uint64
	parkedFatalCount   uint64
	zeroedByteCount    uint64
	registerOps        uint64
	memReads           uint64
	memWrites          uint64

	// Timing metrics (nanoseconds)
	totalMachineCreateTime uint64
	totalBootTime          uint64

	// Error counters
	validationErrors uint64
	resourceErrors   uint64
)

// Metrics provides access to boot-model metrics
type Metrics struct {
	MachinesCreated        uint64 `json:"machines_created"`
	MachinesClosed         uint64 `json:"machines_closed"`
	CoresCreated           uint64 `json:"cores_created"`
	BootsRun               uint64 `json:"boots_run"`
	Handoffs               uint64 `json:"handoffs"`
	ParkedNonBoot          uint64 `json:"parked_non_boot"`
	ParkedFatal            uint64 `json:"parked_fatal"`
	BytesZeroed            uint64 `json:"bytes_zeroed"`
	RegisterOps            uint64 `json:"register_operations"`
	MemReads               uint64 `json:"mem_reads"`
	MemWrites              uint64 `json:"mem_writes"`
	AvgMachineCreateTimeNs uint64 `json:"avg_machine_create_time_ns"`
	AvgBootTimeNs          uint64 `json:"avg_boot_time_ns"`
	ValidationErrors       uint64 `json:"validation_errors"`
	ResourceErrors         uint64 `json:"resource_errors"`
}

// GetMetrics returns current boot-model metrics
func GetMetrics() Metrics {
	created := atomic.LoadUint64(&machineCreateCount)
	boots := atomic.LoadUint64(&bootCount)

	var avgCreate, avgBoot uint64
	if created > 0 {
		avgCreate = atomic.LoadUint64(&totalMachineCreateTime) / created
	}
	if boots > 0 {
		avgBoot = atomic.LoadUint64(&totalBootTime) / boots
	}

	return Metrics{
		MachinesCreated:        created,
		MachinesClosed:         atomic.LoadUint64(&machineCloseCount),
		CoresCreated:           atomic.LoadUint64(&coreCreateCount),
		BootsRun:               boots,
		Handoffs:               atomic.LoadUint64(&handoffCount),
		ParkedNonBoot:          atomic.LoadUint64(&parkedNonBootCount),
		ParkedFatal:            atomic.LoadUint64(&parkedFatalCount),
		BytesZeroed:            atomic.LoadUint64(&zeroedByteCount),
		RegisterOps:            atomic.LoadUint64(&registerOps),
		MemReads:               atomic.LoadUint64(&memReads),
		MemWrites:              atomic.LoadUint64(&memWrites),
		AvgMachineCreateTimeNs: avgCreate,
		AvgBootTimeNs:          avgBoot,
		ValidationErrors:       atomic.LoadUint64(&validationErrors),
		ResourceErrors:         atomic.LoadUint64(&resourceErrors),
	}
}

// ResetMetrics clears all boot-model metrics
func ResetMetrics() {
	atomic.StoreUint64(&machineCreateCount, 0)
	atomic.StoreUint64(&machineCloseCount, 0)
	atomic.StoreUint64(&coreCreateCount, 0)
	atomic.StoreUint64(&bootCount, 0)
	atomic.StoreUint64(&handoffCount, 0)
	atomic.StoreUint64(&parkedNonBootCount, 0)
	atomic.StoreUint64(&parkedFatalCount, 0)
	atomic.StoreUint64(&zeroedByteCount, 0)
	atomic.StoreUint64(&registerOps, 0)
	atomic.StoreUint64(&memReads, 0)
	atomic.StoreUint64(&memWrites, 0)
	atomic.StoreUint64(&totalMachineCreateTime, 0)
	atomic.StoreUint64(&totalBootTime, 0)
	atomic.StoreUint64(&validationErrors, 0)
	atomic.StoreUint64(&resourceErrors, 0)
}

// Internal metric recording functions
func recordMachineCreate(duration time.Duration) {
	atomic.AddUint64(&machineCreateCount, 1)
	atomic.AddUint64(&totalMachineCreateTime, uint64(duration.Nanoseconds()))
}

func recordMachineClose() {
	atomic.AddUint64(&machineCloseCount, 1)
}

func recordCoreCreate() {
	atomic.AddUint64(&coreCreateCount, 1)
}

func recordBoot(duration time.Duration) {
	atomic.AddUint64(&bootCount, 1)
	atomic.AddUint64(&totalBootTime, uint64(duration.Nanoseconds()))
}

func recordHandoff() {
	atomic.AddUint64(&handoffCount, 1)
}

func recordPark(reason ParkReason) {
	switch reason {
	case ParkZeroTimerFrequency:
		atomic.AddUint64(&parkedFatalCount, 1)
	default:
		atomic.AddUint64(&parkedNonBootCount, 1)
	}
}

func recordBytesZeroed(n uint64) {
	atomic.AddUint64(&zeroedByteCount, n)
}

func recordRegisterOp() {
	atomic.AddUint64(&registerOps, 1)
}

func recordMemRead() {
	atomic.AddUint64(&memReads, 1)
}

func recordMemWrite() {
	atomic.AddUint64(&memWrites, 1)
}

func recordValidationError() {
	atomic.AddUint64(&validationErrors, 1)
}

func recordResourceError() {
	atomic.AddUint64(&resourceErrors, 1)
}
