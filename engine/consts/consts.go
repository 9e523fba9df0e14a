package consts

import "time"

// Tunable Options
const (
	// WORKER_TICK_INTERVAL is the tick interval of the worker simulation loop
	WORKER_TICK_INTERVAL = time.Millisecond * 10
	// DEFAULT_SPAWN_PER_TICK is the default number of entities materialized per tick
	DEFAULT_SPAWN_PER_TICK = 32

	// For Entity ID Reservation
	// IDPOOL_DEFAULT_BLOCK_SIZE is the number of entity ids reserved per round trip
	IDPOOL_DEFAULT_BLOCK_SIZE = 256
	// IDPOOL_DEFAULT_LOW_WATERMARK triggers a prefetch when fewer ids are left in the pool
	IDPOOL_DEFAULT_LOW_WATERMARK = 64
	// IDPOOL_REQUEST_QUEUE_SIZE_WARN warns when too many reservations are queued
	IDPOOL_REQUEST_QUEUE_SIZE_WARN = 16
	// IDPOOL_RETRY_INTERVAL is the wait between failed backend reservations
	IDPOOL_RETRY_INTERVAL = time.Second

	// For Interest
	// DEFAULT_INTEREST_FREQUENCY is the query frequency when none is configured (0 = every update)
	DEFAULT_INTEREST_FREQUENCY = 0

	// For Operation Monitor
	// OPMON_DUMP_INTERVAL is the interval to print opmon infos to output
	OPMON_DUMP_INTERVAL = time.Minute
	// OPMON_ARBITRATION_WARN_THRESHOLD warns about slow arbitration chains
	OPMON_ARBITRATION_WARN_THRESHOLD = time.Millisecond
	// OPMON_MATERIALIZE_WARN_THRESHOLD warns about slow materializations
	OPMON_MATERIALIZE_WARN_THRESHOLD = time.Millisecond * 5
	// OPMON_RESERVE_WARN_THRESHOLD warns about slow entity id reservations
	OPMON_RESERVE_WARN_THRESHOLD = time.Millisecond * 100
)

// Debug Options
const (
	// DEBUG_OPS prints inbound op debug logs
	DEBUG_OPS = false
	// DEBUG_SPAWN prints spawn queue and arbitration debug logs
	DEBUG_SPAWN = false
	// DEBUG_IDENTITY prints identity cache debug logs
	DEBUG_IDENTITY = false
	// DEBUG_INTEREST prints interest query debug logs
	DEBUG_INTEREST = false
)

//  System level configurations
const (
	// DEBUG_MODE = true turns on debug mode
	DEBUG_MODE = false
)
