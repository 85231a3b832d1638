package apperror

// Code represents a unique error code for the application
type Code string

// General error codes
const (
	// General validation
	CodeRequiredField   Code = "REQUIRED_FIELD"
	CodeInvalidInput    Code = "INVALID_INPUT"
	CodeInvalidFormat   Code = "INVALID_FORMAT"
	CodeInvalidState    Code = "INVALID_STATE"
	CodeNotFound        Code = "NOT_FOUND"
	CodeValidationError Code = "VALIDATION_ERROR"

	// Configuration
	CodeConfigurationError Code = "CONFIGURATION_ERROR"

	// External service errors
	CodeExternalServiceError Code = "EXTERNAL_SERVICE_ERROR"
	CodeServiceTimeout       Code = "SERVICE_TIMEOUT"
	CodeServiceUnavailable   Code = "SERVICE_UNAVAILABLE"
	CodeRateLimitExceeded    Code = "RATE_LIMIT_EXCEEDED"

	// System errors
	CodeInternalError Code = "INTERNAL_ERROR"
	CodeUnknownError  Code = "UNKNOWN_ERROR"
)

// Pools-specific error codes
const (
	// Pool naming / parsing
	CodeInvalidPoolName     Code = "INVALID_POOL_NAME"
	CodeInvalidPoolAddress  Code = "INVALID_POOL_ADDRESS"
	CodeInvalidLeverage     Code = "INVALID_LEVERAGE"
	CodeInvalidMarketFilter Code = "INVALID_MARKET_FILTER"
	CodeInvalidSortKey      Code = "INVALID_SORT_KEY"
	CodeTVLMismatch         Code = "TVL_MISMATCH"
	CodeZeroOraclePrice     Code = "ZERO_ORACLE_PRICE"
	CodeUnknownDenomination Code = "UNKNOWN_DENOMINATION"
	CodeInvalidBrowseAction Code = "INVALID_BROWSE_ACTION"

	// Row sources
	CodePoolSourceFailed   Code = "POOL_SOURCE_FAILED"
	CodePoolSnapshotStale  Code = "POOL_SNAPSHOT_STALE"
	CodePoolSnapshotEmpty  Code = "POOL_SNAPSHOT_EMPTY"
	CodeSnapshotStoreError Code = "SNAPSHOT_STORE_ERROR"

	// Spot prices
	CodeSpotPriceFailed      Code = "SPOT_PRICE_FAILED"
	CodeSpotPriceUnavailable Code = "SPOT_PRICE_UNAVAILABLE"

	// WebSocket errors
	CodeWebSocketConnectionError Code = "WEBSOCKET_CONNECTION_ERROR"
	CodeWebSocketReconnecting    Code = "WEBSOCKET_RECONNECTING"
	CodeWebSocketClosed          Code = "WEBSOCKET_CLOSED"
	CodeWebSocketSendError       Code = "WEBSOCKET_SEND_ERROR"

	// Circuit breaker errors
	CodeCircuitOpen     Code = "CIRCUIT_OPEN"
	CodeCircuitHalfOpen Code = "CIRCUIT_HALF_OPEN"
)
