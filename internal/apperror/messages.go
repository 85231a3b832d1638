package apperror

// messages maps error codes to human-readable messages
var messages = map[Code]string{
	// General validation
	CodeRequiredField:   "Required field is missing",
	CodeInvalidInput:    "Invalid input provided",
	CodeInvalidFormat:   "Invalid data format",
	CodeInvalidState:    "Invalid state for this operation",
	CodeNotFound:        "Resource not found",
	CodeValidationError: "Validation error",

	// Configuration
	CodeConfigurationError: "Configuration error",

	// External service errors
	CodeExternalServiceError: "External service error",
	CodeServiceTimeout:       "Service request timeout",
	CodeServiceUnavailable:   "Service temporarily unavailable",
	CodeRateLimitExceeded:    "Rate limit exceeded",

	// System errors
	CodeInternalError: "Internal server error",
	CodeUnknownError:  "An unknown error occurred",

	// Pool naming / parsing
	CodeInvalidPoolName:     "Pool name does not match <leverage>-<BASE>/<QUOTE>",
	CodeInvalidPoolAddress:  "Invalid pool address",
	CodeInvalidLeverage:     "Invalid leverage value",
	CodeInvalidMarketFilter: "Unknown market filter",
	CodeInvalidSortKey:      "Unknown sort key",
	CodeTVLMismatch:         "Side token TVL does not add up to pool TVL",
	CodeZeroOraclePrice:     "Oracle price is zero",
	CodeUnknownDenomination: "Unknown denomination",
	CodeInvalidBrowseAction: "Unknown browse action",

	// Row sources
	CodePoolSourceFailed:   "Failed to load pool rows",
	CodePoolSnapshotStale:  "Pool snapshot is stale",
	CodePoolSnapshotEmpty:  "No pool snapshot available yet",
	CodeSnapshotStoreError: "Snapshot store error",

	// Spot prices
	CodeSpotPriceFailed:      "Failed to fetch spot prices",
	CodeSpotPriceUnavailable: "Spot price unavailable for market",

	// WebSocket errors
	CodeWebSocketConnectionError: "WebSocket connection error",
	CodeWebSocketReconnecting:    "WebSocket reconnecting",
	CodeWebSocketClosed:          "WebSocket connection closed",
	CodeWebSocketSendError:       "Failed to send WebSocket message",

	// Circuit breaker errors
	CodeCircuitOpen:     "Circuit breaker is open",
	CodeCircuitHalfOpen: "Circuit breaker is half-open",
}
