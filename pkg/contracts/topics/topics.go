package topics

const (
	// Auditoria das chamadas à API de GPU
	APICalls = "gpu_api_calls"

	// DLQs
	APICallsDLQ = "gpu_api_calls_dlq"
)
