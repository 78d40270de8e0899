package logging

// Shared attribute keys. Use these instead of ad-hoc strings so log output
// stays consistent across the queue, pipeline, and providers.
const (
	FieldComponent = "component"
	FieldRecordID  = "record_id"
	FieldCaptureID = "capture_id"
	FieldQueueFile = "queue_file"
	FieldSessionID = "session_id"
	FieldProvider  = "provider"
	FieldStage     = "stage"
	FieldStatus    = "status"
	FieldEventType = "event_type"
	FieldErrorHint = "error_hint"
)
