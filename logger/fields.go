package logger

import (
	"time"
)

// Field keys shared by every package. Values logged under these keys never
// carry field plaintext or ciphertext.
const (
	FieldComponent     = "component"
	FieldTraceID       = "trace_id"
	FieldRequestID     = "request_id"
	FieldCorrelationID = "correlation_id"
	FieldOperation     = "operation"
	FieldError         = "error"
	FieldDuration      = "duration_ms"

	FieldType    = "type"
	FieldObject  = "object_id"
	FieldCount   = "count"
	FieldObjects = "objects"
	FieldTable   = "table"
)

// Fields builds a map[string]interface{} from alternating key-value pairs.
// A trailing key without a value and non-string keys are dropped.
//
//	log.Debug("write set encrypted", logger.Fields(logger.FieldObjects, 3))
func Fields(kvs ...interface{}) map[string]interface{} {
	m := make(map[string]interface{}, len(kvs)/2)
	for i := 0; i < len(kvs)-1; i += 2 {
		if key, ok := kvs[i].(string); ok {
			m[key] = kvs[i+1]
		}
	}
	return m
}

// ObjectFields describes one object handled in a crypt phase.
func ObjectFields(typ, objectID string, count int) map[string]interface{} {
	return map[string]interface{}{
		FieldType:   typ,
		FieldObject: objectID,
		FieldCount:  count,
	}
}

// PhaseFields describes a finished crypt phase. err may be nil.
func PhaseFields(phase string, d time.Duration, err error) map[string]interface{} {
	m := map[string]interface{}{
		FieldOperation: phase,
		FieldDuration:  d.Milliseconds(),
	}
	if err != nil {
		m[FieldError] = err.Error()
	}
	return m
}
