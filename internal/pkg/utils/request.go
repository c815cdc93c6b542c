package utils

import (
	"maternity-service/internal/pkg/constvars"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

func GenerateRequestID() string {
	return constvars.REQUEST_ID_PREFIX + strings.ReplaceAll(uuid.NewString(), "-", "")
}

// RequestIDFromHeader returns the caller supplied X-Request-ID, if any.
func RequestIDFromHeader(r *http.Request) (string, bool) {
	requestID := strings.TrimSpace(r.Header.Get(constvars.HeaderXRequestID))
	return requestID, requestID != ""
}
