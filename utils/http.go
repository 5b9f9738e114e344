// utils/http.go
package utils

import (
	"net/http"
	"time"
)

// HTTPClient is the shared client for outbound service calls that don't
// need their own timeout policy.
var HTTPClient = &http.Client{
	Timeout: 30 * time.Second,
}
