// api/middleware/error_handler.go
package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/quasarbase/quasar-backend/internal/auth"
	"github.com/quasarbase/quasar-backend/internal/core"
	"github.com/quasarbase/quasar-backend/internal/data"
	"github.com/quasarbase/quasar-backend/internal/provision"
	"github.com/quasarbase/quasar-backend/internal/schema"
	"github.com/quasarbase/quasar-backend/internal/storage"
)

// ErrorHandler creates a Gin middleware for centralized error handling.
// Handlers attach errors with c.Error; the last one is mapped to a status
// code and user message here, so handlers never hand-roll responses for the
// shared error taxonomy.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}
		err := c.Errors.Last().Err

		customLog.Printf("[ErrorHandler] Detected error: %v | Type: %T", err, err)

		var statusCode int
		var userMessage string
		var fault *core.ProvisioningFault

		switch {
		case errors.Is(err, core.ErrInvalidIdentifier),
			errors.Is(err, data.ErrEmptyFilter),
			errors.Is(err, data.ErrEmptyData),
			errors.Is(err, data.ErrUnknownColumn),
			errors.Is(err, data.ErrInvalidValue),
			errors.Is(err, provision.ErrEmptyCSV),
			errors.Is(err, schema.ErrSerialAlterTarget),
			errors.Is(err, auth.ErrBadRequest):
			statusCode = http.StatusBadRequest
			userMessage = err.Error()

		case errors.Is(err, storage.ErrDatabaseNotFound),
			errors.Is(err, storage.ErrTableNotFound),
			errors.Is(err, schema.ErrTableMissing),
			errors.Is(err, data.ErrNoRowsMatched):
			statusCode = http.StatusNotFound
			userMessage = err.Error()

		case errors.Is(err, storage.ErrDatabaseExists),
			errors.Is(err, storage.ErrTableExists):
			statusCode = http.StatusConflict
			userMessage = err.Error()

		case errors.Is(err, storage.ErrAPIKeyNotFound),
			errors.Is(err, auth.ErrForbidden):
			statusCode = http.StatusForbidden
			userMessage = "Invalid API key."

		case errors.Is(err, auth.ErrTokenMalformed),
			errors.Is(err, auth.ErrTokenInvalid),
			errors.Is(err, auth.ErrTokenClaimsInvalid),
			errors.Is(err, auth.ErrUnexpectedSigningMethod),
			errors.Is(err, auth.ErrUnauthorized):
			statusCode = http.StatusUnauthorized
			userMessage = "Invalid or malformed authentication token."

		case errors.Is(err, auth.ErrTokenExpired):
			statusCode = http.StatusUnauthorized
			userMessage = "Authentication token has expired."

		case errors.As(err, &fault):
			// Cross-store inconsistency: already fault-logged with full
			// context; clients get a generic failure.
			statusCode = http.StatusInternalServerError
			userMessage = "Provisioning failed; the operation may be partially applied. Support has been notified."

		default:
			if validationErrs, ok := err.(validator.ValidationErrors); ok {
				statusCode = http.StatusBadRequest
				userMessage = "Validation failed. Please check your input."
				for _, fe := range validationErrs {
					customLog.Printf("Validation Error: Field %s failed on %s", fe.Field(), fe.Tag())
				}
				break
			}
			statusCode = http.StatusInternalServerError
			userMessage = "An unexpected internal server error occurred."
			customLog.Warnf("Unhandled error type: %T, Error: %v", err, err)
		}

		if !c.Writer.Written() {
			c.AbortWithStatusJSON(statusCode, gin.H{"error": userMessage})
		}
	}
}
