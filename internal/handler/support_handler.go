package handler

import (
	"net/http"
	"regexp"
	"strings"

	"teamsync-server/pkg/logger"
	"teamsync-server/pkg/support"
	"teamsync-server/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// lockKeywordsRe matches messages about account access trouble. Those get
// the canned admin-contact reply without a model round-trip.
var lockKeywordsRe = regexp.MustCompile(`(?i)lock|locking|locked|blocked|restrict|restricted|access denied|cant access|can't access|unable to access`)

var adminContacts = strings.TrimSpace(`
If your account is locked or you need admin assistance, you can contact admin through:
Email: support@teamsync.example
Phone: +1 555 0138

Our admin team is available during business hours and will assist you as soon as possible.
`)

const supportFallback = "I apologize, but I am temporarily unable to process your request. Please try again or contact admin if the issue persists."

// SupportChat answers a support message with either the canned access
// help text or a model completion.
func SupportChat(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.SupportCounter.Inc()

	var req struct {
		Message string `json:"message"`
	}

	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse support request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"reply": supportFallback})
	}

	log.Info("Support message received", zap.Int("length", len(req.Message)))

	if lockKeywordsRe.MatchString(req.Message) {
		log.Info("Access-related keyword detected, returning admin contacts")
		return c.JSON(http.StatusOK, echo.Map{"reply": adminContacts})
	}

	reply, err := support.Reply(c.Request().Context(), req.Message)
	if err != nil {
		log.Error("Support assistant error", zap.Error(err))
		if err == support.ErrNotConfigured {
			return c.JSON(http.StatusInternalServerError, echo.Map{
				"reply": "Sorry, the AI support system is not properly configured. Please contact admin directly.",
			})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"reply": supportFallback})
	}

	return c.JSON(http.StatusOK, echo.Map{"reply": reply})
}
