package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/neurobridge-lessons/internal/domain/lessons"
	"github.com/yungbote/neurobridge-lessons/internal/http/response"
	"github.com/yungbote/neurobridge-lessons/internal/platform/apierr"
)

var kindStatus = map[lessons.Kind]int{
	lessons.KindBadInput:       http.StatusBadRequest,
	lessons.KindBadStatus:      http.StatusBadRequest,
	lessons.KindBadProgress:    http.StatusBadRequest,
	lessons.KindEmptyMessage:   http.StatusBadRequest,
	lessons.KindNotFound:       http.StatusNotFound,
	lessons.KindCourseNotFound: http.StatusNotFound,
	lessons.KindConflict:       http.StatusConflict,
	lessons.KindInternal:       http.StatusInternalServerError,
}

// toAPIError maps a lesson error kind onto its transport status. Messages of
// unclassified failures are not echoed to the client.
func toAPIError(err error) *apierr.Error {
	var ae *apierr.Error
	if errors.As(err, &ae) {
		return ae
	}
	kind := lessons.KindOf(err)
	status, ok := kindStatus[kind]
	if !ok || kind == lessons.KindInternal {
		return apierr.New(http.StatusInternalServerError, string(lessons.KindInternal), errors.New("internal error"))
	}
	msg := string(kind)
	var le *lessons.Error
	if errors.As(err, &le) && le.Message != "" {
		msg = le.Message
	}
	return apierr.New(status, string(kind), errors.New(msg))
}

func respondError(c *gin.Context, err error) {
	_ = c.Error(err)
	ae := toAPIError(err)
	response.RespondError(c, ae.Status, ae.Code, ae.Err)
}

func badInput(msg string) error {
	return apierr.New(http.StatusBadRequest, string(lessons.KindBadInput), errors.New(msg))
}
