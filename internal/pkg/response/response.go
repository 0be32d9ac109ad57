package response

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/xxxsen/common/webapi/proxyutil"

	"github.com/xxxsen/eventkb/internal/pkg/errcode"
)

// apiErr carries an errcode through proxyutil's envelope.
type apiErr struct {
	code uint32
	msg  string
}

func (e apiErr) Error() string {
	return e.msg
}

func (e apiErr) Code() uint32 {
	return e.code
}

func Success(c *gin.Context, data interface{}) {
	proxyutil.SuccessJson(c, data)
}

func Error(c *gin.Context, code int, message string) {
	proxyutil.FailJson(c, 200, apiErr{code: uint32(code), msg: message})
}

// KnowledgeBaseNotFound reports a query against an event without an index.
func KnowledgeBaseNotFound(c *gin.Context, eventID string) {
	Error(c, errcode.ErrKnowledgeBaseNotFound, fmt.Sprintf("knowledge base for event '%s' not found", eventID))
}
