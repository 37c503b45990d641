package router

import (
	"encoding/json"
	"io"
	"strconv"

	"github.com/gin-gonic/gin"
)

// maxBodyBytes bounds the request body size accepted by the validator.
const maxBodyBytes = 1 << 20

// validateInput checks the request's query string and body against the
// route's declared schema. The returned body bytes are handed to the handler
// when validation passes. The contract is coarse: callers learn only that
// the input was invalid, never which field failed.
func validateInput(c *gin.Context, route *Route) ([]byte, bool) {
	for _, param := range route.Query {
		value, present := c.GetQuery(param.Name)
		if !present || value == "" {
			if param.Required {
				return nil, false
			}
			continue
		}
		if param.Numeric {
			if _, errParse := strconv.ParseInt(value, 10, 64); errParse != nil {
				return nil, false
			}
		}
	}

	if !route.Body {
		return nil, true
	}
	if c.Request.Body == nil {
		return nil, false
	}
	body, errRead := io.ReadAll(io.LimitReader(c.Request.Body, maxBodyBytes))
	if errRead != nil {
		return nil, false
	}
	var payload map[string]json.RawMessage
	if errUnmarshal := json.Unmarshal(body, &payload); errUnmarshal != nil {
		return nil, false
	}
	return body, true
}
