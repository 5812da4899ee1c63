package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/chronically/chronically/internal/util"
	"github.com/gin-gonic/gin"
)

const statusSuccess = "Success"

// bindRequest decodes the query string of GET requests and the JSON body of
// everything else. A missing body leaves req zero-valued so the handler can
// report the missing field itself.
func bindRequest(c *gin.Context, req interface{}) bool {
	var err error
	if c.Request.Method == http.MethodGet {
		err = c.ShouldBindQuery(req)
	} else {
		err = c.ShouldBindJSON(req)
		if errors.Is(err, io.EOF) {
			err = nil
		}
	}
	if err != nil {
		util.RespondBadRequest(c, "Invalid request body")
		return false
	}
	return true
}

// flexID accepts a JSON number or a numeric string. The web client sends
// article ids both ways.
type flexID struct {
	Value int64
	Valid bool
}

func (f *flexID) UnmarshalJSON(b []byte) error {
	s := strings.Trim(strings.TrimSpace(string(b)), `"`)
	if s == "" || s == "null" {
		*f = flexID{}
		return nil
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid id %s", b)
	}
	*f = flexID{Value: v, Valid: true}
	return nil
}

// UnmarshalParam lets query binding fill a flexID.
func (f *flexID) UnmarshalParam(param string) error {
	return f.UnmarshalJSON([]byte(param))
}

// flexString accepts a JSON string or number, keeping the number's text.
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	switch {
	case s == "null":
		*f = ""
	case strings.HasPrefix(s, `"`):
		var v string
		if err := json.Unmarshal(b, &v); err != nil {
			return err
		}
		*f = flexString(strings.TrimSpace(v))
	default:
		if _, err := strconv.ParseFloat(s, 64); err != nil {
			return fmt.Errorf("invalid id %s", b)
		}
		*f = flexString(s)
	}
	return nil
}

// actingUser returns the token's username. A body that names a different
// user is refused so one account cannot act for another.
func actingUser(c *gin.Context, claimed string) (string, bool) {
	username, ok := util.GetUsernameFromContext(c)
	if !ok {
		return "", false
	}
	if claimed != "" && claimed != username {
		util.RespondForbidden(c, "You can only act as the signed-in user.")
		return "", false
	}
	return username, true
}

// subjectUser resolves the user a public read is about: the named user, or
// the caller when the request carries a token and names nobody.
func subjectUser(c *gin.Context, named string) string {
	if named != "" {
		return named
	}
	return c.GetString(util.ContextUsername)
}
