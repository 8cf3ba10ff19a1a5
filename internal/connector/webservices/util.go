package webservices

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
)

// ErrInvalidOptions is returned by endpoint constructors for missing dependencies.
var ErrInvalidOptions = errors.New("need a non-nil value")

// isNil also reports interfaces holding a typed nil pointer.
func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Slice, reflect.Func, reflect.Interface, reflect.Chan:
		return rv.IsNil()
	}
	return false
}

func checkArg(v any, fnTag, subject string) error {
	if isNil(v) {
		return fmt.Errorf("%s arg %s: %w", fnTag, subject, ErrInvalidOptions)
	}
	return nil
}

// failure is the body of every 500 an endpoint produces.
type failure struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

// errorDetail renders err with %+v so error types that carry a stack print it.
func errorDetail(err error) string { return fmt.Sprintf("%+v", err) }

func writeFailure(w http.ResponseWriter, err error) {
	b, _ := json.Marshal(failure{Message: "Internal Server Error", Error: errorDetail(err)})
	writeBody(w, http.StatusInternalServerError, b)
}

func writeBody(w http.ResponseWriter, status int, b []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(b)
}
